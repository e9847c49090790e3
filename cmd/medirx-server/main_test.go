package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medirx/medirx/internal/config"
	"github.com/medirx/medirx/internal/domain/account"
	"github.com/medirx/medirx/internal/domain/prescription"
	"github.com/medirx/medirx/internal/domain/profile"
	"github.com/medirx/medirx/internal/domain/reminder"
	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/auth"
	"github.com/medirx/medirx/internal/platform/hipaa"
)

// -- In-memory stores --

type memAccounts struct {
	mu    sync.Mutex
	items []*account.Account
}

func (m *memAccounts) Create(_ context.Context, a *account.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.items {
		if x.Email == a.Email || x.Username == a.Username {
			return apperr.ErrDuplicate
		}
	}
	a.ID, a.CreatedAt = uuid.New(), time.Now()
	cp := *a
	m.items = append(m.items, &cp)
	return nil
}

func (m *memAccounts) find(match func(*account.Account) bool) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.items {
		if match(x) {
			cp := *x
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*account.Account, error) {
	return m.find(func(a *account.Account) bool { return a.Email == email })
}

func (m *memAccounts) GetByUsername(_ context.Context, username string) (*account.Account, error) {
	return m.find(func(a *account.Account) bool { return a.Username == username })
}

func (m *memAccounts) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.items {
		if x.ID == id {
			x.PasswordHash = hash
			return nil
		}
	}
	return apperr.ErrNotFound
}

type memPrescriptions struct {
	mu    sync.Mutex
	items []*prescription.Prescription
}

func (m *memPrescriptions) Create(_ context.Context, p *prescription.Prescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID, p.CreatedAt = uuid.New(), time.Now().Add(time.Duration(len(m.items))*time.Millisecond)
	cp := *p
	m.items = append(m.items, &cp)
	return nil
}

func (m *memPrescriptions) filter(match func(*prescription.Prescription) bool) []*prescription.Prescription {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*prescription.Prescription{}
	for _, p := range m.items {
		if match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (m *memPrescriptions) GetByID(_ context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	if items := m.filter(func(p *prescription.Prescription) bool { return p.ID == id }); len(items) == 1 {
		return items[0], nil
	}
	return nil, apperr.ErrNotFound
}

func (m *memPrescriptions) ListByDoctor(_ context.Context, email string) ([]*prescription.Prescription, error) {
	return m.filter(func(p *prescription.Prescription) bool { return p.DoctorEmail == email }), nil
}

func (m *memPrescriptions) ListByPatient(_ context.Context, email string) ([]*prescription.Prescription, error) {
	return m.filter(func(p *prescription.Prescription) bool { return p.PatientEmail == email }), nil
}

func (m *memPrescriptions) LatestByPatient(ctx context.Context, email string) (*prescription.Prescription, error) {
	items, _ := m.ListByPatient(ctx, email)
	if len(items) == 0 {
		return nil, fmt.Errorf("latest prescription: %w", apperr.ErrNotFound)
	}
	return items[len(items)-1], nil
}

func (m *memPrescriptions) SetDerivationStatus(_ context.Context, id uuid.UUID, status prescription.DerivationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.ID == id {
			p.DerivationStatus = status
			return nil
		}
	}
	return apperr.ErrNotFound
}

type memReminders struct {
	mu    sync.Mutex
	items []*reminder.Reminder
}

func (m *memReminders) Create(_ context.Context, r *reminder.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID, r.CreatedAt = uuid.New(), time.Now()
	cp := *r
	m.items = append(m.items, &cp)
	return nil
}

func (m *memReminders) GetByID(_ context.Context, id uuid.UUID) (*reminder.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memReminders) ListByPatient(_ context.Context, email string) ([]*reminder.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*reminder.Reminder{}
	for _, r := range m.items {
		if r.PatientEmail == email {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memReminders) UpdateStatus(_ context.Context, id uuid.UUID, status reminder.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id {
			r.Status = status
			return nil
		}
	}
	return apperr.ErrNotFound
}

type memDoctors struct {
	mu    sync.Mutex
	items map[string]profile.DoctorProfile
	fail  error
}

func (m *memDoctors) Create(_ context.Context, p *profile.DoctorProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.Email]; ok {
		return apperr.ErrDuplicate
	}
	p.ID = uuid.New()
	m.items[p.Email] = *p
	return nil
}

func (m *memDoctors) GetByEmail(_ context.Context, email string) (*profile.DoctorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	p, ok := m.items[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &p, nil
}

func (m *memDoctors) Update(_ context.Context, p *profile.DoctorProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.Email] = *p
	return nil
}

type memPatients struct {
	mu    sync.Mutex
	items map[string]profile.PatientProfile
}

func (m *memPatients) Create(_ context.Context, p *profile.PatientProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	m.items[p.Email] = *p
	return nil
}

func (m *memPatients) GetByEmail(_ context.Context, email string) (*profile.PatientProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &p, nil
}

func (m *memPatients) Update(_ context.Context, p *profile.PatientProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.Email] = *p
	return nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

// -- Harness --

type testServer struct {
	t       *testing.T
	h       http.Handler
	doctors *memDoctors
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte("server-test-secret-0123456789abcdef"))
	if err != nil {
		t.Fatal(err)
	}
	doctors := &memDoctors{items: make(map[string]profile.DoctorProfile)}
	st := &stores{
		driver:        "memory",
		accounts:      &memAccounts{},
		prescriptions: &memPrescriptions{},
		reminders:     &memReminders{},
		doctors:       doctors,
		patients:      &memPatients{items: make(map[string]profile.PatientProfile)},
		pinger:        okPinger{},
		close:         func() {},
	}
	cfg := &config.Config{
		Env:            "test",
		CORSOrigins:    []string{"http://localhost:3000"},
		BodyLimit:      "1M",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		RequestTimeout: 5 * time.Second,
	}
	e := newServer(deps{
		cfg:    cfg,
		logger: zerolog.Nop(),
		stores: st,
		tokens: tokens,
		hasher: auth.NewBcryptHasher(bcrypt.MinCost),
		phi:    hipaa.Disabled(),
	})
	return &testServer{t: t, h: e, doctors: doctors}
}

func (s *testServer) do(method, target, token, body string, out any) int {
	s.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, target, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func (s *testServer) signup(username, email, role string) string {
	s.t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	body := fmt.Sprintf(`{"username":%q,"email":%q,"password":"password123","userType":%q}`, username, email, role)
	if code := s.do(http.MethodPost, "/web/api/signup", "", body, &resp); code != http.StatusCreated {
		s.t.Fatalf("signup %s: status %d", email, code)
	}
	return resp.Token
}

// -- Tests --

func TestScenario_DoctorPrescribesPatientTakesDose(t *testing.T) {
	s := newTestServer(t)

	doctor := s.signup("drhouse", "house@example.com", "doctor")
	patient := s.signup("pat", "pat@example.com", "patient")

	profileBody := `{"email":"house@example.com","name":"Gregory House","specialization":"Diagnostics","hospital":"PPTH","contactNumber":"5550100"}`
	if code := s.do(http.MethodPost, "/web/api/profile", doctor, profileBody, nil); code != http.StatusCreated {
		t.Fatalf("create profile: status %d", code)
	}

	var created struct {
		Message      string                    `json:"message"`
		Prescription prescription.Prescription `json:"prescription"`
	}
	rxBody := `{"doctorEmail":"house@example.com","patientName":"pat","patientEmail":"pat@example.com","medicines":"Amoxicillin, Ibuprofen","schedule":"8am, 8pm"}`
	if code := s.do(http.MethodPost, "/web/api/create-prescription", doctor, rxBody, &created); code != http.StatusCreated {
		t.Fatalf("create prescription: status %d", code)
	}
	if created.Prescription.DerivationStatus != prescription.DerivationComplete {
		t.Errorf("expected derivation complete, got %q", created.Prescription.DerivationStatus)
	}

	var reminders []reminder.Reminder
	if code := s.do(http.MethodGet, "/web/api/reminders", patient, "", &reminders); code != http.StatusOK {
		t.Fatalf("list reminders: status %d", code)
	}
	if len(reminders) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(reminders))
	}
	for _, r := range reminders {
		if r.Status != reminder.StatusPending || r.PrescriptionID != created.Prescription.ID {
			t.Errorf("unexpected reminder: %+v", r)
		}
	}

	var updated struct {
		Message  string            `json:"message"`
		Reminder reminder.Reminder `json:"reminder"`
	}
	if code := s.do(http.MethodPut, "/web/api/update-reminder?id="+reminders[0].ID.String(), patient, `{}`, &updated); code != http.StatusOK {
		t.Fatalf("update reminder: status %d", code)
	}
	if updated.Reminder.Status != reminder.StatusTaken {
		t.Errorf("expected Taken, got %q", updated.Reminder.Status)
	}

	reminders = nil
	s.do(http.MethodGet, "/web/api/reminders?patientEmail=pat@example.com", patient, "", &reminders)
	counts := map[reminder.Status]int{}
	for _, r := range reminders {
		counts[r.Status]++
	}
	if counts[reminder.StatusTaken] != 1 || counts[reminder.StatusPending] != 1 {
		t.Errorf("expected one Taken and one Pending, got %v", counts)
	}
}

func TestScenario_MismatchedPrescriptionStillCreated(t *testing.T) {
	s := newTestServer(t)
	doctor := s.signup("drhouse", "house@example.com", "doctor")
	patient := s.signup("pat", "pat@example.com", "patient")

	var created struct {
		Prescription prescription.Prescription `json:"prescription"`
	}
	rxBody := `{"doctorEmail":"house@example.com","patientName":"pat","patientEmail":"pat@example.com","medicines":"A,B","schedule":"1"}`
	if code := s.do(http.MethodPost, "/web/api/create-prescription", doctor, rxBody, &created); code != http.StatusCreated {
		t.Fatalf("expected 201 despite derivation failure, got %d", code)
	}
	if created.Prescription.DerivationStatus != prescription.DerivationFailed {
		t.Errorf("expected failed derivation, got %q", created.Prescription.DerivationStatus)
	}

	var reminders []reminder.Reminder
	s.do(http.MethodGet, "/web/api/reminders", patient, "", &reminders)
	if len(reminders) != 0 {
		t.Errorf("expected no reminders, got %d", len(reminders))
	}

	var qr map[string]string
	if code := s.do(http.MethodGet, "/web/api/latest-qr", patient, "", &qr); code != http.StatusOK {
		t.Fatalf("latest-qr: status %d", code)
	}
	if !strings.HasPrefix(qr["qrCodeUrl"], "data:image/png;base64,") {
		t.Errorf("unexpected qr code url %.40s", qr["qrCodeUrl"])
	}
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	var health map[string]string
	if code := s.do(http.MethodGet, "/health", "", "", &health); code != http.StatusOK || health["version"] != version {
		t.Errorf("unexpected /health: %d %v", code, health)
	}

	var dbHealth map[string]any
	if code := s.do(http.MethodGet, "/health/db", "", "", &dbHealth); code != http.StatusOK || dbHealth["status"] != "healthy" {
		t.Errorf("unexpected /health/db: %d %v", code, dbHealth)
	}
}

func TestServer_ErrorBodies(t *testing.T) {
	s := newTestServer(t)

	var body map[string]string
	if code := s.do(http.MethodGet, "/web/api/reminders", "", "", &body); code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
	if body["message"] != "Access Denied. No token provided." {
		t.Errorf("unexpected message %q", body["message"])
	}

	s.doctors.fail = errors.New("pq: connection to 10.0.0.5 refused")
	body = nil
	if code := s.do(http.MethodGet, "/web/api/profile?email=house@example.com", "", "", &body); code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", code)
	}
	if body["message"] != "Internal server error" {
		t.Errorf("internal error text leaked: %q", body["message"])
	}
}

func TestServer_LoginFailureIsGeneric(t *testing.T) {
	s := newTestServer(t)
	s.signup("pat", "pat@example.com", "patient")

	var wrongPass, unknown map[string]string
	c1 := s.do(http.MethodPost, "/web/api/login", "", `{"email":"pat@example.com","password":"nope-nope"}`, &wrongPass)
	c2 := s.do(http.MethodPost, "/web/api/login", "", `{"email":"ghost@example.com","password":"nope-nope"}`, &unknown)
	if c1 != c2 || wrongPass["message"] != unknown["message"] {
		t.Errorf("login failures differ: %d %v vs %d %v", c1, wrongPass, c2, unknown)
	}
}

func TestLatestPrescriptions_PassesNotFoundThrough(t *testing.T) {
	repo := &memPrescriptions{}
	src := latestPrescriptions{repo: repo}

	if _, err := src.LatestFor(context.Background(), "nobody@example.com"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ctx := context.Background()
	_ = repo.Create(ctx, &prescription.Prescription{PatientEmail: "p@example.com", Medicines: "A", Schedule: "1"})
	_ = repo.Create(ctx, &prescription.Prescription{PatientEmail: "p@example.com", Medicines: "B,C", Schedule: "1,2"})

	got, err := src.LatestFor(ctx, "p@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Medicines != "B,C" || got.Schedule != "1,2" || got.PrescriptionID == uuid.Nil {
		t.Errorf("unexpected source: %+v", got)
	}
}
