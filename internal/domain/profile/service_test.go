package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/hipaa"
	"github.com/medirx/medirx/internal/platform/validate"
)

// -- Mock Repositories --

type mockDoctorRepo struct {
	mu    sync.Mutex
	items map[string]*DoctorProfile
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{items: make(map[string]*DoctorProfile)}
}

func (m *mockDoctorRepo) Create(_ context.Context, p *DoctorProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.Email]; ok {
		return fmt.Errorf("insert doctor profile: %w", apperr.ErrDuplicate)
	}
	p.ID = uuid.New()
	cp := *p
	m.items[p.Email] = &cp
	return nil
}

func (m *mockDoctorRepo) GetByEmail(_ context.Context, email string) (*DoctorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[email]
	if !ok {
		return nil, fmt.Errorf("get doctor profile: %w", apperr.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *mockDoctorRepo) Update(_ context.Context, p *DoctorProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.Email]; !ok {
		return apperr.ErrNotFound
	}
	cp := *p
	m.items[p.Email] = &cp
	return nil
}

type mockPatientRepo struct {
	mu    sync.Mutex
	items map[string]*PatientProfile
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{items: make(map[string]*PatientProfile)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *PatientProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.Email]; ok {
		return fmt.Errorf("insert patient profile: %w", apperr.ErrDuplicate)
	}
	p.ID = uuid.New()
	cp := *p
	m.items[p.Email] = &cp
	return nil
}

func (m *mockPatientRepo) GetByEmail(_ context.Context, email string) (*PatientProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[email]
	if !ok {
		return nil, fmt.Errorf("get patient profile: %w", apperr.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *PatientProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.Email]; !ok {
		return apperr.ErrNotFound
	}
	cp := *p
	m.items[p.Email] = &cp
	return nil
}

func expectKind(t *testing.T, err error, kind apperr.Kind, msg string) {
	t.Helper()
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %T (%v)", err, err)
	}
	if ae.Kind != kind {
		t.Errorf("expected kind %v, got %v", kind, ae.Kind)
	}
	if msg != "" && ae.Message != msg {
		t.Errorf("expected message %q, got %q", msg, ae.Message)
	}
}

func ptr(s string) *string { return &s }

// -- Doctor profiles --

func newDoctorService() (*DoctorService, *mockDoctorRepo) {
	repo := newMockDoctorRepo()
	return NewDoctorService(repo, validate.New(), zerolog.Nop()), repo
}

func validDoctor() CreateDoctorRequest {
	return CreateDoctorRequest{
		Email:          "house@example.com",
		Name:           "Gregory House",
		Specialization: "Diagnostics",
		Hospital:       "Princeton-Plainsboro",
		ContactNumber:  "5550100",
	}
}

func TestDoctorService_CreateAndGet(t *testing.T) {
	svc, _ := newDoctorService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validDoctor())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Bio != "" || created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("unexpected defaults: %+v", created)
	}

	got, err := svc.Get(ctx, "house@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != created.ID || got.Hospital != "Princeton-Plainsboro" {
		t.Errorf("unexpected profile: %+v", got)
	}
}

func TestDoctorService_CreateErrors(t *testing.T) {
	svc, _ := newDoctorService()
	ctx := context.Background()

	for _, mutate := range []func(*CreateDoctorRequest){
		func(r *CreateDoctorRequest) { r.Email = "" },
		func(r *CreateDoctorRequest) { r.Name = "" },
		func(r *CreateDoctorRequest) { r.Specialization = "" },
		func(r *CreateDoctorRequest) { r.Hospital = "" },
		func(r *CreateDoctorRequest) { r.ContactNumber = "" },
	} {
		req := validDoctor()
		mutate(&req)
		_, err := svc.Create(ctx, req)
		expectKind(t, err, apperr.KindValidation, "All fields are required except bio")
	}

	if _, err := svc.Create(ctx, validDoctor()); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Create(ctx, validDoctor())
	expectKind(t, err, apperr.KindConflict, "Doctor profile already exists")
}

func TestDoctorService_Get_Errors(t *testing.T) {
	svc, _ := newDoctorService()
	_, err := svc.Get(context.Background(), "")
	expectKind(t, err, apperr.KindValidation, "Doctor email is required")
	_, err = svc.Get(context.Background(), "nobody@example.com")
	expectKind(t, err, apperr.KindNotFound, "Doctor not found")
}

func TestDoctorService_UpdatePartial(t *testing.T) {
	svc, repo := newDoctorService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, validDoctor())

	later := created.UpdatedAt.Add(time.Hour)
	svc.now = func() time.Time { return later }

	updated, err := svc.Update(ctx, "house@example.com", DoctorPatch{Hospital: ptr("Mercy"), Bio: ptr("Misanthrope")})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Hospital != "Mercy" || updated.Bio != "Misanthrope" {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.Name != "Gregory House" || updated.Specialization != "Diagnostics" {
		t.Errorf("unpatched fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(later) || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("unexpected timestamps: created=%v updated=%v", updated.CreatedAt, updated.UpdatedAt)
	}
	if repo.items["house@example.com"].Hospital != "Mercy" {
		t.Error("update not persisted")
	}

	_, err = svc.Update(ctx, "nobody@example.com", DoctorPatch{Name: ptr("x")})
	expectKind(t, err, apperr.KindNotFound, "Doctor not found")
}

// -- Patient profiles --

var testPHIKey = strings.Repeat("5a", 32)

func newPatientService(t *testing.T) (*PatientService, *mockPatientRepo) {
	t.Helper()
	phi, err := hipaa.NewFieldEncryptor(testPHIKey, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	repo := newMockPatientRepo()
	return NewPatientService(repo, phi, validate.New(), zerolog.Nop()), repo
}

func validPatient() CreatePatientRequest {
	return CreatePatientRequest{
		Name:          "Pat Doe",
		Email:         "pat@example.com",
		ContactNumber: "5550101234",
		PaymentInfo: PaymentInfoRequest{
			CardNumber:     "4111111111111111",
			ExpiryDate:     "09/28",
			CVV:            "123",
			BillingAddress: "1 Main St",
		},
	}
}

func TestPatientService_CreateSealsBilling(t *testing.T) {
	svc, repo := newPatientService(t)

	v, err := svc.Create(context.Background(), validPatient())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v.PaymentInfo.CardNumber != "************1111" {
		t.Errorf("expected masked card number, got %q", v.PaymentInfo.CardNumber)
	}
	if v.ID == uuid.Nil {
		t.Error("expected the view to carry the stored id")
	}

	stored := repo.items["pat@example.com"]
	if !hipaa.IsSealed(stored.PaymentInfo.CardNumber) || !hipaa.IsSealed(stored.PaymentInfo.CVV) {
		t.Errorf("billing fields must be sealed at rest: %+v", stored.PaymentInfo)
	}
	if stored.PaymentInfo.ExpiryDate != "09/28" || stored.PaymentInfo.BillingAddress != "1 Main St" {
		t.Errorf("non-sensitive billing fields should be stored as given: %+v", stored.PaymentInfo)
	}
}

func TestPatientService_GetOpensAndMasks(t *testing.T) {
	svc, _ := newPatientService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, validPatient()); err != nil {
		t.Fatal(err)
	}

	v, err := svc.Get(ctx, "pat@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if v.PaymentInfo.CardNumber != "************1111" {
		t.Errorf("unexpected card number %q", v.PaymentInfo.CardNumber)
	}

	_, err = svc.Get(ctx, "ghost@example.com")
	expectKind(t, err, apperr.KindNotFound, "")
	_, err = svc.Get(ctx, "")
	expectKind(t, err, apperr.KindValidation, "Patient email is required.")
}

func TestPatientService_PlaintextWithoutKey(t *testing.T) {
	repo := newMockPatientRepo()
	svc := NewPatientService(repo, nil, validate.New(), zerolog.Nop())

	if _, err := svc.Create(context.Background(), validPatient()); err != nil {
		t.Fatal(err)
	}
	if got := repo.items["pat@example.com"].PaymentInfo.CardNumber; got != "4111111111111111" {
		t.Errorf("expected plaintext storage without a key, got %q", got)
	}
}

func TestPatientService_CreateValidation(t *testing.T) {
	svc, _ := newPatientService(t)
	tests := []struct {
		name   string
		mutate func(*CreatePatientRequest)
		msg    string
	}{
		{"missing name", func(r *CreatePatientRequest) { r.Name = "" }, "All fields are required except billing address"},
		{"missing cvv", func(r *CreatePatientRequest) { r.PaymentInfo.CVV = "" }, "All fields are required except billing address"},
		{"bad email", func(r *CreatePatientRequest) { r.Email = "pat.example.com" }, "Invalid email format."},
		{"short phone", func(r *CreatePatientRequest) { r.ContactNumber = "12345" }, "Contact number must be 10 to 15 digits."},
		{"letters in phone", func(r *CreatePatientRequest) { r.ContactNumber = "555010123x" }, "Contact number must be 10 to 15 digits."},
		{"short card", func(r *CreatePatientRequest) { r.PaymentInfo.CardNumber = "411111111111" }, "Card number must be 16 digits."},
		{"bad expiry month", func(r *CreatePatientRequest) { r.PaymentInfo.ExpiryDate = "13/28" }, "Expiry date must be in MM/YY format."},
		{"bad expiry format", func(r *CreatePatientRequest) { r.PaymentInfo.ExpiryDate = "2028-09" }, "Expiry date must be in MM/YY format."},
		{"long cvv", func(r *CreatePatientRequest) { r.PaymentInfo.CVV = "12345" }, "CVV must be 3 or 4 digits."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPatient()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			expectKind(t, err, apperr.KindValidation, tt.msg)
		})
	}
}

func TestPatientService_Duplicate(t *testing.T) {
	svc, _ := newPatientService(t)
	ctx := context.Background()
	svc.Create(ctx, validPatient())

	_, err := svc.Create(ctx, validPatient())
	expectKind(t, err, apperr.KindConflict, "Patient profile already exists")
}

func TestPatientService_Update(t *testing.T) {
	svc, repo := newPatientService(t)
	ctx := context.Background()
	svc.Create(ctx, validPatient())
	before := repo.items["pat@example.com"].PaymentInfo.CVV

	v, err := svc.Update(ctx, "pat@example.com", PatientPatch{
		ContactNumber: ptr("5550109999"),
		PaymentInfo:   &PaymentPatch{CardNumber: ptr("5500000000000004")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.ContactNumber != "5550109999" || v.PaymentInfo.CardNumber != "************0004" {
		t.Errorf("unexpected view: %+v", v)
	}
	if v.Name != "Pat Doe" || v.PaymentInfo.ExpiryDate != "09/28" {
		t.Errorf("unpatched fields changed: %+v", v)
	}

	stored := repo.items["pat@example.com"]
	if !hipaa.IsSealed(stored.PaymentInfo.CardNumber) {
		t.Error("updated card number must be sealed")
	}
	if stored.PaymentInfo.CVV == before {
		t.Error("expected the cvv to be resealed with a fresh nonce")
	}

	_, err = svc.Update(ctx, "pat@example.com", PatientPatch{PaymentInfo: &PaymentPatch{CVV: ptr("12")}})
	expectKind(t, err, apperr.KindValidation, "CVV must be 3 or 4 digits.")
	_, err = svc.Update(ctx, "ghost@example.com", PatientPatch{Name: ptr("x")})
	expectKind(t, err, apperr.KindNotFound, "")
}
