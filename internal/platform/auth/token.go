package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of an issued token. There is no refresh.
const TokenTTL = time.Hour

// signingMethod is the only algorithm tokens are issued with or accepted under.
var signingMethod = jwt.SigningMethodHS384

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("token signing secret is empty")
)

// Claims is the JWT payload. userType keeps the wire name the web client reads.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  Role   `json:"userType"`
}

// Identity is the verified caller attached to a request by the auth guard.
type Identity struct {
	SubjectID string `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"userType"`
}

// TokenIssuer mints tokens for an authenticated account.
type TokenIssuer interface {
	Issue(subjectID, email string, role Role) (string, error)
}

// TokenVerifier validates a token string and returns its identity.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// TokenService issues and verifies HS384 tokens. It holds no mutable state
// and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret []byte) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &TokenService{secret: secret, ttl: TokenTTL, now: time.Now}, nil
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

func (s *TokenService) Issue(subjectID, email string, role Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("issue token: invalid role %q", role)
	}
	issuedAt := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
		Email: email,
		Role:  role,
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) Verify(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return &Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}
