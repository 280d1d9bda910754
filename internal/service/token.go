package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coursehub/course-online-server/internal/config"
	"github.com/coursehub/course-online-server/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification failures. They are distinct here so they can be logged,
// and collapse to a single rejection at the HTTP boundary.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// Identity is the request-scoped result of a verified token.
type Identity struct {
	SubjectID string     `json:"subject_id"`
	Role      model.Role `json:"role"`
}

// UserID returns the subject as a numeric user id.
func (i Identity) UserID() (int, error) {
	return strconv.Atoi(strings.TrimSpace(i.SubjectID))
}

// Claims extends JWT registered claims with the role embedded at issuance.
// The role claim is informational; authorization re-reads the user store.
type Claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

// TokenService issues and verifies HS256 bearer tokens. It holds no state
// beyond the secret and the expiry window.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService from the JWT settings in cfg.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		expiry: cfg.JWTExpiry,
		now:    time.Now,
	}
}

// WithClock returns a copy of s that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs a token for subjectID carrying role.
func (s *TokenService) Issue(subjectID string, role model.Role) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the embedded identity.
func (s *TokenService) Verify(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrTokenMalformed
	}

	return &Identity{SubjectID: claims.Subject, Role: claims.Role}, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
