// Package auth issues and verifies the bearer tokens that guard the HTTP API.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
)

// Token is a freshly signed bearer token.
type Token struct {
	Value     string    `json:"token" yaml:"token"`
	Subject   string    `json:"subject" yaml:"subject"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

type UseCase struct {
	secret []byte
	issuer string
	now    func() time.Time
	logger *zap.Logger
}

func New(secret, issuer string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
		logger: logger,
	}
}

// Enabled reports whether a signing secret is configured.
func (uc *UseCase) Enabled() bool {
	return len(uc.secret) > 0
}

// Issue signs an HS256 token for subject valid for ttl.
func (uc *UseCase) Issue(subject string, ttl time.Duration) (Token, error) {
	if !uc.Enabled() {
		return Token{}, domain.NewError(domain.ErrCodeInvalid, "JWT_SECRET is not configured")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Token{}, domain.NewValidationError([]domain.FieldError{{Field: "subject", Reason: "must not be empty"}})
	}
	if ttl <= 0 {
		return Token{}, domain.NewValidationError([]domain.FieldError{{Field: "ttl", Reason: "must be positive"}})
	}

	now := uc.now()
	expires := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    uc.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.secret)
	if err != nil {
		return Token{}, domain.WrapError(domain.ErrCodeInternal, "sign token", err)
	}
	uc.logger.Info("token issued", zap.String("subject", subject), zap.Time("expires_at", expires))
	return Token{Value: signed, Subject: subject, ExpiresAt: expires}, nil
}

// Verify checks the signature, issuer and expiry and returns the subject.
func (uc *UseCase) Verify(raw string) (string, error) {
	if raw == "" {
		return "", domain.ErrUnauthorized
	}
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return uc.secret, nil
	})
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("token invalid")
		}
		return "", domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}
	if uc.issuer != "" && !claims.VerifyIssuer(uc.issuer, true) {
		return "", domain.NewError(domain.ErrCodeUnauthorized, "unexpected token issuer")
	}
	return claims.Subject, nil
}
