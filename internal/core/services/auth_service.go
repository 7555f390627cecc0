package services

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils"
)

// AuthConfig carries the single operator account and token settings.
type AuthConfig struct {
	OperatorUsername     string
	OperatorPasswordHash string
	JWTSecret            string
	JWTIssuer            string
	JWTExpiry            time.Duration
}

// authService implements portssvc.AuthSvc
type authService struct {
	BaseService
	cfg AuthConfig
}

var _ portssvc.AuthSvc = (*authService)(nil)

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthConfig) portssvc.AuthSvc {
	return &authService{cfg: cfg}
}

// Login checks the operator credentials and issues a JWT.
func (s *authService) Login(ctx context.Context, username, password string) (*domain.AuthToken, error) {
	if s.cfg.OperatorPasswordHash == "" {
		s.GetLogger(ctx).Warn("Login attempted but no operator password hash is configured")
		return nil, apperrors.ErrUnauthorized
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.OperatorUsername)) == 1
	passOK := utils.CheckPasswordHash(password, s.cfg.OperatorPasswordHash)
	if !userOK || !passOK {
		s.GetLogger(ctx).Warn("Invalid operator credentials", slog.String("username", username))
		return nil, apperrors.ErrUnauthorized
	}

	token, expiresAt, err := utils.IssueOperatorToken(username, s.cfg.JWTSecret, s.cfg.JWTIssuer, time.Now(), s.cfg.JWTExpiry)
	if err != nil {
		s.LogError(ctx, err, "Failed to sign token")
		return nil, err
	}
	return &domain.AuthToken{Token: token, Subject: username, ExpiresAt: expiresAt}, nil
}
