package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// LoginInput holds the role picked on the terminal and the PIN typed for it.
type LoginInput struct {
	RoleID string
	PIN    string
}

// Validate validates the login input.
func (i LoginInput) Validate() error {
	var errs []domain.FieldError

	if i.RoleID == "" {
		errs = append(errs, domain.FieldError{Field: "role", Message: "required"})
	}
	if i.PIN == "" {
		errs = append(errs, domain.FieldError{Field: "pin", Message: "required"})
	} else if len(i.PIN) > 64 {
		errs = append(errs, domain.FieldError{Field: "pin", Message: "too long"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// LoginResult is returned on a successful sign-in.
type LoginResult struct {
	AccessToken string       `json:"accessToken"`
	Actor       domain.Actor `json:"actor"`
}

// Login checks the PIN for the role and issues an access token.
// Returns ErrUnauthorized for an unknown role or a wrong PIN.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.RoleID = strings.TrimSpace(input.RoleID)

	if err := input.Validate(); err != nil {
		return nil, err
	}

	idx, ok := s.byID[input.RoleID]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	r := s.roles[idx]

	if err := bcrypt.CompareHashAndPassword(r.pinHash, []byte(input.PIN)); err != nil {
		s.log.WarnContext(ctx, "login rejected", slog.String("role", r.ID))
		return nil, domain.ErrUnauthorized
	}

	token, err := s.jwt.GenerateAccessToken(r.ID, r.Label)
	if err != nil {
		return nil, fmt.Errorf("auth.Login generate token: %w", err)
	}

	s.log.InfoContext(ctx, "role signed in", slog.String("role", r.ID))

	return &LoginResult{
		AccessToken: token,
		Actor:       domain.Actor{Label: r.Label, RoleID: r.ID},
	}, nil
}

// ValidateToken resolves an access token into the actor it was issued to.
func (s *Service) ValidateToken(ctx context.Context, token string) (domain.Actor, error) {
	roleID, label, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if _, ok := s.byID[roleID]; !ok {
		return domain.Actor{}, fmt.Errorf("%w: unknown role %q", domain.ErrUnauthorized, roleID)
	}
	return domain.Actor{Label: label, RoleID: roleID}, nil
}
