package auth

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/2400030292/MedGuard-AI/internal/config"
)

//go:embed data/roles.yaml
var defaultRoles []byte

// jwtManager defines the token operations needed by the auth service.
type jwtManager interface {
	GenerateAccessToken(roleID, label string) (string, error)
	ValidateAccessToken(token string) (roleID, label string, err error)
}

// Role is a sign-in role offered on the terminal login screen.
type Role struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type roleDef struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	PIN   string `yaml:"pin"`
}

type role struct {
	Role
	pinHash []byte
}

// Service implements role sign-in.
type Service struct {
	log   *slog.Logger
	jwt   jwtManager
	roles []role
	byID  map[string]int
}

// NewService loads the role table (cfg.RolesFile or the built-in one) and
// hashes every PIN with cfg.BcryptCost.
func NewService(logger *slog.Logger, jwt jwtManager, cfg config.AuthConfig) (*Service, error) {
	raw := defaultRoles
	if cfg.RolesFile != "" {
		b, err := os.ReadFile(cfg.RolesFile)
		if err != nil {
			return nil, fmt.Errorf("auth: read roles file: %w", err)
		}
		raw = b
	}

	var defs []roleDef
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("auth: parse roles: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("auth: no roles defined")
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	s := &Service{
		log:  logger.With("service", "auth"),
		jwt:  jwt,
		byID: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if d.ID == "" || d.PIN == "" {
			return nil, fmt.Errorf("auth: role %q: id and pin are required", d.ID)
		}
		if _, dup := s.byID[d.ID]; dup {
			return nil, fmt.Errorf("auth: duplicate role %q", d.ID)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(d.PIN), cost)
		if err != nil {
			return nil, fmt.Errorf("auth: hash pin for %q: %w", d.ID, err)
		}
		label := d.Label
		if label == "" {
			label = d.ID
		}
		s.byID[d.ID] = len(s.roles)
		s.roles = append(s.roles, role{Role: Role{ID: d.ID, Label: label}, pinHash: hash})
	}

	return s, nil
}

// Roles returns the selectable roles in table order.
func (s *Service) Roles() []Role {
	out := make([]Role, len(s.roles))
	for i, r := range s.roles {
		out[i] = r.Role
	}
	return out
}
