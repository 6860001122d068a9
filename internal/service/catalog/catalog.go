// Package catalog serves the drug standards library, supplier ratings and
// batch passports.
package catalog

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/pkg/ctxutil"
)

// MinLoggedTerm is the shortest search term written to the activity log.
const MinLoggedTerm = 3

//go:embed data/*.yaml
var dataFS embed.FS

type searchLogger interface {
	LogSearch(ctx context.Context, actor domain.Actor, term string, count, viewport int)
}

// Service answers standards and passport lookups.
type Service struct {
	standards []domain.DrugStandard
	suppliers []domain.Supplier
	passports []domain.Passport
	searches  searchLogger
	log       *slog.Logger
}

// NewService loads the embedded reference data. searches may be nil.
func NewService(log *slog.Logger, searches searchLogger) (*Service, error) {
	var s Service
	if err := readYAML("data/standards.yaml", &s.standards); err != nil {
		return nil, err
	}
	if err := readYAML("data/suppliers.yaml", &s.suppliers); err != nil {
		return nil, err
	}
	if err := checkSuppliers(s.suppliers); err != nil {
		return nil, err
	}
	if err := readYAML("data/passports.yaml", &s.passports); err != nil {
		return nil, err
	}
	if len(s.passports) == 0 {
		return nil, fmt.Errorf("catalog: no passports defined")
	}
	s.searches = searches
	s.log = log.With("service", "catalog")
	return &s, nil
}

func readYAML(name string, dst any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", name, err)
	}
	return nil
}

// Standards returns the whole library.
func (s *Service) Standards() []domain.DrugStandard {
	return slices.Clone(s.standards)
}

// Search returns standards whose name contains term, ignoring case. An
// empty term returns the whole library. Terms of MinLoggedTerm characters
// or more are recorded in the activity log.
func (s *Service) Search(ctx context.Context, term string) []domain.DrugStandard {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.Standards()
	}

	needle := strings.ToLower(term)
	var out []domain.DrugStandard
	for _, d := range s.standards {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			out = append(out, d)
		}
	}

	if s.searches != nil && len([]rune(term)) >= MinLoggedTerm {
		roleID, label, _ := ctxutil.ActorFromCtx(ctx)
		s.searches.LogSearch(ctx, domain.Actor{Label: label, RoleID: roleID}, term, len(out), ctxutil.ViewportWidthFromCtx(ctx))
	}

	s.log.DebugContext(ctx, "standards searched",
		slog.String("term", term),
		slog.Int("matches", len(out)),
	)
	return out
}

// Standard returns one library entry by ID.
func (s *Service) Standard(id string) (domain.DrugStandard, error) {
	i := slices.IndexFunc(s.standards, func(d domain.DrugStandard) bool { return strings.EqualFold(d.ID, id) })
	if i < 0 {
		return domain.DrugStandard{}, fmt.Errorf("standard %s: %w", id, domain.ErrNotFound)
	}
	return s.standards[i], nil
}

// Suppliers returns the supplier ratings, optionally only those with status.
// An empty status returns every supplier.
func (s *Service) Suppliers(status domain.SupplierStatus) ([]domain.Supplier, error) {
	if status != "" && !status.IsValid() {
		return nil, domain.NewValidationError("status", "must be Trusted, Safe or Risky")
	}
	out := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		if status == "" || sup.Status == status {
			out = append(out, cloneSupplier(sup))
		}
	}
	return out, nil
}

// Supplier returns one supplier rating by ID.
func (s *Service) Supplier(id int) (domain.Supplier, error) {
	i := slices.IndexFunc(s.suppliers, func(sup domain.Supplier) bool { return sup.ID == id })
	if i < 0 {
		return domain.Supplier{}, fmt.Errorf("supplier %d: %w", id, domain.ErrNotFound)
	}
	return cloneSupplier(s.suppliers[i]), nil
}

func cloneSupplier(sup domain.Supplier) domain.Supplier {
	sup.History = slices.Clone(sup.History)
	return sup
}

// checkSuppliers rejects ratings whose parts disagree with their score.
func checkSuppliers(suppliers []domain.Supplier) error {
	seen := make(map[int]bool, len(suppliers))
	for _, sup := range suppliers {
		switch {
		case seen[sup.ID]:
			return fmt.Errorf("catalog: supplier %d defined twice", sup.ID)
		case !sup.Status.IsValid():
			return fmt.Errorf("catalog: supplier %d: unknown status %q", sup.ID, sup.Status)
		case sup.Breakdown.Total() != sup.Score:
			return fmt.Errorf("catalog: supplier %d: breakdown adds up to %d, score is %d", sup.ID, sup.Breakdown.Total(), sup.Score)
		case len(sup.History) == 0 || sup.History[len(sup.History)-1] != sup.Score:
			return fmt.Errorf("catalog: supplier %d: history must end with the score", sup.ID)
		}
		seen[sup.ID] = true
	}
	return nil
}

// Passport returns the provenance record for a batch, or the reference
// record when the batch has none of its own.
func (s *Service) Passport(_ context.Context, batchRef string) (domain.Passport, error) {
	p := s.passports[0]
	if i := slices.IndexFunc(s.passports, func(p domain.Passport) bool { return strings.EqualFold(p.BatchRef, batchRef) }); i >= 0 {
		p = s.passports[i]
	}
	p.Timeline = slices.Clone(p.Timeline)
	return p, nil
}
