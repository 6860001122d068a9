package disposition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// LogSearch records a standards-library search. The search term is filed
// in the batch column.
func (s *Service) LogSearch(ctx context.Context, actor domain.Actor, term string, count, viewport int) {
	ctx, cancel := s.detached(ctx)
	defer cancel()

	result := domain.ResultNoResults
	if count > 0 {
		result = fmt.Sprintf("%d Matches", count)
	}

	e := s.entry(actor, domain.AuditActionDatabaseSearch, strings.TrimSpace(term), result, viewport)
	if _, err := s.audit.Append(ctx, e); err != nil {
		s.log.ErrorContext(ctx, "search log append failed",
			slog.String("term", e.BatchRef),
			slog.String("error", err.Error()),
		)
	}
}
