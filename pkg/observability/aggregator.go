package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/becas/pkg/domain"
)

// Aggregate combines multiple hook sets into one. Callbacks run in the given order.
func Aggregate(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var turn []func(context.Context, *domain.TurnEvent)
	var extraction []func(context.Context, *domain.ExtractionEvent)
	var search []func(context.Context, *domain.SearchEvent)
	for _, h := range hooks {
		if h.OnTurn != nil {
			turn = append(turn, h.OnTurn)
		}
		if h.OnExtraction != nil {
			extraction = append(extraction, h.OnExtraction)
		}
		if h.OnSearch != nil {
			search = append(search, h.OnSearch)
		}
	}

	var out domain.LifecycleHooks
	if len(turn) > 0 {
		out.OnTurn = func(ctx context.Context, e *domain.TurnEvent) {
			for _, fn := range turn {
				fn(ctx, e)
			}
		}
	}
	if len(extraction) > 0 {
		out.OnExtraction = func(ctx context.Context, e *domain.ExtractionEvent) {
			for _, fn := range extraction {
				fn(ctx, e)
			}
		}
	}
	if len(search) > 0 {
		out.OnSearch = func(ctx context.Context, e *domain.SearchEvent) {
			for _, fn := range search {
				fn(ctx, e)
			}
		}
	}
	return out
}

// AuditLog returns hooks that log every turn, extraction and search.
func AuditLog(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "turn_failed", "session_id", e.SessionID, "from", e.From, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "turn",
				"session_id", e.SessionID,
				"from", e.From,
				"to", e.To,
				"acts", e.Acts,
				"duration", e.Duration,
			)
		},
		OnExtraction: func(ctx context.Context, e *domain.ExtractionEvent) {
			if e.Failed {
				logger.WarnContext(ctx, "extraction_failed", "session_id", e.SessionID, "mode", e.Mode)
			}
		},
		OnSearch: func(ctx context.Context, e *domain.SearchEvent) {
			logger.InfoContext(ctx, "search", "session_id", e.SessionID, "results", e.Results)
		},
	}
}
