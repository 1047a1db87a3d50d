// README: Catalog service keeps the live rule snapshot and guards rule saves.
package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"luxride/internal/metrics"
)

type RuleStore interface {
	ListRules(ctx context.Context) ([]Rule, error)
	// SaveRule runs check against the stored rules sharing r's vehicle and
	// service, atomically with the write.
	SaveRule(ctx context.Context, r *Rule, check func(existing []Rule) error) error
}

type CatalogService struct {
	store   RuleStore
	logger  *slog.Logger
	current atomic.Pointer[Catalog]
}

func NewCatalogService(store RuleStore, logger *slog.Logger) *CatalogService {
	s := &CatalogService{store: store, logger: logger}
	s.current.Store(NewCatalog(nil))
	return s
}

// Catalog returns the current snapshot. A snapshot is never mutated after it is published.
func (s *CatalogService) Catalog() *Catalog {
	return s.current.Load()
}

func (s *CatalogService) Reload(ctx context.Context) error {
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("list pricing rules: %w", err)
	}
	cat := NewCatalog(rules)
	for id, fault := range cat.Faults() {
		s.logger.ErrorContext(ctx, "pricing rule misconfigured", "rule_id", id, "error", fault)
	}
	s.current.Store(cat)
	metrics.CatalogRules.Set(float64(cat.Len()))
	s.logger.InfoContext(ctx, "pricing catalog loaded", "rules", cat.Len())
	return nil
}

// Save validates r, rejects it when it would overlap another active rule,
// persists it and republishes the catalog.
func (s *CatalogService) Save(ctx context.Context, r Rule) (Rule, error) {
	if err := ValidateRule(r); err != nil {
		return Rule{}, err
	}
	overlap := func(existing []Rule) error {
		return NewCatalog(existing).CheckOverlap(r)
	}
	if err := s.store.SaveRule(ctx, &r, overlap); err != nil {
		return Rule{}, fmt.Errorf("save pricing rule: %w", err)
	}
	if err := s.Reload(ctx); err != nil {
		s.logger.WarnContext(ctx, "pricing catalog reload after save failed", "rule_id", r.ID, "error", err)
	}
	return r, nil
}

func (s *CatalogService) RunRefresher(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil {
				s.logger.WarnContext(ctx, "pricing catalog refresh failed", "error", err)
			}
		}
	}
}
