// Package search implements the two-stage search pipeline: exact store
// lookup first, generative fallback on a miss, with explicit save of
// generated results back into the taxonomy.
package search

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"foodatlas-backend/internal/domain"
	"foodatlas-backend/internal/repository"
	"foodatlas-backend/internal/service/llm"
	"foodatlas-backend/internal/service/taxonomy"
	appErrors "foodatlas-backend/pkg/errors"

	"github.com/sony/gobreaker"
)

// Origin values on a search result.
const (
	OriginStore     = "store"
	OriginGenerated = "generated"
)

// Result is the unified response shape for both stages.
type Result struct {
	Origin      string
	Name        string
	Category    string
	Subcategory string
	Vendors     []domain.Vendor
	ItemID      string // set only for store hits
}

// Service defines the interface for search operations.
type Service interface {
	// Search resolves a free-text food name: store first, provider on miss.
	Search(ctx context.Context, name, city string) (*Result, error)

	// SaveGenerated persists a generated result into the taxonomy and
	// returns the item node. Saving the same result twice is idempotent.
	SaveGenerated(ctx context.Context, item domain.GeneratedItem, city string) (*domain.Node, error)
}

// service implements the Service interface.
type service struct {
	repo      repository.NodeRepository
	taxonomy  taxonomy.Service
	generator *llm.Service
	timeout   time.Duration
	breaker   *gobreaker.CircuitBreaker
}

// NewService creates a search service. The provider call is bounded by
// timeout and guarded by a circuit breaker so a flapping provider fails
// fast instead of holding requests open.
func NewService(repo repository.NodeRepository, taxonomyService taxonomy.Service, generator *llm.Service, timeout time.Duration) Service {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generation-provider",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker '%s' state changed from %v to %v", name, from, to)
		},
	})

	return &service{
		repo:      repo,
		taxonomy:  taxonomyService,
		generator: generator,
		timeout:   timeout,
		breaker:   breaker,
	}
}

// Search runs the LOOKUP stage and falls through to GENERATE on a miss.
// A failing store read is logged and still falls through, so one broken
// dependency degrades the answer instead of aborting the request.
func (s *service) Search(ctx context.Context, name, city string) (*Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewValidation("search name cannot be empty")
	}
	if city == "" {
		return nil, appErrors.NewValidation("city cannot be empty")
	}

	item, storeErr := s.repo.FindItemByName(ctx, name, city)
	if storeErr != nil {
		log.Printf("store lookup failed for %q, falling back to generation: %v", name, storeErr)
	}
	if item != nil {
		return s.storeResult(ctx, item), nil
	}

	generated, genErr := s.generate(ctx, name)
	if genErr != nil {
		if storeErr != nil {
			return nil, appErrors.Wrap(storeErr, "store lookup and generation both failed")
		}
		return nil, genErr
	}

	return &Result{
		Origin:      OriginGenerated,
		Name:        generated.Name,
		Category:    generated.Category,
		Subcategory: generated.Subcategory,
		Vendors:     generated.Vendors,
	}, nil
}

// storeResult assembles a FOUND response. Path resolution failures are
// logged, not fatal: the item itself is still a valid answer.
func (s *service) storeResult(ctx context.Context, item *domain.Node) *Result {
	result := &Result{
		Origin:  OriginStore,
		Name:    item.Name,
		Vendors: item.Vendors,
		ItemID:  item.ID,
	}

	entries, err := s.taxonomy.ResolvePath(ctx, item)
	if err != nil {
		log.Printf("failed to resolve ancestry for item %s: %v", item.ID, err)
		return result
	}
	// Root-first chain: category, then subcategory, then the item itself.
	if len(entries) > 1 {
		result.Category = entries[0].Name
	}
	if len(entries) > 2 {
		result.Subcategory = entries[len(entries)-2].Name
	}
	return result
}

// generate invokes the provider through the breaker with a bounded wait.
func (s *service) generate(ctx context.Context, term string) (*domain.GeneratedItem, error) {
	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	value, err := s.breaker.Execute(func() (interface{}, error) {
		return s.generator.GenerateItem(genCtx, term)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, appErrors.NewGeneration("generation provider temporarily unavailable", err)
		}
		return nil, err
	}
	return value.(*domain.GeneratedItem), nil
}

// SaveGenerated writes a generated result through the ensure pipeline:
// category, subcategory nested under it, then the item. All three are
// idempotent, so a double save cannot create duplicates.
func (s *service) SaveGenerated(ctx context.Context, item domain.GeneratedItem, city string) (*domain.Node, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, appErrors.NewValidation("generated result has no name")
	}
	if strings.TrimSpace(item.Category) == "" || strings.TrimSpace(item.Subcategory) == "" {
		return nil, appErrors.NewValidation("generated result has no category or subcategory")
	}

	categoryNode, err := s.taxonomy.EnsureCategory(ctx, item.Category, nil, city)
	if err != nil {
		return nil, err
	}
	subcategoryNode, err := s.taxonomy.EnsureCategory(ctx, item.Subcategory, &categoryNode.ID, city)
	if err != nil {
		return nil, err
	}
	return s.taxonomy.EnsureItem(ctx, item.Name, &subcategoryNode.ID, city, item.Vendors, taxonomy.SourceGenerated)
}
