package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"foodatlas-backend/internal/domain"
	"foodatlas-backend/internal/repository/mocks"
	"foodatlas-backend/internal/service/llm"
	"foodatlas-backend/internal/service/taxonomy"
	appErrors "foodatlas-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *mocks.MockNodeRepository, *llm.MockProvider, taxonomy.Service) {
	t.Helper()
	mockRepo := mocks.NewMockNodeRepository()
	provider := llm.NewMockProvider()
	taxonomyService := taxonomy.NewService(mockRepo)
	service := NewService(mockRepo, taxonomyService, llm.NewService(provider), 5*time.Second)
	return service, mockRepo, provider, taxonomyService
}

func TestSearchStoreHit(t *testing.T) {
	service, _, provider, taxonomyService := newTestService(t)
	ctx := context.Background()

	vendors := []domain.Vendor{{Name: "Cafe Luna", URL: "https://cafeluna.example.com"}}
	_, err := taxonomyService.AddItem(ctx, "Espresso", "Drinks", "Coffee", "Beijing", vendors)
	require.NoError(t, err)

	result, err := service.Search(ctx, "Espresso", "Beijing")
	require.NoError(t, err)

	assert.Equal(t, OriginStore, result.Origin)
	assert.Equal(t, "Espresso", result.Name)
	assert.Equal(t, "Drinks", result.Category)
	assert.Equal(t, "Coffee", result.Subcategory)
	assert.Equal(t, vendors, result.Vendors)
	assert.NotEmpty(t, result.ItemID)
	assert.Equal(t, int64(0), provider.Calls(), "store hit must not invoke the provider")
}

func TestSearchGeneratedFallback(t *testing.T) {
	service, _, provider, _ := newTestService(t)
	ctx := context.Background()

	result, err := service.Search(ctx, "Stinky Tofu", "Beijing")
	require.NoError(t, err)

	assert.Equal(t, OriginGenerated, result.Origin)
	assert.Equal(t, "Stinky Tofu", result.Name)
	assert.NotEmpty(t, result.Category)
	assert.NotEmpty(t, result.Subcategory)
	assert.Empty(t, result.ItemID, "generated results have no store identity")
	assert.Equal(t, int64(1), provider.Calls())
}

// Searching again after an explicit save must come back from the store
// with the same taxonomy placement the generated answer carried.
func TestGeneratedRoundTrip(t *testing.T) {
	service, mockRepo, _, _ := newTestService(t)
	ctx := context.Background()

	generated, err := service.Search(ctx, "Stinky Tofu", "Beijing")
	require.NoError(t, err)
	require.Equal(t, OriginGenerated, generated.Origin)
	assert.Equal(t, 0, mockRepo.NodeCount(), "search alone must not persist anything")

	item, err := service.SaveGenerated(ctx, domain.GeneratedItem{
		Name:        generated.Name,
		Category:    generated.Category,
		Subcategory: generated.Subcategory,
		Vendors:     generated.Vendors,
	}, "Beijing")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 3, mockRepo.NodeCount(), "category, subcategory, item")

	stored, err := service.Search(ctx, "Stinky Tofu", "Beijing")
	require.NoError(t, err)
	assert.Equal(t, OriginStore, stored.Origin)
	assert.Equal(t, generated.Category, stored.Category)
	assert.Equal(t, generated.Subcategory, stored.Subcategory)
	assert.Equal(t, item.ID, stored.ItemID)
}

func TestSaveGeneratedIdempotent(t *testing.T) {
	service, mockRepo, _, _ := newTestService(t)
	ctx := context.Background()

	payload := domain.GeneratedItem{
		Name:        "Stinky Tofu",
		Category:    "Street Food",
		Subcategory: "Fermented",
		Vendors:     []domain.Vendor{{Name: "Night Market", URL: "https://market.example.com"}},
	}

	first, err := service.SaveGenerated(ctx, payload, "Beijing")
	require.NoError(t, err)

	second, err := service.SaveGenerated(ctx, payload, "Beijing")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, mockRepo.NodeCount())
}

func TestSaveGeneratedValidation(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	for name, payload := range map[string]domain.GeneratedItem{
		"MissingName":        {Category: "Drinks", Subcategory: "Tea"},
		"MissingCategory":    {Name: "Pu-erh", Subcategory: "Tea"},
		"MissingSubcategory": {Name: "Pu-erh", Category: "Drinks"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := service.SaveGenerated(ctx, payload, "Beijing")
			require.Error(t, err)
			assert.True(t, appErrors.IsValidation(err))
		})
	}
}

func TestSearchValidation(t *testing.T) {
	service, _, provider, _ := newTestService(t)
	ctx := context.Background()

	t.Run("EmptyName", func(t *testing.T) {
		_, err := service.Search(ctx, "   ", "Beijing")
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("EmptyCity", func(t *testing.T) {
		_, err := service.Search(ctx, "Espresso", "")
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})

	assert.Equal(t, int64(0), provider.Calls())
}

func TestSearchProviderFailure(t *testing.T) {
	service, _, provider, _ := newTestService(t)
	ctx := context.Background()

	provider.Err = fmt.Errorf("upstream returned 500")

	_, err := service.Search(ctx, "Stinky Tofu", "Beijing")
	require.Error(t, err)
	assert.True(t, appErrors.IsGeneration(err))
}

func TestSearchProviderTimeout(t *testing.T) {
	service, _, provider, _ := newTestService(t)
	ctx := context.Background()

	provider.Err = context.DeadlineExceeded

	_, err := service.Search(ctx, "Stinky Tofu", "Beijing")
	require.Error(t, err)
	assert.True(t, appErrors.IsProviderTimeout(err))
	assert.True(t, appErrors.IsGeneration(err))
}

func TestSearchStoreErrorFallsThroughToGeneration(t *testing.T) {
	service, mockRepo, provider, _ := newTestService(t)
	ctx := context.Background()

	mockRepo.SetError("FindItemByName", fmt.Errorf("table unavailable"))

	result, err := service.Search(ctx, "Stinky Tofu", "Beijing")
	require.NoError(t, err, "a broken store read degrades to generation, not failure")
	assert.Equal(t, OriginGenerated, result.Origin)
	assert.Equal(t, int64(1), provider.Calls())
}

func TestSearchStoreAndProviderBothFail(t *testing.T) {
	service, mockRepo, provider, _ := newTestService(t)
	ctx := context.Background()

	mockRepo.SetError("FindItemByName", fmt.Errorf("table unavailable"))
	provider.Err = fmt.Errorf("upstream returned 500")

	_, err := service.Search(ctx, "Stinky Tofu", "Beijing")
	require.Error(t, err)
	assert.True(t, appErrors.IsInternal(err), "the store error is the primary failure")
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	service, _, provider, _ := newTestService(t)
	ctx := context.Background()

	provider.Err = fmt.Errorf("upstream returned 500")

	var lastErr error
	for i := 0; i < 8; i++ {
		_, lastErr = service.Search(ctx, "Stinky Tofu", "Beijing")
		require.Error(t, lastErr)
	}

	assert.True(t, appErrors.IsGeneration(lastErr))
	assert.Equal(t, int64(5), provider.Calls(), "an open breaker stops reaching the provider")
}
