package taxonomy

import (
	"context"
	"testing"

	"foodatlas-backend/internal/domain"
	"foodatlas-backend/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDataset() []SeedCategory {
	return []SeedCategory{
		{
			Name: "Drinks & Beverages",
			Children: []SeedCategory{
				{
					Name: "Coffee",
					Items: []SeedItem{
						{Name: "Espresso", Vendors: []domain.Vendor{
							{Name: "Cafe Luna", URL: "https://cafeluna.example.com"},
						}},
					},
				},
			},
		},
		{
			Name: "Arabic Foods",
			Items: []SeedItem{
				{Name: "Hummus"},
				{Name: "Falafel"},
			},
		},
	}
}

func TestSeederApply(t *testing.T) {
	mockRepo := mocks.NewMockNodeRepository()
	service := NewService(mockRepo)
	seeder := NewSeeder(service)
	ctx := context.Background()

	result, err := seeder.Apply(ctx, seedDataset(), "Beijing")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Categories)
	assert.Equal(t, 3, result.Items)
	assert.Equal(t, 6, mockRepo.NodeCount())

	t.Run("ItemsCarrySeedProvenance", func(t *testing.T) {
		item, err := mockRepo.FindItemByName(ctx, "Espresso", "Beijing")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, SourceSeed, item.Source)
		require.Len(t, item.Vendors, 1)
		assert.Equal(t, "Cafe Luna", item.Vendors[0].Name)
	})

	t.Run("ItemsDirectlyUnderRootCategory", func(t *testing.T) {
		item, err := mockRepo.FindItemByName(ctx, "Hummus", "Beijing")
		require.NoError(t, err)
		require.NotNil(t, item)

		entries, err := service.ResolvePath(ctx, item)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Arabic Foods", entries[0].Name)
	})

	t.Run("BrowseSeesSeededTree", func(t *testing.T) {
		roots, err := service.ListRootCategories(ctx, "Beijing")
		require.NoError(t, err)
		assert.Len(t, roots, 2)
	})
}

func TestSeederRerunIsIdempotent(t *testing.T) {
	mockRepo := mocks.NewMockNodeRepository()
	seeder := NewSeeder(NewService(mockRepo))
	ctx := context.Background()

	_, err := seeder.Apply(ctx, seedDataset(), "Beijing")
	require.NoError(t, err)
	before := mockRepo.NodeCount()

	result, err := seeder.Apply(ctx, seedDataset(), "Beijing")
	require.NoError(t, err)

	assert.Equal(t, before, mockRepo.NodeCount(), "rerunning the seed must not create duplicates")
	assert.Equal(t, 3, result.Categories)
	assert.Equal(t, 3, result.Items)
}

func TestSeederDoesNotOverwriteExistingItems(t *testing.T) {
	mockRepo := mocks.NewMockNodeRepository()
	service := NewService(mockRepo)
	seeder := NewSeeder(service)
	ctx := context.Background()

	manual, err := service.AddItem(ctx, "Espresso", "Drinks & Beverages", "Coffee", "Beijing",
		[]domain.Vendor{{Name: "Corner Cafe", URL: "https://corner.example.com"}})
	require.NoError(t, err)

	_, err = seeder.Apply(ctx, seedDataset(), "Beijing")
	require.NoError(t, err)

	item, err := mockRepo.FindNodeByID(ctx, manual.ID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, SourceManual, item.Source)
	require.Len(t, item.Vendors, 1)
	assert.Equal(t, "Corner Cafe", item.Vendors[0].Name)
}

func TestSeederInvalidDataset(t *testing.T) {
	mockRepo := mocks.NewMockNodeRepository()
	seeder := NewSeeder(NewService(mockRepo))

	_, err := seeder.Apply(context.Background(), []SeedCategory{{Name: "   "}}, "Beijing")
	require.Error(t, err)
}
