package taxonomy

import (
	"context"
	"fmt"
	"testing"
	"time"

	"foodatlas-backend/internal/domain"
	"foodatlas-backend/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func duplicateNode(id, name string, parentID *string, city string, createdAt time.Time) domain.Node {
	return domain.Node{
		ID:        id,
		Name:      name,
		Kind:      domain.KindCategory,
		ParentID:  parentID,
		City:      city,
		Path:      id,
		Source:    SourceManual,
		CreatedAt: createdAt,
	}
}

func TestSweepConvergesDuplicates(t *testing.T) {
	mockRepo := mocks.NewMockNodeRepository()
	sweeper := NewSweeper(mockRepo)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, mockRepo.CreateNode(ctx, duplicateNode("older", "Drinks", nil, "Beijing", base)))
	require.NoError(t, mockRepo.CreateNode(ctx, duplicateNode("newer", "Drinks", nil, "Beijing", base.Add(time.Second))))
	require.NoError(t, mockRepo.CreateNode(ctx, duplicateNode("newest", "Drinks", nil, "Beijing", base.Add(2*time.Second))))
	require.NoError(t, mockRepo.CreateNode(ctx, duplicateNode("unique", "Snacks", nil, "Beijing", base)))

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Scanned)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 2, mockRepo.NodeCount())

	survivor, err := mockRepo.FindNodeByID(ctx, "older")
	require.NoError(t, err)
	require.NotNil(t, survivor, "the oldest duplicate must survive")

	gone, err := mockRepo.FindNodeByID(ctx, "newer")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSweepRerunIsNoOp(t *testing.T) {
	mockRepo := mocks.NewMockNodeRepository()
	sweeper := NewSweeper(mockRepo)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, mockRepo.CreateNode(ctx, duplicateNode("a", "Noodles", nil, "Beijing", base)))
	require.NoError(t, mockRepo.CreateNode(ctx, duplicateNode("b", "Noodles", nil, "Beijing", base.Add(time.Minute))))

	first, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Deleted)

	second, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Scanned)
	assert.Equal(t, 0, second.Deleted)
}

func TestSweepRespectsCityPartitions(t *testing.T) {
	mockRepo := mocks.NewMockNodeRepository()
	sweeper := NewSweeper(mockRepo)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, mockRepo.CreateNode(ctx, duplicateNode("bj", "Dumplings", nil, "Beijing", base)))
	require.NoError(t, mockRepo.CreateNode(ctx, duplicateNode("sh", "Dumplings", nil, "Shanghai", base.Add(time.Second))))

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Deleted, "same name in different cities is not a duplicate")
	assert.Equal(t, 2, mockRepo.NodeCount())
}

func TestSweepTiebreakIsDeterministic(t *testing.T) {
	mockRepo := mocks.NewMockNodeRepository()
	sweeper := NewSweeper(mockRepo)
	ctx := context.Background()

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, mockRepo.CreateNode(ctx, duplicateNode("id-b", "Hotpot", nil, "Beijing", at)))
	require.NoError(t, mockRepo.CreateNode(ctx, duplicateNode("id-a", "Hotpot", nil, "Beijing", at)))

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)

	survivor, err := mockRepo.FindNodeByID(ctx, "id-a")
	require.NoError(t, err)
	assert.NotNil(t, survivor, "equal timestamps break ties on the smaller id")
}

// Racing ensures can insert the same identity twice; after a sweep the
// service resolves the identity to the surviving node again.
func TestSweepAfterEnsureRace(t *testing.T) {
	mockRepo := mocks.NewMockNodeRepository()
	service := NewService(mockRepo)
	sweeper := NewSweeper(mockRepo)
	ctx := context.Background()

	// Simulate the race by writing the second copy directly, bypassing
	// the identity check the service would have performed.
	winner, err := service.EnsureCategory(ctx, "Seafood", nil, "Beijing")
	require.NoError(t, err)

	racer := duplicateNode("race-copy", "Seafood", nil, "Beijing", winner.CreatedAt.Add(time.Millisecond))
	require.NoError(t, mockRepo.CreateNode(ctx, racer))

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)

	resolved, err := service.EnsureCategory(ctx, "Seafood", nil, "Beijing")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, resolved.ID)
	assert.Equal(t, 1, mockRepo.NodeCount())
}

func TestSweepScanError(t *testing.T) {
	mockRepo := mocks.NewMockNodeRepository()
	sweeper := NewSweeper(mockRepo)

	mockRepo.SetError("ScanNodes", fmt.Errorf("provisioned throughput exceeded"))

	_, err := sweeper.Run(context.Background())
	require.Error(t, err)
}
