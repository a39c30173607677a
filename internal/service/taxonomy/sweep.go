package taxonomy

import (
	"context"

	"foodatlas-backend/internal/domain"
	"foodatlas-backend/internal/repository"
	appErrors "foodatlas-backend/pkg/errors"
)

// SweepResult reports what a dedup pass did.
type SweepResult struct {
	Scanned int
	Deleted int
}

// Sweeper is the offline deduplication pass. The ensure pattern is
// read-then-write, so racing requests can briefly leave two nodes with
// the same identity triple; the sweep converges each triple back to one
// node. It assumes no concurrent writers.
type Sweeper struct {
	repo repository.NodeRepository
}

// NewSweeper creates a sweeper over the given repository.
func NewSweeper(repo repository.NodeRepository) *Sweeper {
	return &Sweeper{repo: repo}
}

// Run scans every node, groups by the full (name, parent, city) identity
// triple and deletes all but the oldest node of each group. Running it
// again immediately deletes nothing.
func (s *Sweeper) Run(ctx context.Context) (*SweepResult, error) {
	winners := make(map[string]domain.Node)
	var losers []domain.Node
	result := &SweepResult{}

	err := s.repo.ScanNodes(ctx, func(node domain.Node) error {
		result.Scanned++
		key := node.IdentityKey()

		current, exists := winners[key]
		if !exists {
			winners[key] = node
			return nil
		}
		if older(node, current) {
			winners[key] = node
			losers = append(losers, current)
		} else {
			losers = append(losers, node)
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "dedup scan failed")
	}

	for _, loser := range losers {
		if err := s.repo.DeleteNode(ctx, loser.ID); err != nil {
			return nil, appErrors.Wrap(err, "failed to delete duplicate node")
		}
		result.Deleted++
	}
	return result, nil
}

// older picks a deterministic winner: earliest creation, id as tiebreak.
func older(a, b domain.Node) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
