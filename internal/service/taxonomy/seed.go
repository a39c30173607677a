package taxonomy

import (
	"context"

	"foodatlas-backend/internal/domain"
)

// SeedCategory is one category of a seed dataset. Children nest further
// category levels; items hang off whichever level lists them.
type SeedCategory struct {
	Name     string         `json:"name"`
	Children []SeedCategory `json:"children,omitempty"`
	Items    []SeedItem     `json:"items,omitempty"`
}

// SeedItem is a leaf of a seed dataset.
type SeedItem struct {
	Name    string          `json:"name"`
	Vendors []domain.Vendor `json:"vendors,omitempty"`
}

// SeedResult reports what a seeding pass touched.
type SeedResult struct {
	Categories int
	Items      int
}

// Seeder loads an initial taxonomy through the same find-or-create path
// requests use, so rerunning it against a populated store creates
// nothing new.
type Seeder struct {
	service Service
}

// NewSeeder creates a seeder on top of the taxonomy service.
func NewSeeder(service Service) *Seeder {
	return &Seeder{service: service}
}

// Apply ensures every category, nested level and item of the dataset
// within one city. Items created here carry seed provenance; existing
// nodes are reused untouched.
func (s *Seeder) Apply(ctx context.Context, categories []SeedCategory, city string) (*SeedResult, error) {
	result := &SeedResult{}
	for _, category := range categories {
		if err := s.applyCategory(ctx, category, nil, city, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Seeder) applyCategory(ctx context.Context, category SeedCategory, parentID *string, city string, result *SeedResult) error {
	node, err := s.service.EnsureCategory(ctx, category.Name, parentID, city)
	if err != nil {
		return err
	}
	result.Categories++

	for _, item := range category.Items {
		if _, err := s.service.EnsureItem(ctx, item.Name, &node.ID, city, item.Vendors, SourceSeed); err != nil {
			return err
		}
		result.Items++
	}
	for _, child := range category.Children {
		if err := s.applyCategory(ctx, child, &node.ID, city, result); err != nil {
			return err
		}
	}
	return nil
}
