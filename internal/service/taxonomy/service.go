// Package taxonomy provides business logic for the food taxonomy tree:
// idempotent find-or-create of categories and items, ancestor path
// resolution, and the read-side catalog queries.
package taxonomy

import (
	"context"
	"strings"
	"time"

	"foodatlas-backend/internal/domain"
	"foodatlas-backend/internal/repository"
	appErrors "foodatlas-backend/pkg/errors"

	"github.com/google/uuid"
)

// Source tags recorded on created nodes.
const (
	SourceManual    = "manual"
	SourceGenerated = "generated"
	SourceSeed      = "seed"
)

// Service defines the interface for taxonomy tree operations.
type Service interface {
	// EnsureCategory returns the category node for the identity triple,
	// creating it when absent. Existing nodes are returned unchanged.
	EnsureCategory(ctx context.Context, name string, parentID *string, city string) (*domain.Node, error)

	// EnsureItem is the item-kind counterpart. Vendors are written only at
	// creation; a reuse hit keeps the first-written vendor list.
	EnsureItem(ctx context.Context, name string, parentID *string, city string, vendors []domain.Vendor, source string) (*domain.Node, error)

	// AddItem ensures category and subcategory then the item beneath them.
	AddItem(ctx context.Context, name, category, subcategory, city string, vendors []domain.Vendor) (*domain.Node, error)

	// ResolvePath reconstructs the ancestor chain from root to the node.
	ResolvePath(ctx context.Context, node *domain.Node) ([]domain.PathEntry, error)

	// ListRootCategories returns the root categories of a city's tree.
	ListRootCategories(ctx context.Context, city string) ([]domain.Node, error)

	// ListChildren returns the direct children of a node, any kind.
	ListChildren(ctx context.Context, parentID, city string) ([]domain.Node, error)

	// ListItems returns the item leaves beneath a node.
	ListItems(ctx context.Context, parentID, city string) ([]domain.Node, error)
}

// service implements the Service interface with concrete business logic.
type service struct {
	repo repository.NodeRepository
}

// NewService creates a new taxonomy service with the provided repository.
func NewService(repo repository.NodeRepository) Service {
	return &service{repo: repo}
}

// EnsureCategory looks up the identity triple and creates the category
// when missing. The check-then-insert is two store operations; two racing
// calls can both insert, which the dedup sweep later converges.
func (s *service) EnsureCategory(ctx context.Context, name string, parentID *string, city string) (*domain.Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewValidation("category name cannot be empty")
	}
	if city == "" {
		return nil, appErrors.NewValidation("city cannot be empty")
	}

	existing, err := s.repo.FindByIdentity(ctx, name, parentID, city)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to look up category by identity")
	}
	if existing != nil {
		if existing.Kind != domain.KindCategory {
			return nil, appErrors.NewValidation("an item with this name already exists here")
		}
		return existing, nil
	}

	parent, err := s.loadParentCategory(ctx, parentID)
	if err != nil {
		return nil, err
	}

	node := domain.Node{
		ID:        uuid.New().String(),
		Name:      name,
		Kind:      domain.KindCategory,
		ParentID:  parentID,
		City:      city,
		Source:    SourceManual,
		CreatedAt: time.Now(),
	}
	node.Path = domain.ChildPath(parent, node.ID)

	if err := s.repo.CreateNode(ctx, node); err != nil {
		return nil, appErrors.Wrap(err, "failed to create category node")
	}
	return &node, nil
}

// EnsureItem looks up the identity triple and creates the item when
// missing. An existing item wins as-is: its vendors are never refreshed.
func (s *service) EnsureItem(ctx context.Context, name string, parentID *string, city string, vendors []domain.Vendor, source string) (*domain.Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewValidation("item name cannot be empty")
	}
	if city == "" {
		return nil, appErrors.NewValidation("city cannot be empty")
	}
	if parentID == nil {
		return nil, appErrors.NewValidation("items must be placed under a category")
	}

	existing, err := s.repo.FindByIdentity(ctx, name, parentID, city)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to look up item by identity")
	}
	if existing != nil {
		if existing.Kind != domain.KindItem {
			return nil, appErrors.NewValidation("a category with this name already exists here")
		}
		return existing, nil
	}

	parent, err := s.loadParentCategory(ctx, parentID)
	if err != nil {
		return nil, err
	}

	if source == "" {
		source = SourceManual
	}
	node := domain.Node{
		ID:        uuid.New().String(),
		Name:      name,
		Kind:      domain.KindItem,
		ParentID:  parentID,
		City:      city,
		Vendors:   vendors,
		Source:    source,
		CreatedAt: time.Now(),
	}
	node.Path = domain.ChildPath(parent, node.ID)

	if err := s.repo.CreateNode(ctx, node); err != nil {
		return nil, appErrors.Wrap(err, "failed to create item node")
	}
	return &node, nil
}

// AddItem builds the category and subcategory levels then the item leaf.
func (s *service) AddItem(ctx context.Context, name, category, subcategory, city string, vendors []domain.Vendor) (*domain.Node, error) {
	if strings.TrimSpace(category) == "" || strings.TrimSpace(subcategory) == "" {
		return nil, appErrors.NewValidation("category and subcategory are required")
	}

	categoryNode, err := s.EnsureCategory(ctx, category, nil, city)
	if err != nil {
		return nil, err
	}
	subcategoryNode, err := s.EnsureCategory(ctx, subcategory, &categoryNode.ID, city)
	if err != nil {
		return nil, err
	}
	return s.EnsureItem(ctx, name, &subcategoryNode.ID, city, vendors, SourceManual)
}

// ResolvePath reads the materialized path and resolves each ancestor id
// to its name. Nodes written before path materialization fall back to a
// bounded parent-pointer walk.
func (s *service) ResolvePath(ctx context.Context, node *domain.Node) ([]domain.PathEntry, error) {
	if node == nil {
		return nil, appErrors.NewValidation("node cannot be nil")
	}

	ids := node.PathIDs()
	if len(ids) == 0 {
		return s.walkParents(ctx, node)
	}

	entries := make([]domain.PathEntry, 0, len(ids))
	for _, id := range ids {
		if id == node.ID {
			entries = append(entries, domain.PathEntry{ID: node.ID, Name: node.Name})
			continue
		}
		ancestor, err := s.repo.FindNodeByID(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, "failed to resolve path ancestor")
		}
		if ancestor == nil {
			return nil, appErrors.NewNotFound("path references a missing ancestor")
		}
		entries = append(entries, domain.PathEntry{ID: ancestor.ID, Name: ancestor.Name})
	}
	return entries, nil
}

// walkParents follows parent pointers for legacy nodes without a stored
// path. The walk is bounded: the tree is three levels by design, so a
// deeper chain means corrupt data rather than a bigger tree.
func (s *service) walkParents(ctx context.Context, node *domain.Node) ([]domain.PathEntry, error) {
	entries := []domain.PathEntry{{ID: node.ID, Name: node.Name}}
	seen := map[string]bool{node.ID: true}

	current := node
	for hops := 0; current.ParentID != nil; hops++ {
		if hops >= domain.MaxDepth {
			return nil, appErrors.NewInternal("ancestor chain exceeds maximum depth", nil)
		}
		parent, err := s.repo.FindNodeByID(ctx, *current.ParentID)
		if err != nil {
			return nil, appErrors.Wrap(err, "failed to walk parent pointer")
		}
		if parent == nil {
			return nil, appErrors.NewNotFound("parent node not found")
		}
		if seen[parent.ID] {
			return nil, appErrors.NewInternal("ancestor chain contains a cycle", nil)
		}
		seen[parent.ID] = true
		entries = append([]domain.PathEntry{{ID: parent.ID, Name: parent.Name}}, entries...)
		current = parent
	}
	return entries, nil
}

// ListRootCategories returns the roots of a city's tree.
func (s *service) ListRootCategories(ctx context.Context, city string) ([]domain.Node, error) {
	nodes, err := s.repo.FindChildren(ctx, repository.ChildQuery{
		ParentID: nil,
		City:     city,
		Kind:     domain.KindCategory,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to list root categories")
	}
	return nodes, nil
}

// ListChildren returns the direct children of a node, any kind.
func (s *service) ListChildren(ctx context.Context, parentID, city string) ([]domain.Node, error) {
	if parentID == "" {
		return nil, appErrors.NewValidation("parentId cannot be empty")
	}
	nodes, err := s.repo.FindChildren(ctx, repository.ChildQuery{
		ParentID: &parentID,
		City:     city,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to list children")
	}
	return nodes, nil
}

// ListItems returns the item leaves beneath a node.
func (s *service) ListItems(ctx context.Context, parentID, city string) ([]domain.Node, error) {
	if parentID == "" {
		return nil, appErrors.NewValidation("parentId cannot be empty")
	}
	nodes, err := s.repo.FindChildren(ctx, repository.ChildQuery{
		ParentID: &parentID,
		City:     city,
		Kind:     domain.KindItem,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to list items")
	}
	return nodes, nil
}

// loadParentCategory fetches and validates the parent for a new node.
func (s *service) loadParentCategory(ctx context.Context, parentID *string) (*domain.Node, error) {
	if parentID == nil {
		return nil, nil
	}
	parent, err := s.repo.FindNodeByID(ctx, *parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to load parent node")
	}
	if parent == nil {
		return nil, appErrors.NewNotFound("parent node not found")
	}
	if parent.Kind != domain.KindCategory {
		return nil, appErrors.NewValidation("parent must be a category node")
	}
	return parent, nil
}
