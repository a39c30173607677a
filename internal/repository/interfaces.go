// Package repository defines the persistence contracts for taxonomy nodes.
// Implementations live in subpackages; services depend only on these
// interfaces.
package repository

import (
	"context"

	"foodatlas-backend/internal/domain"

	appErrors "foodatlas-backend/pkg/errors"
)

// ChildQuery selects the children of a parent node within one city.
// A nil ParentID selects root categories.
type ChildQuery struct {
	ParentID *string
	City     string
	Kind     domain.NodeKind // empty means any kind
}

// Validate checks the query for obvious mistakes.
func (q ChildQuery) Validate() error {
	if q.City == "" {
		return appErrors.NewValidation("city cannot be empty")
	}
	if q.Kind != "" && q.Kind != domain.KindCategory && q.Kind != domain.KindItem {
		return appErrors.NewValidation("invalid kind filter")
	}
	return nil
}

// NodeRepository is the storage contract for taxonomy nodes.
//
// FindByIdentity and FindItemByName are point queries backed by indexes,
// never scans. ScanNodes is the only full-table read and exists solely for
// the offline dedup sweep.
type NodeRepository interface {
	// CreateNode persists a fully-populated node. The caller assigns the
	// id, path and timestamps; attributes are never overwritten afterwards.
	CreateNode(ctx context.Context, node domain.Node) error

	// FindNodeByID retrieves a single node, nil when absent.
	FindNodeByID(ctx context.Context, id string) (*domain.Node, error)

	// FindByIdentity looks up the unique node for an identity triple,
	// nil when absent. parentID nil means root.
	FindByIdentity(ctx context.Context, name string, parentID *string, city string) (*domain.Node, error)

	// FindChildren enumerates the children matching the query, in
	// storage order. An empty result is a normal outcome, not an error.
	FindChildren(ctx context.Context, query ChildQuery) ([]domain.Node, error)

	// FindItemByName does an exact-match lookup of an item node by name
	// within a city, regardless of its parent. Nil when absent.
	FindItemByName(ctx context.Context, name, city string) (*domain.Node, error)

	// ScanNodes streams every node to fn, page by page. fn returning an
	// error stops the scan and propagates it.
	ScanNodes(ctx context.Context, fn func(domain.Node) error) error

	// DeleteNode removes a node outright. Used by the dedup sweep only;
	// there is no soft delete.
	DeleteNode(ctx context.Context, id string) error
}
