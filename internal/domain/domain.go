// Package domain contains the core data structures for the food taxonomy,
// independent of the database or API layers.
package domain

import (
	"strings"
	"time"
)

// NodeKind distinguishes branch nodes from leaves. Subcategories are
// category nodes with a non-nil parent.
type NodeKind string

const (
	KindCategory NodeKind = "category"
	KindItem     NodeKind = "item"
)

// MaxDepth bounds parent-pointer walks. The designed tree is three levels
// (category, subcategory, item); anything deeper indicates corrupt data.
const MaxDepth = 8

// Vendor is a place where an item can be found.
type Vendor struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Node represents a single entry in the taxonomy tree: a category,
// a subcategory, or an item carrying vendor links.
type Node struct {
	ID        string
	Name      string
	Kind      NodeKind
	ParentID  *string // nil for root categories
	City      string  // partition scope; trees in different cities never collide
	Path      string  // dot-joined ancestor ids, root first, self last
	Vendors   []Vendor
	Source    string // provenance: "manual", "generated", "seed"
	CreatedAt time.Time
}

// IsRoot reports whether the node is a root category.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// IdentityKey is the dedup key for this node.
func (n *Node) IdentityKey() string {
	return IdentityKey(n.Name, n.ParentID, n.City)
}

// IdentityKey builds the (name, parent, city) triple key used for dedup
// and point lookups. No two nodes may share it.
func IdentityKey(name string, parentID *string, city string) string {
	parent := "root"
	if parentID != nil {
		parent = *parentID
	}
	return name + "\x00" + parent + "\x00" + city
}

// ChildPath computes the materialized path for a node created under the
// given parent. Roots carry just their own id.
func ChildPath(parent *Node, id string) string {
	if parent == nil || parent.Path == "" {
		return id
	}
	return parent.Path + "." + id
}

// PathIDs splits the materialized path into its ancestor ids, root first.
func (n *Node) PathIDs() []string {
	if n.Path == "" {
		return nil
	}
	return strings.Split(n.Path, ".")
}

// PathEntry is one hop of a resolved ancestor chain.
type PathEntry struct {
	ID   string
	Name string
}

// GeneratedItem is the structured payload extracted from a generation
// provider's free-form answer. It is not a Node: it has no identity until
// it is explicitly saved into the taxonomy.
type GeneratedItem struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Vendors     []Vendor `json:"vendors"`
}
