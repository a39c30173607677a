// Package mocks provides mock implementations of repository interfaces for testing.
package mocks

import (
	"context"
	"sync"

	"foodatlas-backend/internal/domain"
	"foodatlas-backend/internal/repository"
)

// MockNodeRepository provides an in-memory implementation of the
// NodeRepository interface. This is useful for unit testing services
// without requiring a real database.
//
// Like the DynamoDB implementation, it maintains lookup indexes alongside
// the flat node arena: identity triple -> node and parent -> children.
type MockNodeRepository struct {
	mu sync.RWMutex

	// In-memory storage
	nodes    map[string]*domain.Node  // nodeID -> Node
	identity map[string]string        // identity key -> nodeID
	children map[string][]string      // parent partition key -> ordered child ids
	order    []string                 // insertion order, for ScanNodes

	// For testing error scenarios
	shouldFailOn map[string]error
}

// NewMockNodeRepository creates a new mock repository instance.
func NewMockNodeRepository() *MockNodeRepository {
	return &MockNodeRepository{
		nodes:        make(map[string]*domain.Node),
		identity:     make(map[string]string),
		children:     make(map[string][]string),
		shouldFailOn: make(map[string]error),
	}
}

// SetError configures the mock to return an error for a specific method.
// Useful for testing error handling in services.
func (m *MockNodeRepository) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn[method] = err
}

// ClearErrors removes all configured errors.
func (m *MockNodeRepository) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn = make(map[string]error)
}

func (m *MockNodeRepository) checkError(method string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, exists := m.shouldFailOn[method]; exists {
		return err
	}
	return nil
}

func parentKey(parentID *string, city string) string {
	parent := "root"
	if parentID != nil {
		parent = *parentID
	}
	return city + "\x00" + parent
}

// CreateNode stores a node and maintains the lookup indexes.
// Deliberately no identity uniqueness check: the mock mirrors the
// read-then-write semantics of the real store, so racing ensures can
// produce duplicates for the sweep tests to clean up.
func (m *MockNodeRepository) CreateNode(ctx context.Context, node domain.Node) error {
	if err := m.checkError("CreateNode"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	nodeCopy := node
	m.nodes[node.ID] = &nodeCopy
	m.order = append(m.order, node.ID)
	if _, taken := m.identity[node.IdentityKey()]; !taken {
		m.identity[node.IdentityKey()] = node.ID
	}
	pk := parentKey(node.ParentID, node.City)
	m.children[pk] = append(m.children[pk], node.ID)
	return nil
}

// FindNodeByID retrieves a node by id, nil when absent.
func (m *MockNodeRepository) FindNodeByID(ctx context.Context, id string) (*domain.Node, error) {
	if err := m.checkError("FindNodeByID"); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	node, exists := m.nodes[id]
	if !exists {
		return nil, nil
	}
	nodeCopy := *node
	return &nodeCopy, nil
}

// FindByIdentity looks up the node for an identity triple.
func (m *MockNodeRepository) FindByIdentity(ctx context.Context, name string, parentID *string, city string) (*domain.Node, error) {
	if err := m.checkError("FindByIdentity"); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.identity[domain.IdentityKey(name, parentID, city)]
	if !exists {
		return nil, nil
	}
	node, exists := m.nodes[id]
	if !exists {
		return nil, nil
	}
	nodeCopy := *node
	return &nodeCopy, nil
}

// FindChildren enumerates children in insertion order.
func (m *MockNodeRepository) FindChildren(ctx context.Context, query repository.ChildQuery) ([]domain.Node, error) {
	if err := m.checkError("FindChildren"); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var nodes []domain.Node
	for _, id := range m.children[parentKey(query.ParentID, query.City)] {
		node, exists := m.nodes[id]
		if !exists {
			continue // deleted by the sweep
		}
		if query.Kind != "" && node.Kind != query.Kind {
			continue
		}
		nodes = append(nodes, *node)
	}
	return nodes, nil
}

// FindItemByName does an exact-match item lookup within a city.
func (m *MockNodeRepository) FindItemByName(ctx context.Context, name, city string) (*domain.Node, error) {
	if err := m.checkError("FindItemByName"); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		node, exists := m.nodes[id]
		if !exists {
			continue
		}
		if node.Kind == domain.KindItem && node.Name == name && node.City == city {
			nodeCopy := *node
			return &nodeCopy, nil
		}
	}
	return nil, nil
}

// ScanNodes streams every stored node in insertion order.
func (m *MockNodeRepository) ScanNodes(ctx context.Context, fn func(domain.Node) error) error {
	if err := m.checkError("ScanNodes"); err != nil {
		return err
	}

	m.mu.RLock()
	snapshot := make([]domain.Node, 0, len(m.nodes))
	for _, id := range m.order {
		if node, exists := m.nodes[id]; exists {
			snapshot = append(snapshot, *node)
		}
	}
	m.mu.RUnlock()

	for _, node := range snapshot {
		if err := fn(node); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNode removes a node and repairs the identity index so the
// surviving duplicate (if any) becomes reachable again.
func (m *MockNodeRepository) DeleteNode(ctx context.Context, id string) error {
	if err := m.checkError("DeleteNode"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	node, exists := m.nodes[id]
	if !exists {
		return nil
	}
	delete(m.nodes, id)

	key := node.IdentityKey()
	if m.identity[key] == id {
		delete(m.identity, key)
		for _, otherID := range m.order {
			other, ok := m.nodes[otherID]
			if ok && other.IdentityKey() == key {
				m.identity[key] = otherID
				break
			}
		}
	}
	return nil
}

// NodeCount returns the number of stored nodes (test helper).
func (m *MockNodeRepository) NodeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}
