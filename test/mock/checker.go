// test/mock/checker.go
package mock

import (
	"context"
	"sync"

	"github.com/chaosunly/iam-app/model"
)

// MockChecker is a counting fake for both the point-check and the
// cached-check surfaces. Allowed tuples are keyed by CacheKey.
type MockChecker struct {
	mu      sync.Mutex
	Allowed map[string]bool
	Calls   map[string]int
	Err     error
}

func NewMockChecker() *MockChecker {
	return &MockChecker{
		Allowed: make(map[string]bool),
		Calls:   make(map[string]int),
	}
}

// Allow marks a tuple as granted.
func (m *MockChecker) Allow(tuple model.RelationTuple) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Allowed[tuple.CacheKey()] = true
}

// Disallow removes a granted tuple.
func (m *MockChecker) Disallow(tuple model.RelationTuple) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Allowed, tuple.CacheKey())
}

func (m *MockChecker) Check(ctx context.Context, tuple model.RelationTuple) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[tuple.CacheKey()]++
	if m.Err != nil {
		return false, m.Err
	}
	return m.Allowed[tuple.CacheKey()], nil
}

// CheckCached satisfies the cached-check surface without any caching,
// so policy tests observe every issued check.
func (m *MockChecker) CheckCached(ctx context.Context, tuple model.RelationTuple, skipCache bool) (bool, error) {
	if err := tuple.Validate(); err != nil {
		return false, err
	}
	return m.Check(ctx, tuple)
}

// CallCount reports how many checks were issued for the tuple.
func (m *MockChecker) CallCount(tuple model.RelationTuple) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[tuple.CacheKey()]
}

// TotalCalls reports the number of checks issued across all tuples.
func (m *MockChecker) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.Calls {
		total += n
	}
	return total
}

// NamespaceCalls reports the number of checks issued for tuples in one
// namespace.
func (m *MockChecker) NamespaceCalls(namespace string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for key, n := range m.Calls {
		if len(key) >= len(namespace) && key[:len(namespace)] == namespace {
			total += n
		}
	}
	return total
}
