// test/mock/audit.go
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/chaosunly/iam-app/audit"
)

// MockAuditService records every audit entry it receives so tests can
// assert on emission counts and decisions.
type MockAuditService struct {
	mu      sync.Mutex
	Entries []audit.AuditLog
	Err     error
}

func (m *MockAuditService) LogAccess(ctx context.Context, log audit.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Entries = append(m.Entries, log)
	return nil
}

func (m *MockAuditService) QueryLogs(ctx context.Context, from, to time.Time, userID, resource string) ([]audit.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.AuditLog
	for _, entry := range m.Entries {
		if userID != "" && entry.UserID != userID {
			continue
		}
		if resource != "" && entry.Resource != resource {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// ByAction returns the recorded entries for one action.
func (m *MockAuditService) ByAction(action string) []audit.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.AuditLog
	for _, entry := range m.Entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}
