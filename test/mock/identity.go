// test/mock/identity.go
package mock

import (
	"context"

	iam_errors "github.com/chaosunly/iam-app/errors"
	"github.com/chaosunly/iam-app/model"
)

// MockResolver resolves session tokens from a fixed table.
type MockResolver struct {
	Sessions map[string]*model.UserContext
}

func NewMockResolver() *MockResolver {
	return &MockResolver{Sessions: make(map[string]*model.UserContext)}
}

func (m *MockResolver) AddSession(token, userID string) {
	m.Sessions[token] = &model.UserContext{UserID: userID, SessionToken: token}
}

func (m *MockResolver) Resolve(ctx context.Context, sessionToken string) (*model.UserContext, error) {
	uc, ok := m.Sessions[sessionToken]
	if !ok {
		return nil, iam_errors.ErrUnauthorized
	}
	return uc, nil
}
