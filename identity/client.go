// identity/client.go
package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	iam_errors "github.com/chaosunly/iam-app/errors"
	logger "github.com/chaosunly/iam-app/logging"
	"github.com/chaosunly/iam-app/model"
)

// Resolver turns a session token into the caller's identity, or reports
// that no valid session exists.
type Resolver interface {
	Resolve(ctx context.Context, sessionToken string) (*model.UserContext, error)
}

// Client resolves sessions against the external identity service's
// whoami endpoint. The core never inspects tokens locally.
type Client struct {
	client  *http.Client
	baseURL string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type whoamiResponse struct {
	ID       string `json:"id"`
	Identity struct {
		ID     string `json:"id"`
		Traits struct {
			Email string `json:"email"`
		} `json:"traits"`
	} `json:"identity"`
}

// Resolve calls the whoami endpoint with the session token. Any failure
// to produce an identity maps to ErrUnauthorized; the caller cannot
// distinguish a missing session from an unreachable identity service.
func (c *Client) Resolve(ctx context.Context, sessionToken string) (*model.UserContext, error) {
	if sessionToken == "" {
		return nil, iam_errors.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sessions/whoami", nil)
	if err != nil {
		return nil, iam_errors.ErrUnauthorized
	}
	req.Header.Set("X-Session-Token", sessionToken)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("Session resolution request failed", zap.Error(err))
		return nil, iam_errors.ErrUnauthorized
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug("Session resolution rejected", zap.Int("status", resp.StatusCode))
		return nil, iam_errors.ErrUnauthorized
	}

	var whoami whoamiResponse
	if err := json.NewDecoder(resp.Body).Decode(&whoami); err != nil {
		logger.Error("Failed to decode whoami response", zap.Error(err))
		return nil, iam_errors.ErrUnauthorized
	}

	if whoami.Identity.ID == "" {
		return nil, iam_errors.ErrUnauthorized
	}

	return &model.UserContext{
		UserID:       whoami.Identity.ID,
		SessionID:    whoami.ID,
		IdentityID:   whoami.Identity.ID,
		Email:        whoami.Identity.Traits.Email,
		SessionToken: sessionToken,
	}, nil
}
