// model/user_context.go
package model

// UserContext is the resolved caller identity for a single request. It
// is built once by the access middleware from the identity service's
// session lookup and is read-only afterwards; nothing in the core
// caches or persists it.
type UserContext struct {
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id,omitempty"`
	IdentityID   string `json:"identity_id,omitempty"`
	Email        string `json:"email,omitempty"`
	SessionToken string `json:"-"`
}
