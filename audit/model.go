// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// Actions recorded by the authorization layer.
const (
	ActionAdminCheck    = "admin_check"
	ActionOrgPermission = "org_permission_check"
	ActionTupleGranted  = "tuple_granted"
	ActionTupleRevoked  = "tuple_revoked"
)

type AuditLog struct {
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id"`
	Action        string          `json:"action"`
	Resource      string          `json:"resource"`
	AccessGranted bool            `json:"access_granted"`
	Details       json.RawMessage `json:"details,omitempty"`
}
