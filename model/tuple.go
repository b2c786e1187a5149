// model/tuple.go
package model

import (
	"fmt"
	"strings"

	iam_errors "github.com/chaosunly/iam-app/errors"
)

// Namespaces understood by the authorization service.
const (
	NamespaceGlobalRole   = "GlobalRole"
	NamespaceOrganization = "Organization"
)

// Global-admin tuple components: (GlobalRole, admin, members, <user>).
const (
	GlobalAdminObject   = "admin"
	GlobalAdminRelation = "members"
)

// Organization-scoped permission relations.
const (
	PermManageOrg    = "manage_org"
	PermManageUsers  = "manage_users"
	PermManageGroups = "manage_groups"
	PermManageRoles  = "manage_roles"
	PermViewOrg      = "view_org"
	PermIsMember     = "is_member"
)

// OrgPermissions enumerates the relations accepted by org-scoped checks.
var OrgPermissions = map[string]bool{
	PermManageOrg:    true,
	PermManageUsers:  true,
	PermManageGroups: true,
	PermManageRoles:  true,
	PermViewOrg:      true,
	PermIsMember:     true,
}

// RelationTuple is the atomic permission fact: subject has relation to
// object within namespace. The subject is treated as an opaque string;
// indirect subjects ("Namespace:object#relation") are resolved by the
// authorization service, never locally.
type RelationTuple struct {
	Namespace string `json:"namespace"`
	Object    string `json:"object"`
	Relation  string `json:"relation"`
	Subject   string `json:"subject"`
}

// GlobalAdminTuple builds the tuple that marks a user as global admin.
func GlobalAdminTuple(userID string) RelationTuple {
	return RelationTuple{
		Namespace: NamespaceGlobalRole,
		Object:    GlobalAdminObject,
		Relation:  GlobalAdminRelation,
		Subject:   userID,
	}
}

// OrgPermissionTuple builds the tuple for an org-scoped permission check.
func OrgPermissionTuple(orgID, permission, userID string) RelationTuple {
	return RelationTuple{
		Namespace: NamespaceOrganization,
		Object:    orgID,
		Relation:  permission,
		Subject:   userID,
	}
}

// RoleTuple builds the tuple for a named role within a namespace. The
// relation is derived from the role name ("Admin" -> "is_admin").
func RoleTuple(namespace, role, userID string) RelationTuple {
	return RelationTuple{
		Namespace: namespace,
		Object:    role,
		Relation:  "is_" + strings.ToLower(role),
		Subject:   userID,
	}
}

// Validate rejects tuples with any empty field before they reach the
// network.
func (t RelationTuple) Validate() error {
	if t.Namespace == "" || t.Object == "" || t.Relation == "" || t.Subject == "" {
		return fmt.Errorf("%w: namespace=%q object=%q relation=%q subject=%q",
			iam_errors.ErrInvalidTuple, t.Namespace, t.Object, t.Relation, t.Subject)
	}
	return nil
}

// CacheKey is the composite key used by the check cache. The subject is
// the final segment so invalidation-by-subject can match on it.
func (t RelationTuple) CacheKey() string {
	return fmt.Sprintf("%s:%s:%s:%s", t.Namespace, t.Object, t.Relation, t.Subject)
}

func (t RelationTuple) String() string {
	return fmt.Sprintf("%s:%s#%s@%s", t.Namespace, t.Object, t.Relation, t.Subject)
}

// WireTuple is the JSON shape the authorization service speaks: the
// subject travels as "subject_id".
type WireTuple struct {
	Namespace string `json:"namespace"`
	Object    string `json:"object"`
	Relation  string `json:"relation"`
	SubjectID string `json:"subject_id"`
}

// CheckResponse is the body of a point-check response.
type CheckResponse struct {
	Allowed bool `json:"allowed"`
}

// ListResponse is the envelope of a tuple-listing response.
type ListResponse struct {
	RelationTuples []WireTuple `json:"relation_tuples"`
}

// ToWire converts a tuple to its wire encoding.
func (t RelationTuple) ToWire() WireTuple {
	return WireTuple{
		Namespace: t.Namespace,
		Object:    t.Object,
		Relation:  t.Relation,
		SubjectID: t.Subject,
	}
}

// FromWire converts a wire tuple back to the canonical representation.
func FromWire(w WireTuple) RelationTuple {
	return RelationTuple{
		Namespace: w.Namespace,
		Object:    w.Object,
		Relation:  w.Relation,
		Subject:   w.SubjectID,
	}
}
