// model/tuple_test.go
package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	iam_errors "github.com/chaosunly/iam-app/errors"
	"github.com/chaosunly/iam-app/model"
)

func TestRelationTuple_Validate(t *testing.T) {
	valid := model.RelationTuple{
		Namespace: model.NamespaceOrganization,
		Object:    "org1",
		Relation:  model.PermViewOrg,
		Subject:   "u1",
	}
	assert.NoError(t, valid.Validate())

	cases := []model.RelationTuple{
		{Object: "org1", Relation: "view_org", Subject: "u1"},
		{Namespace: "Organization", Relation: "view_org", Subject: "u1"},
		{Namespace: "Organization", Object: "org1", Subject: "u1"},
		{Namespace: "Organization", Object: "org1", Relation: "view_org"},
		{},
	}
	for _, tuple := range cases {
		err := tuple.Validate()
		assert.Error(t, err)
		assert.True(t, errors.Is(err, iam_errors.ErrInvalidTuple))
	}
}

func TestRelationTuple_CacheKey(t *testing.T) {
	tuple := model.RelationTuple{
		Namespace: "GlobalRole",
		Object:    "admin",
		Relation:  "members",
		Subject:   "u1",
	}
	assert.Equal(t, "GlobalRole:admin:members:u1", tuple.CacheKey())
}

func TestRelationTuple_WireRoundTrip(t *testing.T) {
	tuple := model.RelationTuple{
		Namespace: "Organization",
		Object:    "org1",
		Relation:  "manage_users",
		Subject:   "u2",
	}

	wire := tuple.ToWire()
	assert.Equal(t, "u2", wire.SubjectID)
	assert.Equal(t, tuple, model.FromWire(wire))
}

func TestGlobalAdminTuple(t *testing.T) {
	tuple := model.GlobalAdminTuple("u1")
	assert.Equal(t, model.NamespaceGlobalRole, tuple.Namespace)
	assert.Equal(t, "admin", tuple.Object)
	assert.Equal(t, "members", tuple.Relation)
	assert.Equal(t, "u1", tuple.Subject)
}

func TestRoleTuple_DerivesRelation(t *testing.T) {
	tuple := model.RoleTuple(model.NamespaceGlobalRole, "Auditor", "u1")
	assert.Equal(t, "is_auditor", tuple.Relation)
	assert.Equal(t, "Auditor", tuple.Object)
}

func TestIndirectSubjectIsOpaque(t *testing.T) {
	// Indirect subjects stay opaque strings; only the upstream service
	// resolves them.
	tuple := model.RelationTuple{
		Namespace: "Organization",
		Object:    "org1",
		Relation:  "view_org",
		Subject:   "Team:platform#members",
	}
	assert.NoError(t, tuple.Validate())
	assert.Equal(t, "Team:platform#members", tuple.ToWire().SubjectID)
}
