// dao/tuple_dao_test.go
package dao_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosunly/iam-app/dao"
	iam_errors "github.com/chaosunly/iam-app/errors"
	logger "github.com/chaosunly/iam-app/logging"
	"github.com/chaosunly/iam-app/model"
)

func TestMain(m *testing.M) {
	logger.InitTestLogger()
	os.Exit(m.Run())
}

func testTuple() model.RelationTuple {
	return model.RelationTuple{
		Namespace: "Organization",
		Object:    "org1",
		Relation:  "view_org",
		Subject:   "u1",
	}
}

func TestCheck_Allowed(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/relation-tuples/check", r.URL.Path)
		w.Write([]byte(`{"allowed": true}`))
	}))
	defer server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	allowed, err := tupleDAO.Check(context.Background(), testTuple())
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.EqualValues(t, 1, hits)
}

func TestCheck_FailsClosedOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	allowed, err := tupleDAO.Check(context.Background(), testTuple())
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheck_FailsClosedOnUnreachableService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	allowed, err := tupleDAO.Check(context.Background(), testTuple())
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheck_FailsClosedOnMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	allowed, err := tupleDAO.Check(context.Background(), testTuple())
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestInvalidTuple_NoNetworkCall(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	bad := model.RelationTuple{Namespace: "Organization", Object: "org1"}

	_, err := tupleDAO.Check(context.Background(), bad)
	assert.True(t, errors.Is(err, iam_errors.ErrInvalidTuple))

	err = tupleDAO.Grant(context.Background(), bad)
	assert.True(t, errors.Is(err, iam_errors.ErrInvalidTuple))

	err = tupleDAO.Revoke(context.Background(), bad)
	assert.True(t, errors.Is(err, iam_errors.ErrInvalidTuple))

	assert.EqualValues(t, 0, hits)
}

func TestGrant_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/admin/relation-tuples", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	assert.NoError(t, tupleDAO.Grant(context.Background(), testTuple()))
}

func TestGrant_PropagatesUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	err := tupleDAO.Grant(context.Background(), testTuple())
	assert.True(t, errors.Is(err, iam_errors.ErrGrantFailed))
}

func TestRevoke_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "u1", r.URL.Query().Get("subject_id.id"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	assert.NoError(t, tupleDAO.Revoke(context.Background(), testTuple()))
}

func TestRevoke_PropagatesUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	err := tupleDAO.Revoke(context.Background(), testTuple())
	assert.True(t, errors.Is(err, iam_errors.ErrRevokeFailed))
}

func TestListForSubject_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/relation-tuples", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("subject_id.id"))
		assert.Equal(t, "Organization", r.URL.Query().Get("namespace"))
		w.Write([]byte(`{"relation_tuples": [
			{"namespace": "Organization", "object": "org1", "relation": "view_org", "subject_id": "u1"}
		]}`))
	}))
	defer server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	tuples, err := tupleDAO.ListForSubject(context.Background(), "u1", "Organization")
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, testTuple(), tuples[0])
}

func TestListForSubject_FailsOpenToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	tuples, err := tupleDAO.ListForSubject(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Empty(t, tuples)
}

func TestListForObject_FailsOpenToEmptyOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tupleDAO := dao.NewTupleDAO(server.URL, server.URL, time.Second)
	tuples, err := tupleDAO.ListForObject(context.Background(), "Organization", "org1")
	require.NoError(t, err)
	assert.Empty(t, tuples)
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health/ready", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	tupleDAO := dao.NewTupleDAO(healthy.URL, healthy.URL, time.Second)
	assert.True(t, tupleDAO.HealthCheck(context.Background()))

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	tupleDAO = dao.NewTupleDAO(unhealthy.URL, unhealthy.URL, time.Second)
	assert.False(t, tupleDAO.HealthCheck(context.Background()))
}
