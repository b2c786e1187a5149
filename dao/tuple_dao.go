// dao/tuple_dao.go
package dao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	iam_errors "github.com/chaosunly/iam-app/errors"
	logger "github.com/chaosunly/iam-app/logging"
	"github.com/chaosunly/iam-app/model"
)

// TupleDAO is the only component that talks to the upstream
// authorization service. Failure policy differs per operation:
//
//   - Check fails closed: any network failure, non-2xx response, or
//     malformed body yields false, never an error. Downstream callers
//     treat "denied" and "couldn't verify" identically.
//   - Grant/Revoke propagate failures. A silent no-op there means an
//     operator believes a permission changed when it did not.
//   - ListForSubject/ListForObject fail open to an empty slice. Listings
//     are advisory and never feed an allow/deny decision.
type TupleDAO struct {
	client   *http.Client
	readURL  string
	writeURL string
}

func NewTupleDAO(readURL, writeURL string, timeout time.Duration) *TupleDAO {
	return &TupleDAO{
		client:   &http.Client{Timeout: timeout},
		readURL:  readURL,
		writeURL: writeURL,
	}
}

// Check performs a point permission check for the tuple.
func (dao *TupleDAO) Check(ctx context.Context, tuple model.RelationTuple) (bool, error) {
	if err := tuple.Validate(); err != nil {
		return false, err
	}

	body, err := json.Marshal(tuple.ToWire())
	if err != nil {
		logger.Error("Failed to encode check request", zap.Error(err), zap.String("tuple", tuple.String()))
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dao.readURL+"/relation-tuples/check", bytes.NewReader(body))
	if err != nil {
		logger.Error("Failed to build check request", zap.Error(err), zap.String("tuple", tuple.String()))
		return false, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := dao.client.Do(req)
	if err != nil {
		logger.Error("Permission check request failed", zap.Error(err), zap.String("tuple", tuple.String()))
		return false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("Permission check returned non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.String("tuple", tuple.String()))
		return false, nil
	}

	var checkResp model.CheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&checkResp); err != nil {
		logger.Error("Failed to decode check response", zap.Error(err), zap.String("tuple", tuple.String()))
		return false, nil
	}

	return checkResp.Allowed, nil
}

// Grant upserts the tuple. Re-granting an existing tuple succeeds.
func (dao *TupleDAO) Grant(ctx context.Context, tuple model.RelationTuple) error {
	if err := tuple.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(tuple.ToWire())
	if err != nil {
		return fmt.Errorf("%w: %v", iam_errors.ErrGrantFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, dao.writeURL+"/admin/relation-tuples", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", iam_errors.ErrGrantFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := dao.client.Do(req)
	if err != nil {
		logger.Error("Grant request failed", zap.Error(err), zap.String("tuple", tuple.String()))
		return fmt.Errorf("%w: %v", iam_errors.ErrGrantFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("Grant returned non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.String("tuple", tuple.String()))
		return fmt.Errorf("%w: status %d", iam_errors.ErrGrantFailed, resp.StatusCode)
	}

	return nil
}

// Revoke deletes the tuple. Revoking a tuple that was never granted is
// not an error; the upstream delete is idempotent.
func (dao *TupleDAO) Revoke(ctx context.Context, tuple model.RelationTuple) error {
	if err := tuple.Validate(); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("namespace", tuple.Namespace)
	params.Set("object", tuple.Object)
	params.Set("relation", tuple.Relation)
	params.Set("subject_id.id", tuple.Subject)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, dao.writeURL+"/admin/relation-tuples?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", iam_errors.ErrRevokeFailed, err)
	}

	resp, err := dao.client.Do(req)
	if err != nil {
		logger.Error("Revoke request failed", zap.Error(err), zap.String("tuple", tuple.String()))
		return fmt.Errorf("%w: %v", iam_errors.ErrRevokeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("Revoke returned non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.String("tuple", tuple.String()))
		return fmt.Errorf("%w: status %d", iam_errors.ErrRevokeFailed, resp.StatusCode)
	}

	return nil
}

// ListForSubject lists tuples whose subject is userID, optionally
// filtered by namespace.
func (dao *TupleDAO) ListForSubject(ctx context.Context, userID, namespace string) ([]model.RelationTuple, error) {
	params := url.Values{}
	params.Set("subject_id.id", userID)
	if namespace != "" {
		params.Set("namespace", namespace)
	}
	return dao.list(ctx, params)
}

// ListForObject lists tuples attached to an object within a namespace.
func (dao *TupleDAO) ListForObject(ctx context.Context, namespace, object string) ([]model.RelationTuple, error) {
	params := url.Values{}
	params.Set("namespace", namespace)
	params.Set("object", object)
	return dao.list(ctx, params)
}

func (dao *TupleDAO) list(ctx context.Context, params url.Values) ([]model.RelationTuple, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dao.readURL+"/relation-tuples?"+params.Encode(), nil)
	if err != nil {
		logger.Error("Failed to build list request", zap.Error(err))
		return []model.RelationTuple{}, nil
	}

	resp, err := dao.client.Do(req)
	if err != nil {
		logger.Error("Tuple list request failed", zap.Error(err), zap.String("query", params.Encode()))
		return []model.RelationTuple{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("Tuple list returned non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.String("query", params.Encode()))
		return []model.RelationTuple{}, nil
	}

	var listResp model.ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		logger.Error("Failed to decode tuple list response", zap.Error(err))
		return []model.RelationTuple{}, nil
	}

	tuples := make([]model.RelationTuple, 0, len(listResp.RelationTuples))
	for _, w := range listResp.RelationTuples {
		tuples = append(tuples, model.FromWire(w))
	}
	return tuples, nil
}

// HealthCheck probes the upstream read endpoint. Returns false on any
// failure.
func (dao *TupleDAO) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dao.readURL+"/health/ready", nil)
	if err != nil {
		return false
	}

	resp, err := dao.client.Do(req)
	if err != nil {
		logger.Warn("Authorization service health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
