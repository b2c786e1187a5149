// util/validation_util.go

package util

import (
	"fmt"

	"github.com/chaosunly/iam-app/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

// ValidateTuple rejects tuples with any empty field before any network
// call is made.
func (v *ValidationUtil) ValidateTuple(tuple model.RelationTuple) error {
	return tuple.Validate()
}

// ValidateOrgPermission rejects permission names outside the org-scoped
// permission set.
func (v *ValidationUtil) ValidateOrgPermission(permission string) error {
	if !model.OrgPermissions[permission] {
		return fmt.Errorf("unknown org permission: %s", permission)
	}
	return nil
}
