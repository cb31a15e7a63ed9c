package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// TenantContext identifies who is calling and on behalf of which tenant. The
// authentication layer resolves it; every core operation receives it explicitly.
type TenantContext struct {
	TenantID uuid.UUID
	ActorID  uuid.UUID
}

func (tc TenantContext) Validate() error {
	if tc.TenantID == uuid.Nil {
		return NewValidationError("tenant_id", "tenant is required")
	}
	return nil
}

// CheckTenant returns a TenantMismatchError when owner differs from the caller's tenant.
func CheckTenant(entity string, id uuid.UUID, owner, tenant uuid.UUID) error {
	if owner != tenant {
		return &TenantMismatchError{Entity: entity, ID: id.String()}
	}
	return nil
}

func (tc TenantContext) String() string {
	return fmt.Sprintf("tenant=%s actor=%s", tc.TenantID, tc.ActorID)
}
