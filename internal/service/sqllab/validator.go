package sqllab

import (
	"context"

	"sqldesk/internal/domain"
)

// AccessValidator gatekeeps query dispatch. It must run before any SQL is
// rendered or persisted so a forbidden request leaves no trace.
type AccessValidator struct {
	access domain.AccessChecker
}

// NewAccessValidator creates an AccessValidator over the given checker.
func NewAccessValidator(access domain.AccessChecker) *AccessValidator {
	return &AccessValidator{access: access}
}

// Validate checks the structural envelope first, then the caller's
// capability on the target database/schema. Returns a ValidationError,
// ForbiddenError, or NotFoundError accordingly.
func (v *AccessValidator) Validate(ctx context.Context, ec *domain.ExecutionContext) error {
	if err := ec.Validate(); err != nil {
		return err
	}
	return v.access.CanRunQuery(ctx, ec.SubmittedBy, ec.DatabaseID, ec.SchemaName)
}
