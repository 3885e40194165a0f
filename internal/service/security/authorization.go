// Package security implements permission checking for query dispatch.
package security

import (
	"context"

	"sqldesk/internal/db/repository"
	"sqldesk/internal/domain"
)

// AuthorizationService decides whether a principal may run queries against a
// registered database and schema. It implements domain.AccessChecker.
type AuthorizationService struct {
	principals *repository.PrincipalRepo
	grants     *repository.GrantRepo
	databases  domain.DatabaseRepository
}

var _ domain.AccessChecker = (*AuthorizationService)(nil)

// NewAuthorizationService creates a new AuthorizationService.
func NewAuthorizationService(
	principals *repository.PrincipalRepo,
	grants *repository.GrantRepo,
	databases domain.DatabaseRepository,
) *AuthorizationService {
	return &AuthorizationService{
		principals: principals,
		grants:     grants,
		databases:  databases,
	}
}

// CanRunQuery returns nil when principal holds the QUERY privilege on the
// database/schema pair. Admins bypass grant checks. Unknown principals and
// missing grants are both reported as ForbiddenError so callers cannot probe
// which principals exist; an unknown database surfaces as NotFoundError.
func (s *AuthorizationService) CanRunQuery(ctx context.Context, principal, databaseID, schemaName string) error {
	if principal == "" {
		return domain.ErrForbidden("a principal is required to run queries")
	}

	if _, err := s.databases.GetByID(ctx, databaseID); err != nil {
		return err
	}

	p, err := s.principals.GetByName(ctx, principal)
	if err != nil {
		if _, ok := err.(*domain.NotFoundError); ok {
			return domain.ErrForbidden("principal %q may not query database %q", principal, databaseID)
		}
		return err
	}
	if p.IsAdmin {
		return nil
	}

	ok, err := s.grants.HasQueryGrant(ctx, principal, databaseID, schemaName)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden("principal %q may not query database %q", principal, databaseID)
	}
	return nil
}
