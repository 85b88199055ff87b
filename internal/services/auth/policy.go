package auth

import (
	"fmt"

	"linkregistry/internal/domain/models"
)

// Authorize - единственная проверка роли. RoleMain имеет доступ ко всему,
// RoleSub только к операциям, где требуется RoleSub.
func Authorize(id models.Identity, required models.Role) error {
	if !id.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", models.ErrForbidden, id.Role)
	}
	if required == models.RoleMain && id.Role != models.RoleMain {
		return fmt.Errorf("%w: %s role required", models.ErrForbidden, required)
	}
	return nil
}
