package booking

import "github.com/trainerbook/trainerbook/models"

// Authorize is the single capability check used by every operation.
// An empty role accepts any role; when owners are given the caller must be one of them.
func Authorize(caller *models.User, role models.Role, owners ...string) error {
	if caller == nil {
		return newError(KindUnauthorized, "unknown caller")
	}
	if role != "" && caller.Role != role {
		return newError(KindForbidden, "%s role required", role)
	}
	if len(owners) == 0 {
		return nil
	}
	for _, id := range owners {
		if id != "" && id == caller.ID {
			return nil
		}
	}
	return newError(KindForbidden, "not your booking")
}
