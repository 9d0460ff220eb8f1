package utils

import "errors"

var ErrUnauthorized = errors.New("user is not authorized")

func AuthorizeUser(userRole string, allowedRoles ...string) (bool, error) {

	for _, allowedRole := range allowedRoles {
		if allowedRole == userRole {
			return true, nil
		}
	}

	return false, ErrUnauthorized
}
