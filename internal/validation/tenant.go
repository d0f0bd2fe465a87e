// Package validation checks identifiers that arrive from configuration and
// token claims.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var tenantKeyRegex = regexp.MustCompile(`^[a-z0-9-]{3,64}$`)

var reservedTenantKeys = map[string]struct{}{
	"admin":   {},
	"api":     {},
	"central": {},
	"health":  {},
	"metrics": {},
	"swagger": {},
}

var handleRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]{2,64}$`)

// ValidateTenantKey validates tenant key format and reserved names.
func ValidateTenantKey(key string) error {
	if !tenantKeyRegex.MatchString(key) {
		return fmt.Errorf("tenant key must be 3-64 characters and contain only lowercase letters, numbers, and hyphens")
	}

	if strings.HasPrefix(key, "-") || strings.HasSuffix(key, "-") {
		return fmt.Errorf("tenant key cannot start or end with a hyphen")
	}

	if _, exists := reservedTenantKeys[key]; exists {
		return fmt.Errorf("tenant key %q is reserved", key)
	}

	return nil
}

// ValidateHandle checks that handle can be written as an @mention.
func ValidateHandle(handle string) error {
	if !handleRegex.MatchString(handle) {
		return fmt.Errorf("handle must be 2-64 characters of letters, numbers, '_', '.' or '-'")
	}
	return nil
}
