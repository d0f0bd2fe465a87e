package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTenantKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{name: "simple", key: "north-high", ok: true},
		{name: "digits", key: "school42", ok: true},
		{name: "too short", key: "ab", ok: false},
		{name: "uppercase", key: "North", ok: false},
		{name: "leading hyphen", key: "-north", ok: false},
		{name: "trailing hyphen", key: "north-", ok: false},
		{name: "underscore", key: "north_high", ok: false},
		{name: "reserved", key: "central", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTenantKey(tt.key)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateHandle(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateHandle("alice"))
	assert.NoError(t, ValidateHandle("james.smith_12"))
	assert.Error(t, ValidateHandle("a"))
	assert.Error(t, ValidateHandle("has space"))
	assert.Error(t, ValidateHandle("@alice"))
}
