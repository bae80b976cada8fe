package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtask-agent/internal/domain/entity"
)

func TestWhitelist_Allows(t *testing.T) {
	w := NewWhitelist([]string{"allowed.example.com", "https://shop.example.org/store"})

	cases := []struct {
		url  string
		want bool
	}{
		{"https://allowed.example.com", true},
		{"https://allowed.example.com/path?q=1", true},
		{"http://sub.allowed.example.com", true},
		{"allowed.example.com/no-scheme", true},
		{"https://shop.example.org", true},
		{"https://evil.com", false},
		{"https://notallowed.example.com.evil.com", false},
		{"https://xallowed.example.com", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, w.Allows(tc.url), tc.url)
	}
}

func TestWhitelist_EmptyAllowsEverything(t *testing.T) {
	w := NewWhitelist(nil)
	assert.True(t, w.Allows("https://anywhere.com"))
}

func TestWhitelist_ValidateGoto(t *testing.T) {
	w := NewWhitelist([]string{"allowed.example.com"})

	err := w.Validate(entity.Action{Kind: entity.ActionGoto, Target: "https://allowed.example.com"})
	require.NoError(t, err)

	err = w.Validate(entity.Action{Kind: entity.ActionGoto, Target: "https://blocked.example.net"})
	require.Error(t, err)

	var valErr *entity.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, entity.ValidationReasonNotPermitted, valErr.Reason)
}

func TestWhitelist_OtherKindsPassThrough(t *testing.T) {
	w := NewWhitelist([]string{"allowed.example.com"})

	assert.NoError(t, w.Validate(entity.Action{Kind: entity.ActionClick, Target: "42"}))
	assert.NoError(t, w.Validate(entity.Action{Kind: entity.ActionStop, Target: "done"}))
}
