package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "familyshare/pkg/domain-errors"
)

func TestNormalize(t *testing.T) {
	got, err := Normalize("  Bob@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got)

	for _, bad := range []string{"", "   ", "bob", "Bob <bob@example.com>", "bob@"} {
		_, err := Normalize(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "input %q", bad)
	}
}

func TestDeriveNameFromEmail(t *testing.T) {
	assert.Equal(t, "Bob", DeriveNameFromEmail("bob@example.com"))
	assert.Equal(t, "Jane", DeriveNameFromEmail("jane.smith@example.com"))
	assert.Equal(t, "Grandma", DeriveNameFromEmail("grandma+family@example.com"))
	assert.Equal(t, "there", DeriveNameFromEmail("@example.com"))
}
