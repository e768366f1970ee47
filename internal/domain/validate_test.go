package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFolderName(t *testing.T) {
	name, err := ValidateFolderName("  Docs  ")
	require.NoError(t, err)
	assert.Equal(t, "Docs", name)

	name, err = ValidateFolderName(strings.Repeat("a", 100))
	require.NoError(t, err)
	assert.Len(t, name, 100)

	for _, bad := range []string{"", "   ", "a/b", `a\b`, "a:b", "a?b", strings.Repeat("a", 101)} {
		_, err := ValidateFolderName(bad)
		assert.Equalf(t, KindValidation, KindOf(err), "name %q", bad)
	}
}

func TestValidateFileName(t *testing.T) {
	name, err := ValidateFileName("report (final).pdf")
	require.NoError(t, err)
	assert.Equal(t, "report (final).pdf", name)

	// Files allow longer names than folders.
	_, err = ValidateFileName(strings.Repeat("a", 255))
	assert.NoError(t, err)

	for _, bad := range []string{"", "a|b.txt", "a*b.txt", strings.Repeat("a", 256)} {
		_, err := ValidateFileName(bad)
		assert.Equalf(t, KindValidation, KindOf(err), "name %q", bad)
	}
}
