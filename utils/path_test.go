package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveIfExist(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(p, []byte("1"), 0o644))

	removed, err := RemoveIfExist(p)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, FileExist(p))

	removed, err = RemoveIfExist(p)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestGenerateRandomHex(t *testing.T) {
	s := GenerateRandomHex(4)
	assert.Len(t, s, 8)
	assert.NotEqual(t, s, GenerateRandomHex(4))
}
