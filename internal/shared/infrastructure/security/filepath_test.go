package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilePath_RejectsEmpty(t *testing.T) {
	_, err := ValidateFilePath("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestValidateFilePath_RejectsShellMetacharacters(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"semicolon", "/tmp/file;rm -rf /"},
		{"pipe", "/tmp/file|cat"},
		{"ampersand", "/tmp/file&"},
		{"dollar", "/tmp/$HOME/file"},
		{"backtick", "/tmp/`whoami`/file"},
		{"redirect", "/tmp/file>out"},
		{"newline", "/tmp/file\ninjected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateFilePath(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "forbidden character")
		})
	}
}

func TestValidateFilePath_MakesRelativePathsAbsolute(t *testing.T) {
	got, err := ValidateFilePath("request.json")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "request.json", filepath.Base(got))
}

func TestValidateFilePath_CleansTraversal(t *testing.T) {
	dir := t.TempDir()

	got, err := ValidateFilePath(filepath.Join(dir, "sub", "..", "request.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "request.json"), got)
}

func TestValidateFilePath_ResolvesSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.json")
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o600))

	link := filepath.Join(dir, "link.json")
	require.NoError(t, os.Symlink(target, link))

	got, err := ValidateFilePath(link)
	require.NoError(t, err)

	// EvalSymlinks may also resolve links in the temp dir prefix, so compare
	// against the resolved target.
	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidateFilePath_MissingFileReturnsCleanedPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.json")

	got, err := ValidateFilePath(missing)
	require.NoError(t, err)
	assert.Equal(t, missing, got)
}

func TestSafeReadFile(t *testing.T) {
	t.Run("reads a valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"ok":true}`), 0o600))

		data, err := SafeReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, string(data))
	})

	t.Run("rejects a poisoned path", func(t *testing.T) {
		_, err := SafeReadFile("/tmp/doc.json;id")
		require.Error(t, err)
	})

	t.Run("missing file surfaces the read error", func(t *testing.T) {
		_, err := SafeReadFile(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})
}
