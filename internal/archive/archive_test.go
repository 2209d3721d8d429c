package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMoveRelocatesFiles(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "old") // Move must create it

	a := writeFile(t, filepath.Join(src, "inv_1705329000000.txt"), "email")
	b := writeFile(t, filepath.Join(src, "inv_1705329000000_invoice.pdf"), "pdf")

	Move([]string{a, b}, dst, nil)

	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
	assert.FileExists(t, filepath.Join(dst, "inv_1705329000000.txt"))
	assert.FileExists(t, filepath.Join(dst, "inv_1705329000000_invoice.pdf"))
}

func TestMoveCollisionGetsSuffix(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(dst, "inv_1705329000000.txt"), "earlier run")
	p := writeFile(t, filepath.Join(src, "inv_1705329000000.txt"), "this run")

	Move([]string{p}, dst, nil)

	moved := filepath.Join(dst, "inv_1705329000000_duplicate.txt")
	require.FileExists(t, moved)
	data, err := os.ReadFile(moved)
	require.NoError(t, err)
	assert.Equal(t, "this run", string(data))

	original, err := os.ReadFile(filepath.Join(dst, "inv_1705329000000.txt"))
	require.NoError(t, err)
	assert.Equal(t, "earlier run", string(original))
}

func TestMoveMissingSourceDoesNotAbort(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	good := writeFile(t, filepath.Join(src, "good_1705329000000.txt"), "ok")
	missing := filepath.Join(src, "gone_1705329000000.txt")

	Move([]string{missing, good}, dst, nil)

	assert.FileExists(t, filepath.Join(dst, "good_1705329000000.txt"))
}
