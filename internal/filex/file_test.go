package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirs_CreatesAndIsIdempotent(t *testing.T) {
	base := t.TempDir()

	first, err := EnsureDirs(base, "tickets", "downloads")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(base, "tickets"), filepath.Join(base, "downloads")}, first)

	second, err := EnsureDirs(base, "tickets", "downloads")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for _, d := range second {
		fi, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
	}
}

func TestEnsureDirs_FailsIfFileWithSameNameExists(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "tickets"), []byte("x"), 0o660))

	_, err := EnsureDirs(base, "tickets")
	require.Error(t, err)
}

func TestSize(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.bin")

	n, ok, err := Size(p)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, n)

	require.NoError(t, os.WriteFile(p, make([]byte, 123), 0o644))
	n, ok, err = Size(p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 123, n)

	_, _, err = Size(dir)
	require.Error(t, err)
}

func TestSHA256(t *testing.T) {
	p := filepath.Join(t.TempDir(), "abc")
	require.NoError(t, os.WriteFile(p, []byte("abc"), 0o644))

	sum, err := SHA256(p)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)
}

func TestSafeJoin(t *testing.T) {
	root := filepath.Join("dl", "480")

	got, err := SafeJoin(root, `bin\win64\game.exe`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "bin", "win64", "game.exe"), got)

	for _, bad := range []string{"", "../escape", `..\..\x`, "/etc/passwd"} {
		_, err := SafeJoin(root, bad)
		assert.ErrorIs(t, err, ErrUnsafePath, bad)
	}
}

func TestWriteAtomic_ReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ticket")

	require.NoError(t, WriteAtomic(path, []byte("first")))
	require.NoError(t, WriteAtomic(path, []byte("second")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteAtomic_MissingDir(t *testing.T) {
	err := WriteAtomic(filepath.Join(t.TempDir(), "nope", "a.ticket"), []byte("x"))
	require.Error(t, err)
}
