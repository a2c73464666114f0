package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/testutil"
)

func runCLI(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(ctx, args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRunPatchToOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	orig := testutil.LengthPrefixed(9, "<Level>3</Level><UsedMods>ModA</UsedMods>", []byte{0xff, 0x00})
	src := testutil.WriteSave(t, dir, "quicksave.whs", orig)
	out := filepath.Join(dir, "clean.whs")

	stdout, err := runCLI(t, context.Background(), "-profile", "kcd2", "patch", "-o", out, src)
	require.NoError(t, err)
	assert.Contains(t, stdout, "cleaned "+out)

	desc, rest := testutil.Description(t, testutil.ReadSave(t, out))
	assert.Equal(t, "<Level>3</Level><UsedMods></UsedMods>", desc)
	assert.Equal(t, []byte{0xff, 0x00}, rest)
	assert.Equal(t, orig, testutil.ReadSave(t, src))
}

func TestRunPatchNothingToDo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := testutil.WriteSave(t, dir, "a.whs", testutil.LengthPrefixed(1, "<Level>3</Level>", nil))

	stdout, err := runCLI(t, context.Background(), "patch", src)
	require.NoError(t, err)
	assert.Contains(t, stdout, "no mod list")
}

func TestRunPatchMalformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := testutil.WriteSave(t, dir, "a.whs", []byte{1, 2, 3})

	_, err := runCLI(t, context.Background(), "-layout", "length-prefixed", "patch", src)
	assert.Error(t, err)
	assert.Equal(t, []byte{1, 2, 3}, testutil.ReadSave(t, src))
}

func TestRunCleanDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := testutil.WriteSave(t, dir, "a.whs", testutil.Padded("HDR", "ModA,ModB", 4, "TAIL"))
	b := testutil.WriteSave(t, dir, "sub/b.whs", testutil.Padded("HDR", "", 0, "TAIL"))

	stdout, err := runCLI(t, context.Background(), "-profile", "kcd1", "clean", dir)
	require.NoError(t, err)
	assert.Equal(t, "cleaned=1 nothing_to_do=1 failed=0\n", stdout)

	assert.Equal(t, testutil.Padded("HDR", "", 13, "TAIL"), testutil.ReadSave(t, a))
	assert.Equal(t, testutil.Padded("HDR", "", 0, "TAIL"), testutil.ReadSave(t, b))
}

func TestRunBackupAndRestore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backups := filepath.Join(dir, "backups")
	orig := testutil.LengthPrefixed(1, "<UsedMods>ModA</UsedMods>", []byte("rest"))
	src := testutil.WriteSave(t, dir, "a.whs", orig)

	_, err := runCLI(t, context.Background(), "-backup-dir", backups, "patch", src)
	require.NoError(t, err)
	assert.NotEqual(t, orig, testutil.ReadSave(t, src))

	restored := filepath.Join(dir, "restored.whs")
	stdout, err := runCLI(t, context.Background(),
		"-backup-dir", backups, "restore", "-o", restored, digest.FromBytes(orig).String())
	require.NoError(t, err)
	assert.Contains(t, stdout, "restored")
	assert.Equal(t, orig, testutil.ReadSave(t, restored))
}

func TestRunRestoreNeedsBackupDir(t *testing.T) {
	t.Parallel()

	_, err := runCLI(t, context.Background(), "restore", "-o", filepath.Join(t.TempDir(), "x"), digest.FromString("x").String())
	assert.ErrorContains(t, err, "backup-dir")
}

func TestRunLogFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "cleaner.log")
	src := testutil.WriteSave(t, dir, "a.whs", testutil.LengthPrefixed(1, "<UsedMods>x</UsedMods>", nil))

	for range 2 {
		_, err := runCLI(t, context.Background(), "-log-file", logPath, "patch", src)
		require.NoError(t, err)
	}
	data, err := os.ReadFile(logPath) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(data, []byte("outcome=cleaned")))
	assert.Equal(t, 1, bytes.Count(data, []byte("outcome=nothing_to_do")))
}

func TestRunWatchStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runCLI(t, ctx, "-root", t.TempDir(), "watch")
	assert.NoError(t, err)
}

func TestRunUsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"patch without file", []string{"patch"}},
		{"watch with args", []string{"watch", "extra"}},
		{"restore bad digest", []string{"-backup-dir", "b", "restore", "-o", "x", "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := runCLI(t, context.Background(), tt.args...)
			require.ErrorIs(t, err, errUsage)
			assert.Equal(t, 2, exitCode(err))
		})
	}
}

func TestRunInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := runCLI(t, context.Background(), "-profile", "kcd9", "patch", "x.whs")
	assert.ErrorContains(t, err, "unknown profile")
}
