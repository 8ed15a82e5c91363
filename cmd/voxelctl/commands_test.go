package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/annel0/voxel-sandbox/internal/auth"
	"github.com/annel0/voxel-sandbox/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"voxelctl"}, args...))
	return out.String(), err
}

func TestGenerateAndInspect(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	file := filepath.Join(t.TempDir(), "world.sav")

	out, err := run(t, "generate", "--world-size", "2", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "4 чанков, 64 блоков")

	out, err = run(t, "inspect", "--json", "--file", file)
	require.NoError(t, err)

	var s saveSummary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, storage.FormatVersion, s.Version)
	assert.Equal(t, 4, s.Chunks)
	assert.Equal(t, 64, s.Blocks)
	assert.Equal(t, [3]float64{0, 30, 0}, s.Player)
	require.Greater(t, len(s.Kinds), 3)
	assert.Equal(t, 64, s.Kinds[3], "генерация ставит только материал по умолчанию")

	out, err = run(t, "inspect", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, s.SaveID)
}

func TestInspectErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "inspect", "--file", filepath.Join(dir, "missing.sav"))
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)

	broken := filepath.Join(dir, "broken.sav")
	require.NoError(t, os.WriteFile(broken, []byte("not a save"), 0644))
	_, err = run(t, "inspect", "--file", broken)
	assert.ErrorIs(t, err, storage.ErrCorrupt)

	_, err = run(t, "inspect")
	assert.ErrorContains(t, err, "не задано хранилище")

	_, err = run(t, "inspect", "--file", broken, "--badger", dir)
	assert.ErrorContains(t, err, "только один")
}

func TestCopyToBadgerAndSlots(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	dir := t.TempDir()
	file := filepath.Join(dir, "world.sav")
	db := filepath.Join(dir, "db")

	_, err := run(t, "generate", "--world-size", "1", "--file", file)
	require.NoError(t, err)

	out, err := run(t, "copy", "--from-file", file, "--to-badger", db, "--to-slot", "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "Скопировано")

	fileOut, err := run(t, "inspect", "--json", "--file", file)
	require.NoError(t, err)
	slotOut, err := run(t, "inspect", "--json", "--badger", db, "--slot", "backup")
	require.NoError(t, err)
	assert.JSONEq(t, fileOut, slotOut)

	out, err = run(t, "slots", "--badger", db)
	require.NoError(t, err)
	assert.Equal(t, "backup\n", out)

	out, err = run(t, "slots", "--badger", db, "--delete", "backup")
	require.NoError(t, err)
	assert.Equal(t, []string{"🗑 Слот backup удалён"}, strings.Split(strings.TrimSpace(out), "\n"))
}

func TestToken(t *testing.T) {
	secret, err := run(t, "token", "secret")
	require.NoError(t, err)
	secret = strings.TrimSpace(secret)

	issuer, err := auth.NewTokenIssuer(secret)
	require.NoError(t, err)

	out, err := run(t, "token", "--secret", secret, "--subject", "ops")
	require.NoError(t, err)
	claims, err := issuer.Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.True(t, claims.IsAdmin)

	out, err = run(t, "token", "--secret", secret, "--viewer")
	require.NoError(t, err)
	claims, err = issuer.Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin)

	t.Setenv("VOXEL_ADMIN_SECRET", "")
	_, err = run(t, "token")
	assert.Error(t, err)
}
