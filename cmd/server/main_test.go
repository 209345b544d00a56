package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memoryConfig = `
app:
  name: "poc-test"
  env: "test"
  port: 18080
  shutdown_timeout: "1s"
logger:
  level: "error"
  format: "json"
  output_target: "stderr"
store:
  driver: "memory"
pagination:
  token_secret: "cli-test-secret-0123456789"
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(memoryConfig), 0o600))
	return path
}

func TestIndexesPlan_ListsEveryShape(t *testing.T) {
	out, err := run(t, "indexes", "plan")
	require.NoError(t, err)

	assert.Contains(t, out, "Index plan for exams")
	for _, name := range []string{"exams_pkey", "idx_created_at", "idx_status_result", "idx_patient_collected"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "NONE (scan)")
}

func TestIndexesApply_MemoryStore(t *testing.T) {
	out, err := run(t, "--config", writeConfig(t), "indexes", "apply")
	require.NoError(t, err)
	assert.Contains(t, out, "created:  idx_created_at, idx_status_result, idx_patient_collected")
	assert.Contains(t, out, "existing: exams_pkey")
}

func TestMigrate_MemoryStore(t *testing.T) {
	out, err := run(t, "--config", writeConfig(t), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "memory")
}

func TestSeed_WritesToStore(t *testing.T) {
	out, err := run(t, "--config", writeConfig(t), "seed", "--count", "120", "--patients", "5", "--batch", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted 120 exams into memory.")
}

func TestSeed_WritesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exams.csv")
	_, err := run(t, "seed", "--count", "30", "--patients", "3", "--csv", path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 31)
	assert.Equal(t, seed.CSVHeader, rows[0])
}

func TestSeed_RejectsBadFlags(t *testing.T) {
	_, err := run(t, "seed", "--count", "0", "--csv", filepath.Join(t.TempDir(), "x.csv"))
	require.Error(t, err)

	_, err = run(t, "seed", "--patients", "0", "--csv", filepath.Join(t.TempDir(), "x.csv"))
	require.Error(t, err)
}

func TestLoad_MissingConfig(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config loading failed")
}
