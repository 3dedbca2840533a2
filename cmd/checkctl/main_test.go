package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/service"
)

// testEnv points checkctl at a throwaway SQLite file and storage directory.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "equipcheck.db"))
	t.Setenv("STORAGE_PROVIDER", "local")
	t.Setenv("LOCAL_STORAGE_PATH", filepath.Join(dir, "storage"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("CATALOG_PATH", "")
	return dir
}

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "checkctl dev")
	assert.Contains(t, out, "commit: none")
}

func TestRootCmdHelp(t *testing.T) {
	out, err := runCmd(t, "", "--help")
	require.NoError(t, err)
	for _, sub := range []string{"migrate", "user", "pending", "summary", "catalog"} {
		assert.Contains(t, out, sub)
	}
}

func TestCatalogCmd(t *testing.T) {
	testEnv(t)

	out, err := runCmd(t, "", "catalog", "--items")
	require.NoError(t, err)
	assert.Contains(t, out, "AP1")
	assert.Contains(t, out, "MC5")
	assert.Contains(t, out, "Espejos")
}

func TestMigrateCmd(t *testing.T) {
	testEnv(t)

	out, err := runCmd(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite schema is up to date")

	out, err = runCmd(t, "", "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "no migration history")
}

func TestUserCmds(t *testing.T) {
	testEnv(t)

	out, err := runCmd(t, "", "user", "add", "jefe", "--full-name", "Miguel Alarcón", "--role", "supervisor", "--password", "Supervisa9")
	require.NoError(t, err)
	assert.Contains(t, out, `Created supervisor "jefe"`)

	out, err = runCmd(t, "Operador77\n", "user", "add", "ana", "--full-name", "Ana Pérez")
	require.NoError(t, err)
	assert.Contains(t, out, `Created operator "ana"`)

	_, err = runCmd(t, "", "user", "add", "ana", "--full-name", "Ana", "--password", "Operador77")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")

	_, err = runCmd(t, "", "user", "add", "luis", "--full-name", "Luis", "--password", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password:")

	out, err = runCmd(t, "", "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "jefe")
	assert.Contains(t, out, "Ana Pérez")
	assert.NotContains(t, out, "luis")
}

func TestPendingAndSummaryCmds(t *testing.T) {
	dir := testEnv(t)

	out, err := runCmd(t, "", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "No reports awaiting approval")

	// Seed a report through the same services the commands use.
	a, err := openApp(context.Background(), new(bytes.Buffer), false)
	require.NoError(t, err)
	_, err = a.reports.Submit(context.Background(), service.SubmitParams{
		EquipmentCode: "TP3",
		MeterReading:  88,
		OperatorUser:  "ana",
		OperatorName:  "Ana Pérez",
		Items: []domain.InspectionItem{
			{Section: "INSPECCIÓN", Item: "Ruedas", Status: domain.ItemStatusOperational},
		},
		OperatorSignatureRef: "signatures/operator/ana.png",
	})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	out, err = runCmd(t, "", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "TP3")
	assert.Contains(t, out, "Ana Pérez")

	pdf := filepath.Join(dir, "summary.pdf")
	out, err = runCmd(t, "", "summary", "--range", "all", "--pdf", pdf, "--supervisor", "Miguel Alarcón")
	require.NoError(t, err)
	assert.Contains(t, out, "Range: ")
	assert.Contains(t, out, "Reports")
	assert.Contains(t, out, "Not inspected:")
	assert.Contains(t, out, "Wrote "+pdf)

	data, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = runCmd(t, "", "summary", "--range", "yearly")
	assert.Error(t, err)
}

func TestMissingConfig(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := runCmd(t, "", "pending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
