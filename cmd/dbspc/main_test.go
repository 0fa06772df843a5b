package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ariyn/dbsp/internal/dbsp/catalogstore"
)

func writeConfig(t *testing.T, dir, scriptBody string) string {
	t.Helper()
	scriptPath := filepath.Join(dir, "script.sql")
	if err := os.WriteFile(scriptPath, []byte(scriptBody), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	outputPath := filepath.Join(dir, "out.rs")
	configPath := filepath.Join(dir, "config.yaml")
	cfg := "compile:\n" +
		"  circuit_name: unit\n" +
		"  script: " + scriptPath + "\n" +
		"  output: " + outputPath + "\n"
	if err := os.WriteFile(configPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func TestRunCompilesScriptAndWritesOutput(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, "CREATE TABLE T (COL1 INT, COL2 FLOAT, COL3 BOOLEAN);\n"+
		"CREATE VIEW V AS SELECT T.COL3 FROM T;\n")

	if err := run(context.Background(), configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(dir, "out.rs"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(out), "pub fn unit") {
		t.Fatalf("expected emitted source to declare pub fn unit, got:\n%s", out)
	}
	if !strings.Contains(string(out), ".distinct()") {
		t.Fatalf("expected the view's trailing Distinct in the emission, got:\n%s", out)
	}
}

func TestRunRejectsMissingScript(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, "")
	os.Remove(filepath.Join(dir, "script.sql"))

	if err := run(context.Background(), configPath); err == nil {
		t.Fatalf("expected an error for a missing script file")
	}
}

func TestRunWithCatalogstoreRecordsStatementsAndEmission(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "script.sql")
	if err := os.WriteFile(scriptPath, []byte("CREATE TABLE T (X INT);\n"), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	storePath := filepath.Join(dir, "catalog.db")
	configPath := filepath.Join(dir, "config.yaml")
	cfg := "compile:\n" +
		"  circuit_name: unit\n" +
		"  script: " + scriptPath + "\n" +
		"  catalogstore:\n" +
		"    enabled: true\n" +
		"    path: " + storePath + "\n"
	if err := os.WriteFile(configPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := run(context.Background(), configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(storePath); err != nil {
		t.Fatalf("expected catalogstore db to be created: %v", err)
	}

	store, err := catalogstore.Open(storePath)
	if err != nil {
		t.Fatalf("reopen catalogstore: %v", err)
	}
	defer store.Close()
	var recorded []string
	if err := store.ReplayStatements(context.Background(), "unit", func(stmt string) error {
		recorded = append(recorded, stmt)
		return nil
	}); err != nil {
		t.Fatalf("ReplayStatements: %v", err)
	}
	if len(recorded) != 1 || recorded[0] != "CREATE TABLE T (X INT)" {
		t.Fatalf("expected the script's one statement to be recorded, got %v", recorded)
	}
	if _, ok, err := store.LoadLatestEmission(context.Background(), "unit"); err != nil || !ok {
		t.Fatalf("expected an emission to be saved, got ok=%v err=%v", ok, err)
	}
}
