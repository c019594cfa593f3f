package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  string
		name     string
	}{
		{"0001_create_clients.sql", true, "0001", "create_clients"},
		{"0012_add_external_ref.sql", true, "0012", "add_external_ref"},
		{"001_invalid.sql", false, "", ""},       // wrong number format
		{"0001_test", false, "", ""},             // missing .sql
		{"0001.sql", false, "", ""},              // missing name
		{"invalid_0001_test.sql", false, "", ""}, // wrong order
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			matches := migrationPattern.FindStringSubmatch(tt.filename)
			if tt.valid {
				if matches == nil {
					t.Fatalf("%s should match", tt.filename)
				}
				if matches[1] != tt.version || matches[2] != tt.name {
					t.Errorf("parsed %s as version %s name %s", tt.filename, matches[1], matches[2])
				}
			} else if matches != nil {
				t.Errorf("%s should not match", tt.filename)
			}
		})
	}
}

func TestReadMigrationsSubstitutesAndSorts(t *testing.T) {
	dir := t.TempDir()
	write := func(name, sql string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("0002_second.sql", "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.b` (id STRING);")
	write("0001_first.sql", "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id STRING);")
	write("notes.txt", "not a migration")

	migrations, err := readMigrations(dir, "my-project", "finance")
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("migrations out of order: %+v", migrations)
	}
	if !strings.Contains(migrations[0].SQL, "`my-project.finance.a`") {
		t.Errorf("placeholders not substituted: %s", migrations[0].SQL)
	}
	if migrations[0].Checksum == "" || migrations[0].Checksum == migrations[1].Checksum {
		t.Error("checksums missing or colliding")
	}
}

func TestReadMigrationsChecksumIgnoresSubstitution(t *testing.T) {
	dir := t.TempDir()
	sql := "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id STRING);"
	if err := os.WriteFile(filepath.Join(dir, "0001_a.sql"), []byte(sql), 0o644); err != nil {
		t.Fatal(err)
	}

	one, err := readMigrations(dir, "project-one", "finance")
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	two, err := readMigrations(dir, "project-two", "other")
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	if one[0].Checksum != two[0].Checksum {
		t.Error("checksum depends on project/dataset substitution")
	}
}

func TestReadMigrationsMissingDir(t *testing.T) {
	if _, err := readMigrations(filepath.Join(t.TempDir(), "nope"), "p", "d"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
