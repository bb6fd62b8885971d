package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/comtw/admscrape/internal/config"
	"github.com/comtw/admscrape/internal/database"
	"github.com/comtw/admscrape/internal/model"
	"github.com/comtw/admscrape/internal/pipeline"
)

func TestBuildSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    pipeline.Selection
		wantErr error
	}{
		{name: "everything", args: nil, want: pipeline.Selection{}},
		{name: "method only", args: []string{"-m", "star"}, want: pipeline.Selection{Method: model.MethodStar}},
		{name: "method and year", args: []string{"--method", "exam", "--year", "113"},
			want: pipeline.Selection{Method: model.MethodExam, Year: "113"}},
		{name: "unknown method", args: []string{"-m", "bogus"}, wantErr: model.ErrUnknownMethod},
		{name: "year is not a number", args: []string{"-y", "latest"}, wantErr: errInvalidYear},
		{name: "year is zero", args: []string{"-y", "0"}, wantErr: errInvalidYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewScrapeCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}

			got, err := buildSelection(cmd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("buildSelection() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildSelection() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("buildSelection() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestRunScrapeCmd_Rejected tests the failures reported before anything is
// opened or fetched.
func TestRunScrapeCmd_Rejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("fetcher:\n  retry: 0\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"unknown method", []string{"scrape", "-m", "bogus"}, model.ErrUnknownMethod},
		{"missing config file", []string{"scrape", "-c", filepath.Join(dir, "missing.yaml")}, config.ErrConfigNotFound},
		{"invalid config", []string{"scrape", "-c", invalid}, config.ErrInvalidRetry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			root := NewRootCmd()
			root.SetOut(&out)
			root.SetErr(&out)
			root.SetArgs(tt.args)

			if err := root.Execute(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteReports(t *testing.T) {
	t.Parallel()

	run := model.NewRunReport()
	run.Add(&model.CrawlStats{Method: model.MethodExam, Year: "113", Lists: 4, PersonsInserted: 120})

	dir := filepath.Join(t.TempDir(), "reports")
	tests := []struct {
		file  string
		check func(t *testing.T, content []byte)
	}{
		{"run.md", func(t *testing.T, content []byte) {
			if !strings.Contains(string(content), "# Admission Scrape Report") {
				t.Errorf("expected a Markdown report, got %q", content)
			}
		}},
		{"run.json", func(t *testing.T, content []byte) {
			var decoded struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(content, &decoded); err != nil || decoded.ID != run.ID {
				t.Errorf("expected a JSON report with id %s, got %q (%v)", run.ID, content, err)
			}
		}},
		{"run.txt", func(t *testing.T, content []byte) {
			if !strings.Contains(string(content), "120") {
				t.Errorf("expected a table with the inserted count, got %q", content)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(dir, tt.file)
			var stdout bytes.Buffer
			if err := writeReports(&stdout, path, run); err != nil {
				t.Fatalf("writeReports() error = %v", err)
			}
			if !strings.Contains(stdout.String(), "120") {
				t.Errorf("expected the summary table on stdout, got %q", stdout.String())
			}
			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read report: %v", err)
			}
			tt.check(t, content)
		})
	}
}

func TestWriteReports_StdoutOnly(t *testing.T) {
	t.Parallel()

	run := model.NewRunReport()
	run.Add(&model.CrawlStats{Method: model.MethodStar, Year: "112", PersonsInserted: 42})

	var stdout bytes.Buffer
	if err := writeReports(&stdout, "", run); err != nil {
		t.Fatalf("writeReports() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "42") {
		t.Errorf("expected the summary table on stdout, got %q", stdout.String())
	}
}

func TestStoreOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want database.Options
	}{
		{
			name: "sqlite keeps write-ahead logging",
			cfg:  config.DatabaseConfig{Driver: config.DriverSQLite, Path: "/data/admscrape.db"},
			want: database.Options{Driver: database.DriverSQLite, Path: "/data/admscrape.db", EnableWAL: true},
		},
		{
			name: "empty driver falls back to sqlite",
			cfg:  config.DatabaseConfig{Path: "run.db"},
			want: database.Options{Driver: database.DriverSQLite, Path: "run.db", EnableWAL: true},
		},
		{
			name: "libsql takes the dsn",
			cfg:  config.DatabaseConfig{Driver: config.DriverLibSQL, DSN: "libsql://db.example.test?authToken=x"},
			want: database.Options{Driver: database.DriverLibSQL, DSN: "libsql://db.example.test?authToken=x", EnableWAL: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, storeOptions(tt.cfg)); diff != "" {
				t.Errorf("storeOptions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
