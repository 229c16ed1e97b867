package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agentstation/rfreconcile/internal/config"
	"github.com/agentstation/rfreconcile/pkg/errors"
	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

var testTime = time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

var physicalHeader = []string{
	"station_id", "station_cell_id", "name", "latitude", "longitude",
	"structure_height", "structure_owner", "structure_type", "tx_type", "cell_type",
	"db_modified_by_user", "db_modification_datetime",
}

// writeInputs creates a physical-parameters workbook and an anomalous
// workbook for station ABB under dir.
func writeInputs(t *testing.T, dir string) (physical, anomalous string) {
	t.Helper()
	physical = filepath.Join(dir, "input", "physical.xlsx")
	anomalous = filepath.Join(dir, "input", "anomalous.xlsx")
	if err := os.MkdirAll(filepath.Dir(physical), 0o755); err != nil {
		t.Fatal(err)
	}

	lte := workbook.Sheet{Name: "LTE", Header: physicalHeader, Rows: [][]any{
		{"ABB", "ABB_1", "Site Alpha", "1.234", "-75.0", "30", "ACME", "TORRE", "", "Macro", "", ""},
		{"ABB", "ABB_2", "Site Alfa", "1.236", "-75.0", "35", "ACME", "TORRE", "MW", "Macro", "", ""},
	}}
	if err := workbook.WriteSheets(physical, lte); err != nil {
		t.Fatalf("writing physical workbook: %v", err)
	}

	sheet := workbook.Sheet{
		Name: "anomalous_stations_data",
		Header: []string{
			"station_id", "sector_id", "technology", "name", "latitude", "longitude",
			"structure_height", "structure_owner", "structure_type",
		},
		Rows: [][]any{
			{"ABB", "1", "LTE", "'Site Alpha','Site Alfa'", "'1.234','1.236'", "'-75.0'", "'30','35'", "'ACME'", "'TORRE'"},
		},
	}
	if err := workbook.WriteSheets(anomalous, sheet); err != nil {
		t.Fatalf("writing anomalous workbook: %v", err)
	}
	return physical, anomalous
}

func testSettings(dir, physical, anomalous string) *config.Settings {
	return &config.Settings{
		InputFiles: config.InputFiles{
			PhysicalParameters: physical,
			AnomalousData:      anomalous,
			AnomalousSheet:     "anomalous_stations_data",
		},
		OutputFiles: config.OutputFiles{
			CorrectedDataDir: filepath.Join(dir, "corrected"),
			ReportsDir:       filepath.Join(dir, "reports"),
			BackupsDir:       filepath.Join(dir, "backups"),
			LogsDir:          filepath.Join(dir, "logs"),
		},
		Processing: config.Processing{
			CreateBackup:                 true,
			DetectExtendedCells:          true,
			RequireManualReviewThreshold: 0.3,
		},
		GeographicValidation:          config.GeographicValidation{LatitudeMin: -5, LatitudeMax: 15, LongitudeMin: -80, LongitudeMax: -66},
		StructureValidation:           config.StructureValidation{HeightMin: 0, HeightMax: 200},
		StructureTypePriority:         map[string]int{"TORRE": 3, "MONOPOLO": 2},
		CoordinateThreshold:           0.001,
		ExtendedCellDistanceThreshold: 0.01,
		SystemUser:                    "tester",
	}
}

func newTestApp(t *testing.T, s *config.Settings, out *bytes.Buffer) *App {
	t.Helper()
	app, err := New("1.0.0", "abc123", "2024-01-01", "test",
		WithConfig(&Config{Format: "json", LogFormat: "json", LogOutput: "discard"}),
		WithLogger(logging.NewNopLogger()),
		WithSettings(s),
		WithClock(func() time.Time { return testTime }),
		WithOutput(out),
		WithErrorOutput(out),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return app
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
}

// TestApp_NilOptions verifies nil clock and output are rejected.
func TestApp_NilOptions(t *testing.T) {
	if _, err := New("1.0.0", "", "", "", WithClock(nil)); !errors.IsValidationError(err) {
		t.Errorf("WithClock(nil) error = %v, want validation error", err)
	}
	if _, err := New("1.0.0", "", "", "", WithOutput(nil)); !errors.IsValidationError(err) {
		t.Errorf("WithOutput(nil) error = %v, want validation error", err)
	}
}

// TestApp_Settings_ThreadSafe verifies concurrent Settings() calls share one load.
func TestApp_Settings_ThreadSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
input_files:
  physical_parameters: in/physical.xlsx
  anomalous_data: in/anomalous.xlsx
output_files:
  corrected_data_dir: out/corrected
  reports_dir: out/reports
  backups_dir: out/backups
  logs_dir: logs
processing:
  create_backup: false
  require_manual_review_threshold: 0.3
geographic_validation:
  latitude_min: -5
  latitude_max: 15
  longitude_min: -80
  longitude_max: -66
structure_validation:
  height_min: 0
  height_max: 200
structure_type_priority:
  TORRE: 3
coordinate_threshold: 0.001
system_user: tester
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := New("1.0.0", "", "", "",
		WithConfig(&Config{LogOutput: "discard", SettingsFile: path}),
		WithLogger(logging.NewNopLogger()),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	const goroutines = 20
	var wg sync.WaitGroup
	results := make([]*config.Settings, goroutines)
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = app.Settings()
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Goroutine %d: Settings() failed: %v", i, err)
		}
		if results[i] != results[0] {
			t.Errorf("Goroutine %d got different settings instance", i)
		}
	}
}

// TestApp_Run runs the pipeline end to end on temporary workbooks.
func TestApp_Run(t *testing.T) {
	dir := t.TempDir()
	physical, anomalous := writeInputs(t, dir)
	s := testSettings(dir, physical, anomalous)

	var out bytes.Buffer
	app := newTestApp(t, s, &out)

	report, err := app.Run(context.Background(), RunOptions{FillBlanks: true})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	for _, path := range []string{
		report.Outputs.Corrected,
		report.Outputs.Correction,
		report.Outputs.Validation,
		report.Outputs.Complete,
		report.Outputs.Log,
		filepath.Join(s.OutputFiles.BackupsDir, "20240304_050607_physical.xlsx"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s: %v", path, err)
		}
	}

	if report.Result.Metadata.Stats.SitesProcessed != 1 {
		t.Errorf("SitesProcessed = %d, want 1", report.Result.Metadata.Stats.SitesProcessed)
	}
	if len(report.Result.Corrections) == 0 {
		t.Error("expected corrections")
	}
	if report.Comparison == nil {
		t.Fatal("expected a validation comparison")
	}
	if report.Blanks == nil || report.Blanks.TotalBlanks != 1 {
		t.Errorf("Blanks = %+v, want one blank tx_type", report.Blanks)
	}

	corrected, err := workbook.Load(report.Outputs.Complete)
	if err != nil {
		t.Fatalf("loading completed workbook: %v", err)
	}
	for _, row := range corrected.StationRows("ABB") {
		if row.Get(sites.FieldTxType) != "MW" {
			t.Errorf("tx_type = %q, want MW", row.Get(sites.FieldTxType))
		}
		if row.Get(sites.FieldStructureHeight) != "35" {
			t.Errorf("structure_height = %q, want 35", row.Get(sites.FieldStructureHeight))
		}
	}

	if !strings.Contains(out.String(), `"Reconciliation complete"`) {
		t.Errorf("success alert not written, got %q", out.String())
	}
	if !strings.Contains(out.String(), `"total_corrections"`) {
		t.Errorf("summary not printed, got %q", out.String())
	}
}

// TestApp_Run_MissingInput verifies a missing input file fails the run.
func TestApp_Run_MissingInput(t *testing.T) {
	dir := t.TempDir()
	s := testSettings(dir, filepath.Join(dir, "nope.xlsx"), filepath.Join(dir, "nope2.xlsx"))

	var out bytes.Buffer
	_, err := newTestApp(t, s, &out).Run(context.Background(), RunOptions{})
	if err == nil {
		t.Fatal("Run() succeeded with missing inputs")
	}
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("error = %T, want *errors.IOError", err)
	}
	if got := ExitCode(err); got != ExitNotFound {
		t.Errorf("ExitCode() = %d, want %d", got, ExitNotFound)
	}
}

// TestExitCode verifies each error kind maps to its exit status.
func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"not found", errors.NewIOError("open", "a.xlsx", errors.NewNotFoundError("file", "a.xlsx")), ExitNotFound},
		{"sheet not found", errors.NewNotFoundError("sheet", "LTE"), ExitNotFound},
		{"validation", errors.NewValidationError("clock", nil, "cannot be nil"), ExitInvalid},
		{"missing columns", errors.NewMissingColumnsError("baseline", []string{"latitude"}), ExitInvalid},
		{"canceled", errors.Join(errors.ErrCanceled, context.Canceled), ExitCanceled},
		{"other", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// TestApp_FillBlanks_ReportOnly verifies report-only mode leaves the input untouched.
func TestApp_FillBlanks_ReportOnly(t *testing.T) {
	dir := t.TempDir()
	physical, anomalous := writeInputs(t, dir)
	s := testSettings(dir, physical, anomalous)

	var out bytes.Buffer
	app := newTestApp(t, s, &out)

	stats, err := app.FillBlanks(FillOptions{Input: physical, ReportOnly: true})
	if err != nil {
		t.Fatalf("FillBlanks() failed: %v", err)
	}
	if stats.StillBlank != 1 {
		t.Errorf("StillBlank = %d, want 1", stats.StillBlank)
	}

	report := filepath.Join(s.OutputFiles.ReportsDir, "20240304_050607_blank_fields_report.xlsx")
	if _, err := os.Stat(report); err != nil {
		t.Errorf("blank report not written: %v", err)
	}
	if _, err := os.Stat(FilledName(physical)); !os.IsNotExist(err) {
		t.Error("report-only mode wrote a filled workbook")
	}
}

// TestApp_Validate verifies the standalone validation report.
func TestApp_Validate(t *testing.T) {
	dir := t.TempDir()
	physical, anomalous := writeInputs(t, dir)
	s := testSettings(dir, physical, anomalous)

	var out bytes.Buffer
	app := newTestApp(t, s, &out)

	path := filepath.Join(dir, "validation.xlsx")
	cmp, err := app.Validate(ValidateOptions{Original: physical, Corrected: physical, Output: path})
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	for _, m := range cmp.Metrics {
		if m.Improvement() != 0 {
			t.Errorf("%s improvement = %d, want 0", m.Name, m.Improvement())
		}
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("validation report not written: %v", err)
	}
}

// TestExecute_Version verifies the version command output.
func TestExecute_Version(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, nil, &out)

	if err := app.Execute(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("Execute(version) failed: %v", err)
	}
	for _, want := range []string{"rfreconcile version 1.0.0", "commit: abc123", "platform:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("version output missing %q:\n%s", want, out.String())
		}
	}
}

// TestExecute_InvalidFormat verifies an unknown output format is rejected.
func TestExecute_InvalidFormat(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, nil, &out)

	if err := app.Execute(context.Background(), []string{"version", "--format", "xml"}); err == nil {
		t.Error("Execute() accepted format xml")
	}
}

func TestFilledName(t *testing.T) {
	tests := map[string]string{
		"data/corrected.xlsx": "data/corrected_filled.xlsx",
		"corrected":           "corrected_filled.xlsx",
	}
	for in, want := range tests {
		if got := FilledName(in); got != want {
			t.Errorf("FilledName(%q) = %q, want %q", in, got, want)
		}
	}
}
