package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rfreconcile/internal/config"
	"github.com/agentstation/rfreconcile/pkg/errors"
)

const validSettings = `
input_files:
  physical_parameters: data/input/table_physical_parameters.xlsx
  anomalous_data: data/input/anomalous_stations.xlsx
  anomalous_sheet: anomalous_stations_data
  template_reference: data/input/template.xlsx
output_files:
  corrected_data_dir: data/output/corrected
  reports_dir: data/output/reports
  backups_dir: data/output/backups
  logs_dir: logs
processing:
  create_backup: true
  use_template_as_reference: true
  detect_extended_cells: true
  require_manual_review_threshold: 0.3
geographic_validation:
  latitude_min: -4.5
  latitude_max: 13.5
  longitude_min: -79.5
  longitude_max: -66.5
structure_validation:
  height_min: 0
  height_max: 200
structure_type_priority:
  TORRE: 3
  MONOPOLO: 2
  TERRAZA: 1
coordinate_threshold: 0.0001
system_user: rf_reconciliation
`

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	s, err := config.Load(writeSettings(t, validSettings))
	require.NoError(t, err)

	assert.Equal(t, "anomalous_stations_data", s.InputFiles.AnomalousSheet)
	assert.True(t, s.Processing.CreateBackup)
	assert.True(t, s.TemplateEnabled())
	assert.InDelta(t, 0.3, s.Processing.RequireManualReviewThreshold, 1e-9)
	assert.InDelta(t, 0.01, s.ExtendedCellDistanceThreshold, 1e-9)
	assert.True(t, s.NameSimilarity.UseFuzzyMatching)
	assert.InDelta(t, 0.7, s.NameSimilarity.SimilarityThreshold, 1e-9)
	assert.Len(t, s.StructureTypePriority, 3)

	sel := s.Selectors()
	assert.Equal(t, -4.5, sel.Latitude.Min)
	assert.Equal(t, 200.0, sel.Height.Max)

	engine := s.Engine()
	assert.Equal(t, "rf_reconciliation", engine.SystemUser)
	assert.Equal(t, sel, engine.Selectors)

	assert.Equal(t, sel.Longitude, s.Validation().Longitude)
	assert.True(t, s.Template().UseFuzzyMatching)
	assert.Len(t, s.Detector(), 1)
	assert.Contains(t, s.Dirs(), "logs")
	assert.Contains(t, s.Dirs(), filepath.Join("data", "input"))
}

func TestLoadMissingKeys(t *testing.T) {
	content := strings.Replace(validSettings, "system_user: rf_reconciliation\n", "", 1)
	content = strings.Replace(content, "coordinate_threshold: 0.0001\n", "", 1)

	_, err := config.Load(writeSettings(t, content))
	require.Error(t, err)

	var cerr *errors.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), "system_user")
	assert.Contains(t, err.Error(), "coordinate_threshold")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RFR_SYSTEM_USER", "from_env")
	s, err := config.Load(writeSettings(t, validSettings))
	require.NoError(t, err)
	assert.Equal(t, "from_env", s.SystemUser)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var cerr *errors.ConfigError
	assert.True(t, errors.As(err, &cerr))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		field   string
	}{
		{"inverted latitude", [2]string{"latitude_max: 13.5", "latitude_max: -10"}, "LatitudeMax"},
		{"threshold above one", [2]string{"require_manual_review_threshold: 0.3", "require_manual_review_threshold: 1.5"}, "RequireManualReviewThreshold"},
		{"inverted height", [2]string{"height_max: 200", "height_max: -1"}, "HeightMax"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Replace(validSettings, tt.replace[0], tt.replace[1], 1)
			_, err := config.Load(writeSettings(t, content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
