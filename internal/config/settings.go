// Package config loads the reconciliation settings file.
//
// Settings come from a YAML file (config/settings.yaml by default) with
// RFR_-prefixed environment overrides. Every required key is checked up
// front, then the decoded struct is validated, so a bad configuration
// fails before any workbook is read.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/agentstation/rfreconcile/pkg/errors"
	"github.com/agentstation/rfreconcile/pkg/extended"
	"github.com/agentstation/rfreconcile/pkg/reconcile"
	"github.com/agentstation/rfreconcile/pkg/selector"
	"github.com/agentstation/rfreconcile/pkg/template"
	"github.com/agentstation/rfreconcile/pkg/validation"
)

// Settings is the typed reconciliation configuration.
type Settings struct {
	InputFiles                    InputFiles           `mapstructure:"input_files"`
	OutputFiles                   OutputFiles          `mapstructure:"output_files"`
	Processing                    Processing           `mapstructure:"processing"`
	GeographicValidation          GeographicValidation `mapstructure:"geographic_validation"`
	StructureValidation           StructureValidation  `mapstructure:"structure_validation"`
	StructureTypePriority         map[string]int       `mapstructure:"structure_type_priority" validate:"required,min=1"`
	CoordinateThreshold           float64              `mapstructure:"coordinate_threshold" validate:"gte=0"`
	ExtendedCellDistanceThreshold float64              `mapstructure:"extended_cell_distance_threshold" validate:"gt=0"`
	NameSimilarity                NameSimilarity       `mapstructure:"name_similarity"`
	SystemUser                    string               `mapstructure:"system_user" validate:"required"`

	// Path is the settings file the values were read from.
	Path string `mapstructure:"-"`
}

// InputFiles locates the input workbooks.
type InputFiles struct {
	PhysicalParameters string `mapstructure:"physical_parameters" validate:"required"`
	AnomalousData      string `mapstructure:"anomalous_data" validate:"required"`
	AnomalousSheet     string `mapstructure:"anomalous_sheet" validate:"required"`
	TemplateReference  string `mapstructure:"template_reference"`
}

// OutputFiles locates the output directories.
type OutputFiles struct {
	CorrectedDataDir string `mapstructure:"corrected_data_dir" validate:"required"`
	ReportsDir       string `mapstructure:"reports_dir" validate:"required"`
	BackupsDir       string `mapstructure:"backups_dir" validate:"required"`
	LogsDir          string `mapstructure:"logs_dir" validate:"required"`
}

// Processing toggles optional stages.
type Processing struct {
	CreateBackup                 bool    `mapstructure:"create_backup"`
	UseTemplateAsReference       bool    `mapstructure:"use_template_as_reference"`
	DetectExtendedCells          bool    `mapstructure:"detect_extended_cells"`
	RequireManualReviewThreshold float64 `mapstructure:"require_manual_review_threshold" validate:"gte=0,lte=1"`
}

// GeographicValidation bounds coordinates.
type GeographicValidation struct {
	LatitudeMin  float64 `mapstructure:"latitude_min" validate:"gte=-90,lte=90"`
	LatitudeMax  float64 `mapstructure:"latitude_max" validate:"gte=-90,lte=90,gtfield=LatitudeMin"`
	LongitudeMin float64 `mapstructure:"longitude_min" validate:"gte=-180,lte=180"`
	LongitudeMax float64 `mapstructure:"longitude_max" validate:"gte=-180,lte=180,gtfield=LongitudeMin"`
}

// StructureValidation bounds structure heights.
type StructureValidation struct {
	HeightMin float64 `mapstructure:"height_min" validate:"gte=0"`
	HeightMax float64 `mapstructure:"height_max" validate:"gtfield=HeightMin"`
}

// NameSimilarity configures template name matching.
type NameSimilarity struct {
	UseFuzzyMatching    bool    `mapstructure:"use_fuzzy_matching"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"gte=0,lte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads settings from path.
func Load(path string) (*Settings, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewConfigError("settings", "cannot read "+path, err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.NewConfigError("settings", "invalid settings file "+path, err)
	}
	if err := bindRequired(v); err != nil {
		return nil, err
	}
	if missing := missingKeys(v); len(missing) > 0 {
		return nil, errors.NewConfigError("settings", "missing required keys: "+strings.Join(missing, ", "), nil)
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.NewConfigError("settings", "decoding settings", err)
	}
	s.Path = path
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks value ranges and cross-field constraints.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fe.Namespace() + " failed " + fe.Tag()
			}
			return errors.NewConfigError("settings", strings.Join(msgs, "; "), err)
		}
		return errors.NewConfigError("settings", err.Error(), err)
	}
	return nil
}

// Dirs returns every directory the run writes into or reads from.
func (s *Settings) Dirs() []string {
	return []string{
		filepath.Dir(s.InputFiles.PhysicalParameters),
		filepath.Dir(s.InputFiles.AnomalousData),
		s.OutputFiles.CorrectedDataDir,
		s.OutputFiles.ReportsDir,
		s.OutputFiles.BackupsDir,
		s.OutputFiles.LogsDir,
	}
}

// TemplateEnabled reports whether a template should be loaded.
func (s *Settings) TemplateEnabled() bool {
	return s.Processing.UseTemplateAsReference && s.InputFiles.TemplateReference != ""
}

// Selectors returns the attribute selector configuration.
func (s *Settings) Selectors() selector.Config {
	return selector.Config{
		Latitude:            selector.Bounds{Min: s.GeographicValidation.LatitudeMin, Max: s.GeographicValidation.LatitudeMax},
		Longitude:           selector.Bounds{Min: s.GeographicValidation.LongitudeMin, Max: s.GeographicValidation.LongitudeMax},
		Height:              selector.Bounds{Min: s.StructureValidation.HeightMin, Max: s.StructureValidation.HeightMax},
		CoordinateThreshold: s.CoordinateThreshold,
		TypePriority:        s.StructureTypePriority,
	}
}

// Engine returns the reconciliation engine configuration.
func (s *Settings) Engine() reconcile.Config {
	return reconcile.Config{
		Selectors:             s.Selectors(),
		ManualReviewThreshold: s.Processing.RequireManualReviewThreshold,
		SystemUser:            s.SystemUser,
	}
}

// Template returns the template manager configuration.
func (s *Settings) Template() template.Config {
	return template.Config{
		UseFuzzyMatching:    s.NameSimilarity.UseFuzzyMatching,
		SimilarityThreshold: s.NameSimilarity.SimilarityThreshold,
	}
}

// Detector returns the extended cell detector options.
func (s *Settings) Detector() []extended.Option {
	return []extended.Option{extended.WithThreshold(s.ExtendedCellDistanceThreshold)}
}

// Validation returns the data-quality validator configuration.
func (s *Settings) Validation() validation.Config {
	sel := s.Selectors()
	return validation.Config{Latitude: sel.Latitude, Longitude: sel.Longitude, Height: sel.Height}
}
