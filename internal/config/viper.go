package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/agentstation/rfreconcile/pkg/constants"
	"github.com/agentstation/rfreconcile/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. RFR_SYSTEM_USER or
// RFR_PROCESSING_CREATE_BACKUP.
const EnvPrefix = "RFR"

// requiredKeys must be present in the settings file or environment.
var requiredKeys = []string{
	"input_files.physical_parameters",
	"input_files.anomalous_data",
	"input_files.anomalous_sheet",
	"output_files.corrected_data_dir",
	"output_files.reports_dir",
	"output_files.backups_dir",
	"output_files.logs_dir",
	"processing.create_backup",
	"processing.require_manual_review_threshold",
	"geographic_validation.latitude_min",
	"geographic_validation.latitude_max",
	"geographic_validation.longitude_min",
	"geographic_validation.longitude_max",
	"structure_validation.height_min",
	"structure_validation.height_max",
	"structure_type_priority",
	"coordinate_threshold",
	"system_user",
}

// newViper returns a viper instance bound to the RFR_ environment with
// defaults for the optional keys.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("input_files.anomalous_sheet", constants.DefaultAnomalousSheet)
	v.SetDefault("processing.use_template_as_reference", false)
	v.SetDefault("processing.detect_extended_cells", false)
	v.SetDefault("extended_cell_distance_threshold", constants.DefaultExtendedCellDistance)
	v.SetDefault("name_similarity.use_fuzzy_matching", true)
	v.SetDefault("name_similarity.similarity_threshold", constants.DefaultSimilarityThreshold)
	return v
}

// bindRequired binds every required key to its environment variable so
// IsSet sees env-only values.
func bindRequired(v *viper.Viper) error {
	for _, key := range requiredKeys {
		if err := v.BindEnv(key); err != nil {
			return errors.NewConfigError("settings", "binding "+key, err)
		}
	}
	return nil
}

// missingKeys lists the required keys absent from v.
func missingKeys(v *viper.Viper) []string {
	var missing []string
	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			missing = append(missing, key)
		}
	}
	return missing
}
