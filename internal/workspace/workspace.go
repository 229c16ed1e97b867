// Package workspace manages the files of a run: directory bootstrap,
// backups of the inputs and the timestamped output names.
package workspace

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agentstation/rfreconcile/pkg/constants"
	"github.com/agentstation/rfreconcile/pkg/errors"
)

// Output file suffixes, each prefixed with the run timestamp.
const (
	CorrectedSuffix  = "_table_physical_parameters_corrected.xlsx"
	CompleteSuffix   = "_table_physical_parameters_complete.xlsx"
	CorrectionSuffix = "_correction_report.xlsx"
	ValidationSuffix = "_validation_report.xlsx"
	BlankSuffix      = "_blank_fields_report.xlsx"
	LogPrefix        = "correction_"
)

// Timestamp formats t for file names.
func Timestamp(t time.Time) string {
	return t.Format(constants.TimeFormatFilename)
}

// EnsureDirectories creates every directory that does not exist. Empty
// entries and "." are ignored.
func EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}
	return nil
}

// CreateBackup copies path into dir as <timestamp>_<filename>, keeping the
// modification time, and returns the backup path.
func CreateBackup(path, dir string, at time.Time) (string, error) {
	if err := EnsureDirectories(dir); err != nil {
		return "", err
	}
	backup := filepath.Join(dir, Timestamp(at)+"_"+filepath.Base(path))

	src, err := os.Open(path)
	if err != nil {
		return "", errors.WrapIO("open", path, err)
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return "", errors.WrapIO("read", path, err)
	}

	dst, err := os.OpenFile(backup, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return "", errors.WrapIO("create", backup, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", errors.WrapIO("copy", backup, err)
	}
	if err := dst.Close(); err != nil {
		return "", errors.WrapIO("write", backup, err)
	}
	if err := os.Chtimes(backup, info.ModTime(), info.ModTime()); err != nil {
		return "", errors.WrapIO("write", backup, err)
	}
	return backup, nil
}

// Outputs names the files of one run.
type Outputs struct {
	Timestamp  string
	Corrected  string
	Complete   string
	Correction string
	Validation string
	Blanks     string
	Log        string
}

// NewOutputs builds the file names of a run started at t.
func NewOutputs(correctedDir, reportsDir, logsDir string, t time.Time) Outputs {
	ts := Timestamp(t)
	return Outputs{
		Timestamp:  ts,
		Corrected:  filepath.Join(correctedDir, ts+CorrectedSuffix),
		Complete:   filepath.Join(correctedDir, ts+CompleteSuffix),
		Correction: filepath.Join(reportsDir, ts+CorrectionSuffix),
		Validation: filepath.Join(reportsDir, ts+ValidationSuffix),
		Blanks:     filepath.Join(reportsDir, ts+BlankSuffix),
		Log:        filepath.Join(logsDir, LogPrefix+ts+".log"),
	}
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
