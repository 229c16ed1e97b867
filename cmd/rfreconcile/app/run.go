package app

import (
	"context"
	"path/filepath"

	"github.com/agentstation/rfreconcile/internal/cmd/alerts"
	"github.com/agentstation/rfreconcile/internal/cmd/output"
	"github.com/agentstation/rfreconcile/internal/config"
	"github.com/agentstation/rfreconcile/internal/workspace"
	"github.com/agentstation/rfreconcile/pkg/blanks"
	"github.com/agentstation/rfreconcile/pkg/errors"
	"github.com/agentstation/rfreconcile/pkg/extended"
	"github.com/agentstation/rfreconcile/pkg/reconcile"
	"github.com/agentstation/rfreconcile/pkg/template"
	"github.com/agentstation/rfreconcile/pkg/validation"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

// RunOptions controls a reconciliation run.
type RunOptions struct {
	FillBlanks bool
}

// RunReport collects what a run produced.
type RunReport struct {
	Outputs    workspace.Outputs
	Result     *reconcile.Result
	Comparison *validation.Comparison
	Blanks     *blanks.Stats
}

// Run executes the full reconciliation pipeline.
func (a *App) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	s, err := a.Settings()
	if err != nil {
		return nil, err
	}
	if err := workspace.EnsureDirectories(s.Dirs()...); err != nil {
		return nil, err
	}

	outputs := workspace.NewOutputs(s.OutputFiles.CorrectedDataDir, s.OutputFiles.ReportsDir, s.OutputFiles.LogsDir, a.now())
	a.teeLog(outputs.Log)
	logger := a.logger
	logger.Info().Str("timestamp", outputs.Timestamp).Msg("Starting reconciliation")

	physical := s.InputFiles.PhysicalParameters
	for _, path := range []string{physical, s.InputFiles.AnomalousData} {
		if !workspace.Exists(path) {
			return nil, errors.NewIOError("open", path, errors.NewNotFoundError("file", path))
		}
	}

	if s.Processing.CreateBackup {
		backup, err := workspace.CreateBackup(physical, s.OutputFiles.BackupsDir, a.now())
		if err != nil {
			logger.Warn().Err(err).Msg("Backup failed, continuing without one")
		} else {
			logger.Info().Str("path", backup).Msg("Backup created")
		}
	}

	baseline, err := workbook.Load(physical)
	if err != nil {
		return nil, err
	}
	anomalous, err := workbook.LoadSheet(s.InputFiles.AnomalousData, s.InputFiles.AnomalousSheet)
	if err != nil {
		return nil, err
	}

	engineOpts := []reconcile.Option{reconcile.WithLogger(logger), reconcile.WithClock(a.now)}
	tmpl := a.loadTemplate(s)
	if tmpl != nil {
		engineOpts = append(engineOpts, reconcile.WithTemplate(tmpl))
	}
	if s.Processing.DetectExtendedCells {
		detector := extended.New(append(s.Detector(), extended.WithLogger(logger))...)
		engineOpts = append(engineOpts, reconcile.WithDetector(detector))
	}

	engine, err := reconcile.New(baseline, s.Engine(), engineOpts...)
	if err != nil {
		return nil, err
	}

	result, runErr := engine.Run(ctx, anomalous)
	if runErr != nil && !errors.IsCanceled(runErr) {
		return nil, runErr
	}

	report := &RunReport{Outputs: outputs, Result: result}
	if err := engine.Save(outputs.Corrected); err != nil {
		return report, err
	}
	if err := reconcile.WriteReport(outputs.Correction, result); err != nil {
		return report, err
	}
	logger.Info().Str("path", outputs.Correction).Msg("Correction report written")

	original, err := workbook.Load(physical)
	if err != nil {
		logger.Warn().Err(err).Msg("Validation skipped, original workbook unreadable")
	} else {
		cmp := validation.New(s.Validation(), validation.WithLogger(logger)).
			Compare(original.Consolidated(), engine.Consolidated())
		report.Comparison = &cmp
		if err := validation.WriteReport(outputs.Validation, cmp); err != nil {
			logger.Warn().Err(err).Msg("Validation report not written")
		}
	}

	if opts.FillBlanks && runErr == nil {
		fillOpts := []blanks.Option{blanks.WithLogger(logger), blanks.WithClock(a.now)}
		if tmpl != nil {
			fillOpts = append(fillOpts, blanks.WithTemplate(tmpl.Index()))
		}
		if original != nil {
			fillOpts = append(fillOpts, blanks.WithBaseline(workbook.NewIndex(original.Consolidated())))
		}
		stats, err := blanks.New(fillOpts...).Process(outputs.Corrected, outputs.Complete)
		if err != nil {
			return report, err
		}
		report.Blanks = &stats
	}

	if err := a.printRun(report); err != nil {
		return report, err
	}

	notes := alerts.FromResult(result, a.now(), report.files()...)
	if runErr != nil {
		notes = append([]*alerts.Alert{alerts.New(alerts.LevelWarning, "Run interrupted, partial results saved", a.now()).WithError(runErr)}, notes...)
	}
	if err := alerts.WriteAll(alerts.NewFormatWriter(a.stderr, a.format()), notes); err != nil {
		logger.Warn().Err(err).Msg("Alerts not written")
	}
	return report, runErr
}

// files lists the outputs the run wrote.
func (r *RunReport) files() []string {
	files := []string{r.Outputs.Corrected, r.Outputs.Correction}
	if r.Comparison != nil {
		files = append(files, r.Outputs.Validation)
	}
	if r.Blanks != nil {
		files = append(files, r.Outputs.Complete)
	}
	return files
}

// loadTemplate returns nil when no usable template is configured.
func (a *App) loadTemplate(s *config.Settings) *template.Manager {
	if !s.TemplateEnabled() {
		return nil
	}
	path := s.InputFiles.TemplateReference
	if !workspace.Exists(path) {
		a.logger.Warn().Str("path", path).Msg("Template workbook not found, continuing without it")
		return nil
	}
	m, err := template.Load(path, s.Template(), template.WithLogger(a.logger))
	if err != nil {
		a.logger.Warn().Err(err).Str("path", path).Msg("Template unusable, continuing without it")
		return nil
	}
	return m
}

func (a *App) printRun(r *RunReport) error {
	format := a.format()
	if err := output.FormatRunSummary(a.stdout, format, r.Result); err != nil {
		return err
	}
	if stats := r.Result.ParameterStatistics(); len(stats) > 0 {
		if err := output.FormatParameterStatistics(a.stdout, format, stats); err != nil {
			return err
		}
	}
	if r.Comparison != nil {
		if err := output.FormatComparison(a.stdout, format, *r.Comparison); err != nil {
			return err
		}
	}
	if r.Blanks != nil {
		return output.FormatBlankStats(a.stdout, format, *r.Blanks)
	}
	return nil
}

// FillOptions controls a standalone blank fill.
type FillOptions struct {
	Input      string
	Output     string
	ReportOnly bool
}

// FillBlanks completes the blank fields of a workbook, or only reports them.
// The template and physical-parameters tiers come from the settings when
// those load; otherwise only the workbook itself is searched.
func (a *App) FillBlanks(opts FillOptions) (*blanks.Stats, error) {
	if !workspace.Exists(opts.Input) {
		return nil, errors.NewIOError("open", opts.Input, errors.NewNotFoundError("file", opts.Input))
	}

	fillOpts := []blanks.Option{blanks.WithLogger(a.logger), blanks.WithClock(a.now)}
	s, err := a.Settings()
	if err != nil {
		a.logger.Warn().Err(err).Msg("Settings unavailable, filling from the workbook only")
	} else {
		fillOpts = append(fillOpts, a.fillSources(s)...)
	}
	filler := blanks.New(fillOpts...)

	if opts.ReportOnly {
		wb, err := workbook.Load(opts.Input)
		if err != nil {
			return nil, err
		}
		records := filler.Report(wb)
		dir := filepath.Dir(opts.Input)
		if s != nil {
			dir = s.OutputFiles.ReportsDir
			if err := workspace.EnsureDirectories(dir); err != nil {
				return nil, err
			}
		}
		path := filepath.Join(dir, workspace.Timestamp(a.now())+workspace.BlankSuffix)
		if err := blanks.WriteReport(path, records); err != nil {
			return nil, err
		}
		stations, cells, _ := blanks.Summary(records)
		a.logger.Info().Str("path", path).Int("stations", stations).Int("cells", cells).Msg("Blank fields report written")
		if len(records) == 0 {
			return &blanks.Stats{}, nil
		}
		return &blanks.Stats{TotalBlanks: cells, StillBlank: cells}, output.NewFormatter(a.format()).Format(a.stdout, records)
	}

	stats, err := filler.Process(opts.Input, opts.Output)
	if err != nil {
		return nil, err
	}
	return &stats, output.FormatBlankStats(a.stdout, a.format(), stats)
}

func (a *App) fillSources(s *config.Settings) []blanks.Option {
	var opts []blanks.Option
	if tmpl := a.loadTemplate(s); tmpl != nil {
		opts = append(opts, blanks.WithTemplate(tmpl.Index()))
	}
	physical := s.InputFiles.PhysicalParameters
	if !workspace.Exists(physical) {
		a.logger.Warn().Str("path", physical).Msg("Physical parameters workbook not found, baseline tier disabled")
		return opts
	}
	wb, err := workbook.Load(physical)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Physical parameters unreadable, baseline tier disabled")
		return opts
	}
	return append(opts, blanks.WithBaseline(workbook.NewIndex(wb.Consolidated())))
}

// ValidateOptions controls a standalone validation.
type ValidateOptions struct {
	Original  string
	Corrected string
	Output    string
}

// Validate compares the data quality of two workbooks and writes the report.
func (a *App) Validate(opts ValidateOptions) (*validation.Comparison, error) {
	s, err := a.Settings()
	if err != nil {
		return nil, err
	}

	original, err := workbook.Load(opts.Original)
	if err != nil {
		return nil, err
	}
	corrected, err := workbook.Load(opts.Corrected)
	if err != nil {
		return nil, err
	}

	cmp := validation.New(s.Validation(), validation.WithLogger(a.logger)).
		Compare(original.Consolidated(), corrected.Consolidated())

	path := opts.Output
	if path == "" {
		if err := workspace.EnsureDirectories(s.OutputFiles.ReportsDir); err != nil {
			return nil, err
		}
		path = workspace.NewOutputs(s.OutputFiles.CorrectedDataDir, s.OutputFiles.ReportsDir, s.OutputFiles.LogsDir, a.now()).Validation
	}
	if err := validation.WriteReport(path, cmp); err != nil {
		return nil, err
	}
	a.logger.Info().Str("path", path).Msg("Validation report written")

	return &cmp, output.FormatComparison(a.stdout, a.format(), cmp)
}
