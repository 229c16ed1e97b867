// Package reconcile resolves the conflicting site attributes of anomalous
// stations and writes the chosen values back into every sheet of the
// physical-parameters workbook.
//
// For each anomalous site the engine detects and marks extended cells,
// selects one value per attribute, completes what is still missing from the
// workbook, the template or the baseline, and finally overwrites the rows
// that disagree with the chosen value. Every overwrite is logged as a
// Correction.
package reconcile

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/rfreconcile/pkg/constants"
	"github.com/agentstation/rfreconcile/pkg/errors"
	"github.com/agentstation/rfreconcile/pkg/extended"
	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/lookup"
	"github.com/agentstation/rfreconcile/pkg/selector"
	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/template"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

// applyOrder is the order in which resolved fields are written back.
var applyOrder = []sites.Field{
	sites.FieldName,
	sites.FieldLatitude,
	sites.FieldLongitude,
	sites.FieldStructureHeight,
	sites.FieldStructureOwner,
	sites.FieldStructureType,
	sites.FieldTxType,
}

// Config parameterises an Engine.
type Config struct {
	Selectors             selector.Config
	ManualReviewThreshold float64
	SystemUser            string
}

// Engine reconciles anomalous sites against a baseline workbook. It mutates
// the workbook in place and is not safe for concurrent use.
type Engine struct {
	config       Config
	baseline     *workbook.Workbook
	consolidated *workbook.Table

	template  *template.Manager
	names     *templateNames
	detector  *extended.Detector
	selectors *selector.Set
	lookup    *lookup.Lookup
	tracker   *Tracker

	logger *zerolog.Logger
	now    func() time.Time
	runID  string
}

// templateNames remembers which stations got their name from the template.
type templateNames struct {
	manager  *template.Manager
	answered map[string]bool
}

func (t *templateNames) ReferenceName(stationID string, candidates []string) (string, bool) {
	name, ok := t.manager.ReferenceName(stationID, candidates)
	if ok {
		t.answered[stationID] = true
	}
	return name, ok
}

// New creates an engine over baseline. The consolidated baseline must carry
// every required column.
func New(baseline *workbook.Workbook, cfg Config, opts ...Option) (*Engine, error) {
	if baseline == nil {
		return nil, &errors.ValidationError{Field: "baseline", Message: "cannot be nil"}
	}
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.SystemUser == "" {
		cfg.SystemUser = constants.DefaultSystemUser
	}

	consolidated := baseline.Consolidated()
	if missing := consolidated.Missing(sites.RequiredBaselineFields...); len(missing) > 0 {
		return nil, errors.NewMissingColumnsError("baseline", missing)
	}

	logger := logging.Component(o.logger, "reconcile")
	e := &Engine{
		config:       cfg,
		baseline:     baseline,
		consolidated: consolidated,
		detector:     o.detector,
		tracker:      NewTracker(),
		logger:       logger,
		now:          o.now,
		runID:        o.runID,
	}

	var resolver selector.NameResolver
	// The workbook tier already covers every consolidated row.
	lookupOpts := []lookup.Option{lookup.WithLogger(o.logger)}
	if o.template.Available() {
		e.template = o.template
		e.names = &templateNames{manager: o.template, answered: make(map[string]bool)}
		resolver = e.names
		lookupOpts = append(lookupOpts, lookup.WithTemplate(o.template.Index()))
	} else {
		logger.Warn().Msg("Template not available, names resolved by length")
	}
	e.selectors = selector.New(cfg.Selectors, resolver, selector.WithLogger(o.logger))
	e.lookup = lookup.New(baseline, lookupOpts...)

	logger.Info().
		Str("run_id", e.runID).
		Int("sheets", len(baseline.Tables())).
		Int("rows", len(consolidated.Rows)).
		Bool("template", e.template != nil).
		Bool("extended_detection", e.detector != nil).
		Msg("Reconciliation engine initialized")
	return e, nil
}

// Workbook returns the workbook the engine corrects.
func (e *Engine) Workbook() *workbook.Workbook {
	return e.baseline
}

// Consolidated returns the consolidated view kept in sync with corrections.
func (e *Engine) Consolidated() *workbook.Table {
	return e.consolidated
}

// Provenance returns the field provenance tracker.
func (e *Engine) Provenance() *Tracker {
	return e.tracker
}

// RunID returns the identifier of the engine's run.
func (e *Engine) RunID() string {
	return e.runID
}

// ProcessSite resolves the attributes of one anomalous site. It marks
// extended cells in the workbook but does not apply corrections.
func (e *Engine) ProcessSite(rec sites.AnomalousRecord) (*SiteResult, error) {
	if rec.StationID == "" {
		return nil, &errors.ValidationError{Field: sites.FieldStationID.String(), Message: "cannot be empty"}
	}
	logger := logging.Station(e.logger, rec.StationID)

	sr := &SiteResult{
		StationID:  rec.StationID,
		Technology: rec.Technology,
		Values:     make(map[sites.Field]sites.Value),
		Sources:    make(map[sites.Field]Source),
	}

	if e.detector != nil {
		sr.ExtendedCells = e.detector.Detect(rec.StationID, e.baseline)
		if sr.HasExtendedCells() {
			marked := e.detector.Mark(e.baseline, sr.ExtendedCells)
			logger.Info().
				Strs("cells", sr.ExtendedCells).
				Int("rows_marked", marked).
				Msg("Extended cells marked, coordinates left unchanged")
		}
	}

	sr.Scores, sr.Score = rec.Scores()

	for _, f := range sites.SiteFields {
		if f.Coordinate() && sr.HasExtendedCells() {
			continue
		}
		v, ok := e.selectors.Select(f, rec.StationID, rec.Candidates[f])
		if !ok {
			continue
		}
		src := SourceAlgorithm
		if f == sites.FieldName && e.names != nil && e.names.answered[rec.StationID] {
			src = SourceTemplate
		}
		sr.set(f, v, src)
		method := ""
		if sel, ok := e.selectors.For(f); ok {
			method = sel.Name()
		}
		e.track(rec.StationID, f, src, v, method)
	}

	e.complete(sr, logger)

	if e.template != nil {
		for _, f := range e.template.FillMissing(rec.StationID, sr.Values) {
			sr.Sources[f] = SourceTemplate
			e.track(rec.StationID, f, SourceTemplate, sr.Values[f], "template")
		}
	}

	if sr.Score > e.config.ManualReviewThreshold && !sr.HasExtendedCells() {
		sr.Review = &ManualReviewEntry{
			StationID:     rec.StationID,
			Score:         sr.Score,
			Details:       sr.Scores,
			Original:      rec.Candidates,
			Proposed:      copyValues(sr.Values),
			ExtendedCells: sr.ExtendedCells,
		}
		logger.Warn().Float64("score", sr.Score).Msg("Site requires manual review")
	}
	return sr, nil
}

// complete fills unresolved site fields from the workbook, template or
// baseline. Coordinates are left alone when the site has extended cells.
func (e *Engine) complete(sr *SiteResult, logger *zerolog.Logger) {
	for _, f := range sites.SiteFields {
		if _, ok := sr.Values[f]; ok {
			continue
		}
		if f.Coordinate() && sr.HasExtendedCells() {
			continue
		}
		r := e.lookup.Complete(lookup.Key{StationID: sr.StationID, Field: f}, sr.Technology)
		if !r.Found() {
			logger.Debug().Str("field", f.String()).Msg("Field left unresolved")
			continue
		}
		src := SourceAlgorithm
		if r.Tier == lookup.TierTemplate {
			src = SourceTemplate
		}
		v := sites.ValueFor(f, r.Value)
		sr.set(f, v, src)
		e.track(sr.StationID, f, src, v, r.Tier.String())
		logger.Info().
			Str("field", f.String()).
			Str("value", r.Value).
			Str("tier", r.Tier.String()).
			Msg("Missing value completed")
	}
}

func (e *Engine) track(stationID string, f sites.Field, src Source, v sites.Value, method string) {
	e.tracker.Track(stationID, f, Provenance{
		Source:    src,
		Value:     v.String(),
		Method:    method,
		Timestamp: e.now(),
	})
}

// method returns how the latest value of a station field was resolved.
func (e *Engine) method(stationID string, f sites.Field) string {
	history := e.tracker.FindByField(stationID, f)
	if len(history) == 0 {
		return ""
	}
	return history[len(history)-1].Method
}

// ApplyCorrections writes the resolved values of a site into every sheet
// that carries the station and returns one correction per overwritten
// sheet field.
func (e *Engine) ApplyCorrections(sr *SiteResult) []Correction {
	logger := logging.Station(e.logger, sr.StationID)
	now := e.now()

	var (
		corrections []Correction
		touched     int
	)
	for _, t := range e.baseline.Tables() {
		rows := t.StationRows(sr.StationID)
		if len(rows) == 0 {
			continue
		}
		touched += len(rows)

		for _, f := range applyOrder {
			v, ok := sr.Values[f]
			if !ok || v.IsZero() || !t.HasField(f) {
				continue
			}
			if f.Coordinate() && sr.HasExtendedCells() {
				continue
			}

			old := workbook.Distinct(rows, f)
			if len(old) == 1 && v.Matches(old[0]) {
				continue
			}

			for _, r := range rows {
				r.Set(f, v.String())
			}
			src := sr.Sources[f]
			if src == "" {
				src = SourceAlgorithm
			}
			corrections = append(corrections, Correction{
				StationID:    sr.StationID,
				Sheet:        t.Name,
				Parameter:    f.String(),
				OldValues:    old,
				NewValue:     v.String(),
				RowsAffected: len(rows),
				Timestamp:    now,
				Source:       src,
				Method:       e.method(sr.StationID, f),
			})
			logger.Debug().
				Str("sheet", t.Name).
				Str("field", f.String()).
				Strs("old", old).
				Str("new", v.String()).
				Int("rows", len(rows)).
				Msg("Field corrected")
		}
	}

	if touched == 0 {
		logger.Warn().Msg("Station not found in any sheet")
		return nil
	}

	e.mirror(sr)
	logger.Info().
		Int("corrections", len(corrections)).
		Int("rows", touched).
		Msg("Corrections applied")
	return corrections
}

// mirror copies the resolved values into the consolidated view.
func (e *Engine) mirror(sr *SiteResult) {
	rows := e.consolidated.StationRows(sr.StationID)
	for _, f := range applyOrder {
		v, ok := sr.Values[f]
		if !ok || !e.consolidated.HasField(f) {
			continue
		}
		if f.Coordinate() && sr.HasExtendedCells() {
			continue
		}
		for _, r := range rows {
			r.Set(f, v.String())
		}
	}
}

// Run reconciles every row of the anomalous-sites table. A failing site is
// logged and recorded, and the run moves on. Cancellation stops the run
// between sites and returns the partial result.
func (e *Engine) Run(ctx context.Context, anomalous *workbook.Table) (*Result, error) {
	result := NewResult(e.runID, e.now())
	defer func() { result.Finalize(e.now()) }()

	if anomalous == nil {
		return result, &errors.ValidationError{Field: "anomalous", Message: "cannot be nil"}
	}
	if !anomalous.HasField(sites.FieldStationID) {
		return result, errors.NewMissingColumnsError(anomalous.Name, []string{sites.FieldStationID.String()})
	}

	e.logger.Info().Int("sites", len(anomalous.Rows)).Msg("Processing anomalous sites")
	for i, row := range anomalous.Rows {
		if err := ctx.Err(); err != nil {
			e.logger.Warn().Int("processed", i).Msg("Reconciliation canceled")
			return result, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}

		rec := sites.NewAnomalousRecord(row)
		if rec.StationID == "" {
			result.Metadata.Stats.SitesSkipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: empty station_id", row.Row))
			continue
		}

		if err := e.runSite(rec, result); err != nil {
			result.Metadata.Stats.SitesFailed++
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Metadata.Stats.SitesProcessed++
	}

	e.logger.Info().
		Int("processed", result.Metadata.Stats.SitesProcessed).
		Int("failed", result.Metadata.Stats.SitesFailed).
		Int("corrections", len(result.Corrections)).
		Int("manual_review", len(result.ManualReview)).
		Msg("Reconciliation complete")
	return result, nil
}

func (e *Engine) runSite(rec sites.AnomalousRecord, result *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("station_id", rec.StationID).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Site processing panicked")
			err = errors.NewSiteError(rec.StationID, "process", fmt.Errorf("panic: %v", r))
		}
	}()

	sr, err := e.ProcessSite(rec)
	if err != nil {
		e.logger.Error().Err(err).Str("station_id", rec.StationID).Msg("Site processing failed")
		return errors.WrapSite(rec.StationID, "process", err)
	}

	for _, cell := range sr.ExtendedCells {
		result.ExtendedCells = append(result.ExtendedCells, ExtendedCellMark{
			StationID: rec.StationID,
			CellID:    cell,
			Action:    constants.ExtendedCellAction,
		})
	}
	if sr.Review != nil {
		result.ManualReview = append(result.ManualReview, *sr.Review)
	}
	result.Corrections = append(result.Corrections, e.ApplyCorrections(sr)...)
	return nil
}

// Save stamps the modification metadata and writes the corrected workbook.
func (e *Engine) Save(path string) error {
	if !strings.HasSuffix(strings.ToLower(path), constants.WorkbookExtension) {
		path += constants.WorkbookExtension
	}
	e.baseline.Stamp(e.config.SystemUser, e.now())
	if err := workbook.Save(path, e.baseline); err != nil {
		return err
	}
	e.logger.Info().Str("path", path).Msg("Corrected workbook saved")
	return nil
}

func copyValues(values map[sites.Field]sites.Value) map[sites.Field]sites.Value {
	out := make(map[sites.Field]sites.Value, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
