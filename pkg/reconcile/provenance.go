package reconcile

import (
	"fmt"
	"time"

	"github.com/agentstation/rfreconcile/pkg/sites"
)

// Provenance records where one resolved field value came from.
type Provenance struct {
	Source    Source    // Source that produced the value
	Value     string    // The resolved value as written
	Method    string    // Selector or lookup tier that produced it
	Timestamp time.Time // When the value was resolved
}

// ProvenanceMap is keyed by "stationID:field".
type ProvenanceMap map[string][]Provenance

// Tracker records field provenance during a run.
type Tracker struct {
	provenance ProvenanceMap
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{provenance: make(ProvenanceMap)}
}

// Track records provenance for a station field.
func (t *Tracker) Track(stationID string, f sites.Field, p Provenance) {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	key := makeKey(stationID, f)
	t.provenance[key] = append(t.provenance[key], p)
}

// FindByField returns the provenance history of one station field.
func (t *Tracker) FindByField(stationID string, f sites.Field) []Provenance {
	return t.provenance[makeKey(stationID, f)]
}

func makeKey(stationID string, f sites.Field) string {
	return fmt.Sprintf("%s:%s", stationID, f)
}
