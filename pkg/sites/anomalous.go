package sites

import "strings"

// AnomalousRecord is one flagged site with the candidate values observed
// for each site-level attribute.
type AnomalousRecord struct {
	StationID  string
	SectorID   string
	Technology string
	Candidates map[Field][]string
}

// NewAnomalousRecord parses the serialized candidate lists of a row of the
// anomalous-sites table.
func NewAnomalousRecord(row *Sector) AnomalousRecord {
	rec := AnomalousRecord{
		StationID:  row.StationID(),
		SectorID:   strings.TrimSpace(row.Get(FieldSectorID)),
		Technology: strings.TrimSpace(row.Get(FieldTechnology)),
		Candidates: make(map[Field][]string, len(SiteFields)),
	}
	for _, f := range SiteFields {
		rec.Candidates[f] = ParseListValues(row.Get(f))
	}
	return rec
}

// Scores returns the discrepancy score of every site field plus their mean.
func (r AnomalousRecord) Scores() (map[Field]float64, float64) {
	scores := make(map[Field]float64, len(SiteFields))
	values := make([]float64, 0, len(SiteFields))
	for _, f := range SiteFields {
		s := DiscrepancyScore(r.Candidates[f])
		scores[f] = s
		values = append(values, s)
	}
	return scores, MeanScore(values)
}
