// Package sites models RF sites and their sectors.
//
// A site is keyed by station_id and owns one Sector per technology sheet row.
// All sectors of a site should agree on the SiteFields; an AnomalousRecord
// carries the conflicting candidates seen for a site that does not.
package sites
