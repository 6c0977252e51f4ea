package models

// TimelineFilters defines the query options for timeline reads. Decoded from
// query parameters with gorilla/schema.
type TimelineFilters struct {
	StartDate string `schema:"start"` // DateLayout, inclusive
	EndDate   string `schema:"end"`   // DateLayout, inclusive
	Offset    int    `schema:"offset"`
	Limit     int    `schema:"limit"`
}

// RollupFilters defines the query options for advertiser rollup reads.
type RollupFilters struct {
	StartDate string `schema:"start"`
	EndDate   string `schema:"end"`
}
