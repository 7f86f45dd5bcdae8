package models

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Origin records which resolution path produced a query.
type Origin string

const (
	OriginBackend   Origin = "backend"
	OriginRuleTable Origin = "rule_table"
)

// ResolvedQuery is the SQL chosen for a natural-language question.
type ResolvedQuery struct {
	SQL    string `json:"sql"`
	Origin Origin `json:"origin"`
	Rule   string `json:"rule,omitempty"` // matched intent rule; empty for backend results
}

// Row is one result row. Keys keep the column order of the result set.
type Row = *orderedmap.OrderedMap[string, any]

// NewRow returns an empty row.
func NewRow() Row {
	return orderedmap.New[string, any]()
}

// QueryOutcome is the tri-field result of running a resolved query.
// At most one of Data (non-empty) and Error is meaningfully populated.
type QueryOutcome struct {
	SQL   string  `json:"sql"`
	Data  []Row   `json:"data"`
	Error *string `json:"error"`
}

// Failed reports whether execution produced an error.
func (o *QueryOutcome) Failed() bool {
	return o.Error != nil
}

// NewFailedOutcome builds an outcome carrying the original SQL, no rows and an error message.
func NewFailedOutcome(sql, message string) *QueryOutcome {
	return &QueryOutcome{SQL: sql, Data: []Row{}, Error: &message}
}

// MarshalJSON guarantees data is rendered as [] rather than null.
func (o QueryOutcome) MarshalJSON() ([]byte, error) {
	type alias QueryOutcome
	if o.Data == nil {
		o.Data = []Row{}
	}
	return json.Marshal(alias(o))
}
