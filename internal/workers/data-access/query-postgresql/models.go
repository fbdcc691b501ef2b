// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "ria-hunter/internal/models"

type Input struct {
	QueryType string           `json:"queryType"`
	CRD       string           `json:"crd,omitempty"`
	CRDs      []string         `json:"crds,omitempty"`
	Filters   models.FirmQuery `json:"filters"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}
