// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	RunID             string      // Pipeline run that performed the operation
	Dataset           string      // Dataset name, e.g. "piste-ciclopedonali"
	ColumnName        string      // Column that was cleaned
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          string      // New value after cleaning (empty for discarded rows)
	RowIdentifier     string      // Value of the code column, or the row position
	CleaningOperation string      // Type of cleaning performed (e.g., "row_discarded")
	CleaningReason    string      // Reason for cleaning (e.g., "null_type")
	CleanedAt         time.Time   // When the cleaning occurred
}

// Cleaning operation names
const (
	OperationRowDiscarded = "row_discarded"
	OperationYearSentinel = "year_sentinel"
)

// Cleaning reasons
const (
	ReasonNullType        = "null_type"
	ReasonNullYear        = "null_year_of_data"
	ReasonNullTypeAndYear = "null_type_and_year_of_data"
	ReasonUnparseableYear = "unparseable_year"
)
