package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when an import session does not exist
	ErrSessionNotFound = errors.New("import session not found")

	// ErrSessionFinalized is returned when a confirmed or cancelled session is modified
	ErrSessionFinalized = errors.New("import session is already finalized")

	// ErrSessionCancelled is returned when staging or analysis is attempted on a cancelled session
	ErrSessionCancelled = errors.New("import session was cancelled")

	// ErrFileTooLarge is returned when an upload exceeds the configured size cap
	ErrFileTooLarge = errors.New("import file exceeds maximum size")

	// ErrTooManyRows is returned when an upload has more data rows than allowed
	ErrTooManyRows = errors.New("import file exceeds maximum number of rows")

	// ErrEmptyFile is returned when an upload has no data rows
	ErrEmptyFile = errors.New("import file contains no data rows")

	// ErrNoValidRows is returned when every row of an upload failed validation
	ErrNoValidRows = errors.New("import file contains no valid rows")

	// ErrUnsupportedFormat is returned when the upload is neither xlsx nor csv
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

	// ErrRowNotFound is returned when a row number does not exist in a session
	ErrRowNotFound = errors.New("import row not found")

	// ErrProductNotFound is returned when a catalog product does not exist
	ErrProductNotFound = errors.New("catalog product not found")

	// ErrStockNotFound is returned when no stock record exists for a product
	ErrStockNotFound = errors.New("stock record not found")

	// ErrLockTimeout is returned when a lock could not be acquired in time
	ErrLockTimeout = errors.New("timed out waiting for lock")

	// ErrDuplicateKey is returned when a store already holds a record with the same key
	ErrDuplicateKey = errors.New("record already exists")
)

// ValidationError describes why a row description was rejected
type ValidationError struct {
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Reason)
}

// Row error types reported by the confirm step
const (
	ErrorTypeDuplicateDetected = "duplicate_detected"
	ErrorTypeProductNotFound   = "product_not_found"
	ErrorTypeMissingProduct    = "missing_product"
	ErrorTypeRowNotFound       = "row_not_found"
	ErrorTypeRowRejected       = "row_rejected"
	ErrorTypeInvalidAction     = "invalid_action"
	ErrorTypeInternal          = "internal_error"
)

// RowError is a per-row confirm failure. It never aborts the batch.
type RowError struct {
	RowNumber int    `json:"row"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`

	// Set for duplicate_detected
	Existing *ExistingProduct `json:"existing_product,omitempty"`
}

// ExistingProduct points at the near-duplicate that blocked a create
type ExistingProduct struct {
	ProductID         string   `json:"product_id"`
	IdentifierCode    string   `json:"identifier_code,omitempty"`
	ConfidencePercent int      `json:"confidence_percent"`
	MatchType         string   `json:"match_type"`
	VariantIDs        []string `json:"variant_ids,omitempty"`
}
