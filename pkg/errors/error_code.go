package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidOrder      ErrorCode = 100
	ErrCodeBlankSymbol       ErrorCode = 101
	ErrCodeInvalidPrice      ErrorCode = 102
	ErrCodeInvalidQuantity   ErrorCode = 103
	ErrCodeInvalidExpression ErrorCode = 104
	ErrCodeInvalidMapping    ErrorCode = 105

	// Data errors (200-299)
	ErrCodeUnknownSymbol     ErrorCode = 200
	ErrCodePriceUnavailable  ErrorCode = 201
	ErrCodeFetchFailed       ErrorCode = 202
	ErrCodeCacheLoadFailed   ErrorCode = 203
	ErrCodeCacheWriteFailed  ErrorCode = 204
	ErrCodeReturnsMisaligned ErrorCode = 205
	ErrCodeParseFailed       ErrorCode = 206

	// Account errors (300-399)
	ErrCodePositionNotFound ErrorCode = 300
	ErrCodeStaleMark        ErrorCode = 301

	// Calendar errors (400-499)
	ErrCodeInvalidDateRange ErrorCode = 400
	ErrCodeNoOrderDates     ErrorCode = 401

	// Export errors (500-599)
	ErrCodeExportInitFailed  ErrorCode = 500
	ErrCodeExportWriteFailed ErrorCode = 501

	// Configuration errors (600-699)
	ErrCodeInvalidConfiguration ErrorCode = 600
	ErrCodeNoDataSource         ErrorCode = 601
	ErrCodeNoOrderProvider      ErrorCode = 602
	ErrCodeSchemaVersion        ErrorCode = 603
)
