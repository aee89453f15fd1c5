package e

import "fmt"

var (
	// Internal transaction errors
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Remote Planet API errors
	ErrRemoteUnreachable = fmt.Errorf("remote api unreachable")
	ErrRemoteBadStatus   = fmt.Errorf("remote api returned non-200 status")
	ErrRemoteMalformed   = fmt.Errorf("remote api returned malformed response")

	// Sync lifecycle errors
	ErrNoActiveBatch      = fmt.Errorf("no active sync batch")
	ErrAlreadyRunning     = fmt.Errorf("sync is already running")
	ErrQueueEmpty         = fmt.Errorf("sync queue is empty")
	ErrCategoryValidation = fmt.Errorf("category validation failed")
	ErrProductNotFound    = fmt.Errorf("product not found")

	// 400 Bad Request
	ErrUnknownSyncMethod = fmt.Errorf("unknown sync method")
	ErrInvalidLevel      = fmt.Errorf("invalid category level")
	ErrInvalidPrice      = fmt.Errorf("invalid price value")

	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrInternalServerError  = fmt.Errorf("internal server error")
)

// Wrap wraps an error with a message
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
