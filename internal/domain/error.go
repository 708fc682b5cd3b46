package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidIntent       = errors.New("invalid checkout intent")
	ErrUnknownProvider     = errors.New("unknown payment provider")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrCaptureRejected     = errors.New("payment rejected by provider")
	ErrEffectApplier       = errors.New("effect applier failed after confirmed payment")
	ErrRateLimited         = errors.New("too many checkout attempts")

	// Infra-level sentinels used by the postgres repositories.
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
