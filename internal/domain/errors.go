package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// TransportError carries the human-readable failure message extracted from a
// provider or API error body. Its Error() string is safe to surface to the
// user verbatim; slices store exactly this string.
type TransportError struct {
	Op        string // operation that failed, e.g. "fetch quote", "chat"
	Message   string // extracted human-readable reason
	Err       error  // underlying error, may be nil when only a body was parsed
	Retriable bool
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) IsRetriable() bool {
	return e.Retriable
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a retriable transport failure.
func NewTransportError(op, message string, err error) *TransportError {
	return &TransportError{Op: op, Message: message, Err: err, Retriable: true}
}

// NewFatalTransportError wraps a non-retriable transport failure.
func NewFatalTransportError(op, message string, err error) *TransportError {
	return &TransportError{Op: op, Message: message, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrNotFound is returned when a portfolio, asset or trade does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientShares is returned when a sell exceeds the held quantity.
	ErrInsufficientShares = errors.New("not enough shares to sell")

	// ErrInvalidSymbol is returned when a symbol is malformed. Not retriable.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrNoAssets is returned when an analysis is requested for an empty portfolio.
	ErrNoAssets = errors.New("no assets found in portfolio")

	// ErrProviderUnavailable is returned when every quote provider failed.
	ErrProviderUnavailable = errors.New("no market data provider available")
)
