package fx

import "fmt"

// FormatError reports a currency code that is not 3 letters. It is a
// user-correctable input error, not a system fault.
type FormatError struct {
	Code string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("currency must be 3 letters (e.g. EUR, USD), got %q", e.Code)
}

// UnsupportedError reports a well-formed code the rate provider does not
// recognize.
type UnsupportedError struct {
	Code string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("currency not supported: %s", e.Code)
}

// ProviderError wraps a failed rate fetch from the external provider. The
// operation that needed the rate must be aborted; nothing was written.
type ProviderError struct {
	From string
	To   string
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("fetch rate %s->%s: %v", e.From, e.To, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
