// Package apperrors provides chainable errors used to build the client's error
// taxonomy. A sentinel is declared once with New and specialised per call with
// Msg, MsgErr or Err; every derived error still matches the sentinel through
// errors.Is, and any attached cause stays reachable through errors.Is and
// errors.As.
package apperrors

// Error extends the standard error interface with chaining helpers. All
// helpers return a new Error and leave the receiver unchanged, so sentinels
// can be shared across goroutines.
type Error interface {
	error
	Unwrap() error // support for errors.Is / errors.As

	New(msg string) Error                  // new error with msg, derived from the receiver
	Msg(msg string) Error                  // new message, receiver kept as base
	MsgErr(msg string, err ...error) Error // new message plus attached causes
	Err(err ...error) Error                // same message plus attached causes
	SetStatusCode(int) Error               // records an HTTP status code
	StatusCode() int                       // status code, 0 if none
	ErrorAll() string                      // message followed by attached causes
	Causes() []error                       // attached causes in order
}
