package apperrors

import (
	"errors"
	"strings"
)

type appError struct {
	msg        string
	base       error   // parent in the sentinel chain
	causes     []error // errors attached with Err / MsgErr
	statusCode int
}

// New creates a root sentinel.
func New(msg string) Error {
	return &appError{msg: msg}
}

func (e *appError) Error() string {
	return e.msg
}

// ErrorAll joins the message with the messages of the attached causes.
func (e *appError) ErrorAll() string {
	if len(e.causes) == 0 {
		return e.Error()
	}
	parts := make([]string, 0, len(e.causes)+1)
	parts = append(parts, e.Error())
	for _, c := range e.causes {
		if c == nil {
			continue
		}
		parts = append(parts, c.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *appError) Unwrap() error {
	return e.base
}

func (e *appError) Causes() []error {
	return e.causes
}

func (e *appError) New(msg string) Error {
	return &appError{
		msg:        msg,
		base:       e,
		statusCode: e.statusCode,
	}
}

func (e *appError) Msg(msg string) Error {
	return &appError{
		msg:        msg,
		base:       e,
		causes:     e.causes,
		statusCode: e.statusCode,
	}
}

func (e *appError) MsgErr(msg string, errs ...error) Error {
	return &appError{
		msg:        msg,
		base:       e,
		causes:     appendCauses(e.causes, errs),
		statusCode: e.statusCode,
	}
}

func (e *appError) Err(errs ...error) Error {
	return &appError{
		msg:        e.msg,
		base:       e,
		causes:     appendCauses(e.causes, errs),
		statusCode: e.statusCode,
	}
}

func (e *appError) SetStatusCode(code int) Error {
	cp := *e
	cp.statusCode = code
	return &cp
}

func (e *appError) StatusCode() int {
	return e.statusCode
}

// Is matches the base chain first and then every attached cause.
func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if t, ok := target.(*appError); ok && t == e {
		return true
	}
	if e.base != nil && errors.Is(e.base, target) {
		return true
	}
	for _, c := range e.causes {
		if errors.Is(c, target) {
			return true
		}
	}
	return false
}

// As lets errors.As reach typed causes such as *HTTPError.
func (e *appError) As(target any) bool {
	for _, c := range e.causes {
		if c != nil && errors.As(c, target) {
			return true
		}
	}
	return false
}

func appendCauses(existing, extra []error) []error {
	out := make([]error, 0, len(existing)+len(extra))
	out = append(out, existing...)
	for _, err := range extra {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
