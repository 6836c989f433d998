// Package hwerr carries the error kinds every layer of the core
// returns.
//
// Code is a stable, comparable string newtype, allocation-free, and
// implements error directly so it can be compared with == as well as
// with errors.Is. ALL_OK from the source design has no Code of its
// own here: success is the idiomatic Go way, a nil error; every other
// kind below is a distinct sentinel Code.
package hwerr

// Code is a stable error identifier.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes, named after the source controller's error enum.
const (
	EGeneric        Code = "egeneric"
	EInvalid        Code = "einvalid"
	EOffline        Code = "eoffline"
	ENotImplemented Code = "enotimplemented"
	ENotConfigured  Code = "enotconfigured"
	ENotFound       Code = "enotfound"
	EExists         Code = "eexists"
	EOOM            Code = "eoom"
	ETrunc          Code = "etrunc"
	ERStale         Code = "erstale"
	EUnknown        Code = "eunknown"
	ESensorInval    Code = "esensorinval"
	ESensorShort    Code = "esensorshort"
	ESensorDiscon   Code = "esensordiscon"
)

// E wraps a Code with operation context and an optional cause, for
// deeper diagnostics without losing errors.Is/errors.As compatibility.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := e.Op + ": " + string(e.C)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is reports whether target is the Code e carries, so errors.Is matches
// an *E against its Code as well as (through Unwrap) against its cause.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap builds an *E tying a Code to the operation that produced it.
func Wrap(op string, c Code, cause error) *E {
	return &E{C: c, Op: op, Err: cause}
}

// Of extracts a Code from an error, defaulting to EUnknown for errors
// that don't carry one (e.g. raw backend driver errors).
func Of(err error) Code {
	if err == nil {
		return ""
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return EUnknown
}
