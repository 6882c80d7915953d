package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smazurov/encodenode/internal/options"
)

// ErrHelpRequested is returned by Parse when the help switch is present.
var ErrHelpRequested = options.ErrHelp

// ErrorKind classifies parse and validation failures.
type ErrorKind string

const (
	ErrUnknownOption                 ErrorKind = "UNKNOWN_OPTION"
	ErrInvalidOptionValue            ErrorKind = "INVALID_OPTION_VALUE"
	ErrUnsupportedCodec              ErrorKind = "UNSUPPORTED_CODEC"
	ErrMissingMandatoryParameter     ErrorKind = "MISSING_MANDATORY_PARAMETER"
	ErrIncompatibleOptionCombination ErrorKind = "INCOMPATIBLE_OPTION_COMBINATION"
)

// Error is a parse or validation failure naming the offending options.
type Error struct {
	Kind    ErrorKind
	Options []string
	// Index is the position of the offending token, -1 for validation errors.
	Index   int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", e.Kind)
	if len(e.Options) > 0 {
		b.WriteString(strings.Join(e.Options, ", "))
		if e.Index >= 0 {
			fmt.Fprintf(&b, " (argument %d)", e.Index)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a resolver error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == kind
}

func tokenError(kind ErrorKind, option string, index int, message string, cause error) *Error {
	return &Error{Kind: kind, Options: []string{option}, Index: index, Message: message, Cause: cause}
}

func ruleError(kind ErrorKind, message string, opts ...string) *Error {
	return &Error{Kind: kind, Options: opts, Index: -1, Message: message}
}
