package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies every failure returned by the conversion core.
type ErrorCode string

const (
	CodeUnknownFormat     ErrorCode = "UNKNOWN_FORMAT"
	CodeParse             ErrorCode = "PARSE"
	CodeXMLParse          ErrorCode = "XML_PARSE"
	CodeCSVParse          ErrorCode = "CSV_PARSE"
	CodeIO                ErrorCode = "IO"
	CodeDataMismatch      ErrorCode = "DATA_MISMATCH"
	CodeInvalidResource   ErrorCode = "INVALID_RESOURCE"
	CodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	CodeConversion        ErrorCode = "CONVERSION"
	CodeValidation        ErrorCode = "VALIDATION"
)

var codeText = map[ErrorCode]string{
	CodeUnknownFormat:     "unknown format",
	CodeParse:             "parse error",
	CodeXMLParse:          "xml parse error",
	CodeCSVParse:          "csv parse error",
	CodeIO:                "io error",
	CodeDataMismatch:      "data mismatch",
	CodeInvalidResource:   "invalid resource",
	CodeUnsupportedFormat: "unsupported format",
	CodeConversion:        "conversion error",
	CodeValidation:        "validation error",
}

func (c ErrorCode) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return strings.ToLower(string(c))
}

// Sentinels for errors.Is; they match any *Error with the same code.
var (
	ErrUnknownFormat     = &Error{Code: CodeUnknownFormat}
	ErrParse             = &Error{Code: CodeParse}
	ErrXMLParse          = &Error{Code: CodeXMLParse}
	ErrCSVParse          = &Error{Code: CodeCSVParse}
	ErrIO                = &Error{Code: CodeIO}
	ErrDataMismatch      = &Error{Code: CodeDataMismatch}
	ErrInvalidResource   = &Error{Code: CodeInvalidResource}
	ErrUnsupportedFormat = &Error{Code: CodeUnsupportedFormat}
	ErrConversion        = &Error{Code: CodeConversion}
	ErrValidation        = &Error{Code: CodeValidation}
)

type Error struct {
	Code    ErrorCode
	Message string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Code.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" || t.Path != "" || t.Err != nil {
		return e == t
	}
	return t.Code == e.Code
}

func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError keeps err as the cause; a nil err yields nil.
func WrapError(code ErrorCode, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithPath attaches a file path to err when it does not carry one yet.
func WithPath(err error, path string) error {
	e, ok := err.(*Error)
	if !ok || e.Path != "" {
		return err
	}
	cp := *e
	cp.Path = path
	return &cp
}

// CodeOf returns the code of the outermost *Error in the chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
