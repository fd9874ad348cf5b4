// Package formats names the supported localization formats and infers them from file paths.
package formats

import (
	"strings"

	"langcodec/internal/domain"
)

type Kind int

const (
	AndroidStrings Kind = iota + 1
	Strings
	Xcstrings
	CSV
	TSV
)

func (k Kind) String() string {
	switch k {
	case AndroidStrings:
		return "android"
	case Strings:
		return "strings"
	case Xcstrings:
		return "xcstrings"
	case CSV:
		return "csv"
	case TSV:
		return "tsv"
	}
	return "unknown"
}

// FormatType is a format plus, for single-language formats, an optional language.
type FormatType struct {
	Kind     Kind
	Language string
}

func AndroidStringsOf(lang string) FormatType { return FormatType{Kind: AndroidStrings, Language: lang} }
func StringsOf(lang string) FormatType { return FormatType{Kind: Strings, Language: lang} }
func XcstringsFormat() FormatType { return FormatType{Kind: Xcstrings} }
func CSVFormat() FormatType { return FormatType{Kind: CSV} }
func TSVFormat() FormatType { return FormatType{Kind: TSV} }

func (f FormatType) String() string { return f.Kind.String() }

// ParseFormatType accepts android|androidstrings|xml|strings|xcstrings|csv|tsv, case-insensitively.
func ParseFormatType(s string) (FormatType, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "android", "androidstrings", "xml":
		return AndroidStringsOf(""), nil
	case "strings":
		return StringsOf(""), nil
	case "xcstrings":
		return XcstringsFormat(), nil
	case "csv":
		return CSVFormat(), nil
	case "tsv":
		return TSVFormat(), nil
	default:
		return FormatType{}, domain.NewError(domain.CodeUnknownFormat, "%q", v)
	}
}

func (f FormatType) Extension() string {
	switch f.Kind {
	case AndroidStrings:
		return "xml"
	case Strings:
		return "strings"
	case Xcstrings:
		return "xcstrings"
	case CSV:
		return "csv"
	case TSV:
		return "tsv"
	}
	return ""
}

// IsMultiLanguage reports whether one file holds several languages.
func (f FormatType) IsMultiLanguage() bool {
	switch f.Kind {
	case Xcstrings, CSV, TSV:
		return true
	}
	return false
}

func (f FormatType) HasLanguage() bool {
	return !f.IsMultiLanguage() && f.Language != ""
}

// WithLanguage returns a copy carrying lang; multi-language formats ignore it.
func (f FormatType) WithLanguage(lang string) FormatType {
	if f.IsMultiLanguage() {
		return FormatType{Kind: f.Kind}
	}
	return FormatType{Kind: f.Kind, Language: lang}
}

// MatchesLanguageOf is true when either side is multi-language or both languages are equal.
func (f FormatType) MatchesLanguageOf(other FormatType) bool {
	if f.IsMultiLanguage() || other.IsMultiLanguage() {
		return true
	}
	return f.Language == other.Language
}

func (f FormatType) Valid() bool {
	return f.Kind >= AndroidStrings && f.Kind <= TSV
}
