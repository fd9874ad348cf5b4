// Package stringsfile reads and writes Apple .strings files.
package stringsfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"langcodec/internal/domain"
	"langcodec/internal/parser"
)

const header = `// This file is automatically generated by langcodec.
// Do not edit it manually, as your changes will be overwritten.
// Here's the basic information about the file which could be useful
// for translators, and langcodec would use it to generate the
// appropriate metadata for the resource.
//
//: Language: %s
//

`

// Pair is one "key" = "value"; line with the comment directly above it.
type Pair struct {
	Key     string
	Value   string
	Comment string
}

type File struct {
	Language string
	Headers  map[string]string
	Pairs    []Pair
}

var _ parser.Format = (*File)(nil)
var _ parser.FileDecoder = (*File)(nil)

// Decode parses UTF-8 input; a leading UTF-8 BOM is dropped.
func (f *File) Decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return parser.IOError(err, "read strings")
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	return f.parse(string(data))
}

// DecodeFile honors UTF-16 and UTF-8 byte order marks before parsing.
func (f *File) DecodeFile(fsys billy.Filesystem, path string) error {
	file, err := parser.Open(fsys, path)
	if err != nil {
		return err
	}
	defer file.Close()
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(file, dec))
	if err != nil {
		return parser.IOError(err, "decode strings")
	}
	return f.parse(string(data))
}

func (f *File) parse(content string) error {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return parser.IOError(err, "scan strings")
	}
	joined := JoinMultilineValues(strings.Join(lines, "\n"))

	f.Headers = map[string]string{}
	f.Pairs = nil
	var pending string
	for _, line := range strings.Split(joined, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "//:"):
			parts := strings.SplitN(trimmed, ":", 3)
			if len(parts) == 3 {
				f.Headers[strings.TrimSpace(parts[1])] = strings.TrimSpace(parts[2])
			}
			continue
		case trimmed == "" || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "//"):
			pending = trimmed
			continue
		}

		parts := strings.SplitN(trimmed, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.Trim(strings.TrimSpace(parts[0]), `"`)
		value := strings.TrimSpace(strings.Trim(strings.TrimSpace(parts[1]), ";"))
		if len(value) < 2 {
			value = ""
		} else {
			value = value[1 : len(value)-1]
		}
		pair := Pair{Key: key, Value: value}
		if strings.HasPrefix(pending, "/*") || strings.HasPrefix(pending, "//") {
			pair.Comment = pending
			pending = ""
		}
		f.Pairs = append(f.Pairs, pair)
	}
	f.Language = f.Headers["Language"]
	return nil
}

// JoinMultilineValues folds real newlines inside quoted values into a literal \n,
// dropping the indentation of continuation lines. A quote preceded by an odd
// number of backslashes does not close the value.
func JoinMultilineValues(content string) string {
	var out strings.Builder
	out.Grow(len(content))
	runes := []rune(content)
	inside := false
	var value []rune
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if !inside {
			out.WriteRune(c)
			if c != '=' {
				continue
			}
			for i+1 < len(runes) {
				i++
				d := runes[i]
				out.WriteRune(d)
				if d == '"' {
					inside = true
					value = value[:0]
					break
				}
			}
			continue
		}
		if c != '"' {
			value = append(value, c)
			continue
		}
		backslashes := 0
		for j := len(value) - 1; j >= 0 && value[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 1 {
			value = append(value, c)
			continue
		}
		inside = false
		segs := strings.Split(strings.TrimSuffix(string(value), "\n"), "\n")
		for k, s := range segs {
			segs[k] = strings.TrimLeft(s, " \t\r\v\f")
		}
		out.WriteString(strings.Join(segs, `\n`))
		out.WriteRune('"')
		value = value[:0]
	}
	if inside {
		out.WriteString(string(value))
	}
	return out.String()
}

func (f *File) Encode(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, header, f.Language)
	for _, p := range f.Pairs {
		b.WriteString(p.String())
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return parser.IOError(err, "write strings")
	}
	return nil
}

func (p Pair) String() string {
	line := `"` + p.Key + `" = "` + p.Value + `";`
	if p.Comment == "" {
		return line
	}
	return formatComment(p.Comment) + "\n" + line
}

func formatComment(c string) string {
	c = strings.TrimSpace(c)
	if strings.HasPrefix(c, "/*") || strings.HasPrefix(c, "//") {
		return c
	}
	return "/* " + c + " */"
}

// ToResource converts the file into a single-language resource.
func (f *File) ToResource() domain.Resource {
	res := domain.Resource{Metadata: domain.Metadata{Language: f.Language}}
	for _, p := range f.Pairs {
		res.Entries = append(res.Entries, domain.Entry{
			ID:      p.Key,
			Value:   domain.Singular(p.Value),
			Comment: p.Comment,
			Status:  domain.StatusFromValue(p.Value),
		})
	}
	return res
}

// FromResource fails with InvalidResource when an entry holds plural forms.
func FromResource(res domain.Resource) (*File, error) {
	f := &File{Language: res.Metadata.Language}
	for _, e := range res.Entries {
		switch e.Value.Kind {
		case domain.TranslationPlural:
			return nil, domain.NewError(domain.CodeInvalidResource,
				"plural translations are not supported in .strings format (key %q)", e.ID)
		case domain.TranslationSingular, domain.TranslationEmpty:
			f.Pairs = append(f.Pairs, Pair{Key: e.ID, Value: e.Value.PlainText(), Comment: e.Comment})
		}
	}
	return f, nil
}
