// Package androidxml reads and writes Android strings.xml resources.
//
// Supported elements:
//   - <string>  a single value
//   - <plurals> quantity-keyed forms (zero/one/two/few/many/other)
//
// Other elements such as <string-array> are skipped on read.
package androidxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"langcodec/internal/domain"
	"langcodec/internal/parser"
)

// Element is one <string> or <plurals> resource.
type Element struct {
	Name  string
	Value string

	Plural bool
	Forms  map[domain.PluralCategory]string

	// Translatable is nil when the attribute is absent.
	Translatable *bool
	// Comment is the text of the XML comment directly above the element, without markers.
	Comment string
}

// File is a parsed strings.xml. The language is not stored in the file; callers
// set it from the path or the requested format.
type File struct {
	Language string
	Elements []Element
}

var _ parser.Format = (*File)(nil)

func (f *File) Decode(r io.Reader) error {
	rd := &reader{dec: xml.NewDecoder(r), prefixes: map[string]string{}}
	f.Elements = nil
	var pending string
	for {
		tok, err := rd.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return xmlError(err, "read strings.xml")
		}
		switch t := tok.(type) {
		case xml.Comment:
			pending = strings.TrimSpace(string(t))
		case xml.StartElement:
			rd.learnPrefixes(t)
			switch t.Name.Local {
			case "resources":
				pending = ""
			case "string":
				e, err := rd.readString(t)
				if err != nil {
					return err
				}
				e.Comment = pending
				pending = ""
				f.Elements = append(f.Elements, e)
			case "plurals":
				e, err := rd.readPlurals(t)
				if err != nil {
					return err
				}
				e.Comment = pending
				pending = ""
				f.Elements = append(f.Elements, e)
			default:
				pending = ""
				if err := rd.dec.Skip(); err != nil {
					return xmlError(err, "skip <%s>", t.Name.Local)
				}
			}
		}
	}
}

type reader struct {
	dec *xml.Decoder
	// prefixes maps namespace URLs back to the prefixes declared in the document.
	prefixes map[string]string
}

func (rd *reader) learnPrefixes(t xml.StartElement) {
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" {
			rd.prefixes[a.Value] = a.Name.Local
		}
	}
}

func (rd *reader) readString(start xml.StartElement) (Element, error) {
	name, translatable, err := resourceAttrs(start)
	if err != nil {
		return Element{}, err
	}
	text, err := rd.readContent()
	if err != nil {
		return Element{}, xmlError(err, "read <string name=%q>", name)
	}
	return Element{Name: name, Value: normalizeText(text), Translatable: translatable}, nil
}

func (rd *reader) readPlurals(start xml.StartElement) (Element, error) {
	name, translatable, err := resourceAttrs(start)
	if err != nil {
		return Element{}, err
	}
	e := Element{
		Name:         name,
		Plural:       true,
		Forms:        map[domain.PluralCategory]string{},
		Translatable: translatable,
	}
	for {
		tok, err := rd.dec.Token()
		if err != nil {
			return Element{}, xmlError(err, "read <plurals name=%q>", name)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			rd.learnPrefixes(t)
			if t.Name.Local != "item" {
				if err := rd.dec.Skip(); err != nil {
					return Element{}, xmlError(err, "read <plurals name=%q>", name)
				}
				continue
			}
			quantity, ok := attr(t, "quantity")
			if !ok {
				return Element{}, domain.NewError(domain.CodeXMLParse,
					"<plurals name=%q>: item without quantity attribute", name)
			}
			cat, err := domain.ParsePluralCategory(quantity)
			if err != nil {
				return Element{}, domain.NewError(domain.CodeXMLParse,
					"<plurals name=%q>: unknown quantity %q", name, quantity)
			}
			text, err := rd.readContent()
			if err != nil {
				return Element{}, xmlError(err, "read <item quantity=%q> in <plurals name=%q>", quantity, name)
			}
			e.Forms[cat] = normalizeText(text)
		case xml.EndElement:
			return e, nil
		}
	}
}

// readContent reads up to the matching end tag, rebuilding inline child
// elements such as <xliff:g> and <b> as raw text. Text next to inline elements
// keeps & and < escaped so the value stays well-formed markup.
func (rd *reader) readContent() (string, error) {
	var b, plain strings.Builder
	markup := false
	depth := 1
	for depth > 0 {
		tok, err := rd.dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text := unescapeApostrophe(string(t))
			plain.WriteString(text)
			b.WriteString(escapeMarkupText(text))
		case xml.StartElement:
			rd.learnPrefixes(t)
			markup = true
			depth++
			b.WriteByte('<')
			b.WriteString(rd.qualified(t.Name))
			for _, a := range t.Attr {
				fmt.Fprintf(&b, ` %s="%s"`, rd.qualified(a.Name), escapeAttr(a.Value))
			}
			b.WriteByte('>')
		case xml.EndElement:
			depth--
			if depth > 0 {
				b.WriteString("</")
				b.WriteString(rd.qualified(t.Name))
				b.WriteByte('>')
			}
		}
	}
	if !markup {
		return plain.String(), nil
	}
	return b.String(), nil
}

func escapeMarkupText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	return strings.ReplaceAll(s, "<", "&lt;")
}

func (rd *reader) qualified(n xml.Name) string {
	switch {
	case n.Space == "":
		return n.Local
	case n.Space == "xmlns":
		return "xmlns:" + n.Local
	}
	if p, ok := rd.prefixes[n.Space]; ok {
		return p + ":" + n.Local
	}
	return n.Space + ":" + n.Local
}

func resourceAttrs(t xml.StartElement) (string, *bool, error) {
	name, ok := attr(t, "name")
	if !ok {
		return "", nil, domain.NewError(domain.CodeInvalidResource, "<%s> is missing the name attribute", t.Name.Local)
	}
	var translatable *bool
	if v, ok := attr(t, "translatable"); ok {
		b := !strings.EqualFold(strings.TrimSpace(v), "false")
		translatable = &b
	}
	return name, translatable, nil
}

func attr(t xml.StartElement, local string) (string, bool) {
	for _, a := range t.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

var trailingIndent = regexp.MustCompile(`\n[ \t]*$`)

// normalizeText collapses a pretty-printing tail to four spaces and turns the
// remaining newlines into the literal \n escape.
func normalizeText(s string) string {
	if loc := trailingIndent.FindStringIndex(s); loc != nil {
		s = s[:loc[0]] + "    "
	}
	return strings.ReplaceAll(s, "\n", `\n`)
}

func (f *File) Encode(w io.Writer) error {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<resources>\n")
	for _, e := range f.Elements {
		if e.Comment != "" {
			fmt.Fprintf(&b, "    <!-- %s -->\n", strings.ReplaceAll(e.Comment, "--", "- -"))
		}
		attrs := fmt.Sprintf(`name="%s"`, escapeAttr(e.Name))
		if e.Translatable != nil {
			attrs += fmt.Sprintf(` translatable="%t"`, *e.Translatable)
		}
		if !e.Plural {
			fmt.Fprintf(&b, "    <string %s>%s</string>\n", attrs, escapeValue(e.Value))
			continue
		}
		fmt.Fprintf(&b, "    <plurals %s>\n", attrs)
		for _, cat := range domain.PluralCategories() {
			v, ok := e.Forms[cat]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "        <item quantity=\"%s\">%s</item>\n", cat, escapeValue(v))
		}
		b.WriteString("    </plurals>\n")
	}
	b.WriteString("</resources>\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return parser.IOError(err, "write strings.xml")
	}
	return nil
}

// ToResource converts the file into a single-language resource.
func (f *File) ToResource() domain.Resource {
	res := domain.Resource{Metadata: domain.Metadata{Language: f.Language}}
	for _, e := range f.Elements {
		entry := domain.Entry{ID: e.Name, Comment: e.Comment}
		empty := e.Value == ""
		if e.Plural {
			p := domain.Plural{ID: e.Name, Forms: map[domain.PluralCategory]string{}}
			for k, v := range e.Forms {
				p.Forms[k] = v
			}
			entry.Value = domain.PluralOf(p)
			empty = entry.Value.IsEmpty()
		} else {
			entry.Value = domain.Singular(e.Value)
		}
		switch {
		case e.Translatable != nil && !*e.Translatable:
			entry.Status = domain.StatusDoNotTranslate
		case e.Translatable != nil:
			entry.Status = domain.StatusTranslated
		case empty:
			entry.Status = domain.StatusNew
		default:
			entry.Status = domain.StatusTranslated
		}
		res.Entries = append(res.Entries, entry)
	}
	return res
}

// FromResource maps singular and empty entries to <string> and plural entries
// to <plurals>. Only DoNotTranslate entries carry a translatable attribute.
func FromResource(res domain.Resource) *File {
	f := &File{Language: res.Metadata.Language}
	for _, entry := range res.Entries {
		e := Element{Name: entry.ID, Comment: entry.CommentText()}
		if entry.Status == domain.StatusDoNotTranslate {
			no := false
			e.Translatable = &no
		}
		switch entry.Value.Kind {
		case domain.TranslationPlural:
			e.Plural = true
			e.Forms = map[domain.PluralCategory]string{}
			if entry.Value.Plural != nil {
				for k, v := range entry.Value.Plural.Forms {
					e.Forms[k] = v
				}
			}
		default:
			e.Value = entry.Value.PlainText()
		}
		f.Elements = append(f.Elements, e)
	}
	return f
}

var inlineTag = regexp.MustCompile(`</?[A-Za-z][\w:.-]*(\s[^<>]*)?/?>`)

// escapeValue escapes text content. A value is written as markup only when it
// carries inline tags and parses as well-formed XML; then only apostrophes in
// its text are escaped.
func escapeValue(s string) string {
	if inlineTag.MatchString(s) && wellFormed(s) {
		return escapeTextApostrophes(s)
	}
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return escapeApostrophe(s)
}

func wellFormed(s string) bool {
	dec := xml.NewDecoder(strings.NewReader("<x>" + s + "</x>"))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return true
		}
		if err != nil {
			return false
		}
	}
}

// escapeTextApostrophes escapes apostrophes outside tags, leaving quoted
// attribute values alone.
func escapeTextApostrophes(s string) string {
	var b strings.Builder
	var quote rune
	inTag := false
	prev := rune(0)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case inTag:
			switch r {
			case '"', '\'':
				quote = r
			case '>':
				inTag = false
			}
		case r == '<':
			inTag = true
		case r == '\'' && prev != '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func escapeAttr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// escapeApostrophe normalizes existing \' first so nothing is escaped twice.
func escapeApostrophe(s string) string {
	return strings.ReplaceAll(unescapeApostrophe(s), `'`, `\'`)
}

func unescapeApostrophe(s string) string {
	return strings.ReplaceAll(s, `\'`, `'`)
}

func xmlError(err error, format string, args ...any) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.WrapError(domain.CodeXMLParse, err, format, args...)
}
