package domain

import (
	"sort"
	"strings"
)

// Custom metadata keys shared between codecs and the aggregate container.
const (
	CustomFormat                 = "format"
	CustomSourceLanguage         = "source_language"
	CustomVersion                = "version"
	CustomSourcePath             = "source_path"
	CustomExtractionState        = "extraction_state"
	CustomCommentAutoGenerated   = "is_comment_auto_generated"
	DefaultXcstringsVersion      = "1.0"
	DefaultTableLanguageSentinel = "default"
)

type Resource struct {
	Metadata Metadata `json:"metadata"`
	Entries  []Entry  `json:"entries,omitempty"`
}

type Metadata struct {
	Language string            `json:"language"`
	Domain   string            `json:"domain"`
	Custom   map[string]string `json:"custom,omitempty"`
}

type Entry struct {
	ID      string            `json:"id"`
	Value   Translation       `json:"value"`
	Comment string            `json:"comment,omitempty"`
	Status  EntryStatus       `json:"status"`
	Custom  map[string]string `json:"custom,omitempty"`
}

// FindEntry returns the entry with the given id or nil.
func (r *Resource) FindEntry(id string) *Entry {
	for i := range r.Entries {
		if r.Entries[i].ID == id {
			return &r.Entries[i]
		}
	}
	return nil
}

func (r *Resource) AddEntry(e Entry) {
	r.Entries = append(r.Entries, e)
}

// HasLanguage compares languages case-insensitively, treating '_' and '-' alike.
func (r Resource) HasLanguage(lang string) bool {
	return normalizeTag(r.Metadata.Language) == normalizeTag(lang)
}

// SetCustom lazily allocates the custom map.
func (m *Metadata) SetCustom(key, value string) {
	if m.Custom == nil {
		m.Custom = map[string]string{}
	}
	m.Custom[key] = value
}

func (m Metadata) CustomValue(key string) (string, bool) {
	v, ok := m.Custom[key]
	return v, ok
}

// Clone returns a deep copy so callers can mutate without aliasing maps or plurals.
func (r Resource) Clone() Resource {
	out := Resource{
		Metadata: Metadata{
			Language: r.Metadata.Language,
			Domain:   r.Metadata.Domain,
			Custom:   cloneMap(r.Metadata.Custom),
		},
	}
	if r.Entries != nil {
		out.Entries = make([]Entry, len(r.Entries))
		for i, e := range r.Entries {
			out.Entries[i] = e.Clone()
		}
	}
	return out
}

func (e Entry) Clone() Entry {
	e.Custom = cloneMap(e.Custom)
	e.Value = e.Value.Clone()
	return e
}

// SetCustom lazily allocates the custom map.
func (e *Entry) SetCustom(key, value string) {
	if e.Custom == nil {
		e.Custom = map[string]string{}
	}
	e.Custom[key] = value
}

// CommentText strips the comment markers of the source format.
func (e Entry) CommentText() string {
	c := strings.TrimSpace(e.Comment)
	switch {
	case strings.HasPrefix(c, "/*") && strings.HasSuffix(c, "*/") && len(c) >= 4:
		return strings.TrimSpace(c[2 : len(c)-2])
	case strings.HasPrefix(c, "<!--") && strings.HasSuffix(c, "-->") && len(c) >= 7:
		return strings.TrimSpace(c[4 : len(c)-3])
	case strings.HasPrefix(c, "//"):
		return strings.TrimSpace(c[2:])
	}
	return c
}

type TranslationKind int

const (
	TranslationEmpty TranslationKind = iota
	TranslationSingular
	TranslationPlural
)

func (k TranslationKind) String() string {
	switch k {
	case TranslationSingular:
		return "singular"
	case TranslationPlural:
		return "plural"
	default:
		return "empty"
	}
}

// Translation is a closed union; Text is set for singular values, Plural for plural ones.
type Translation struct {
	Kind   TranslationKind
	Text   string
	Plural *Plural
}

func Empty() Translation { return Translation{Kind: TranslationEmpty} }

func Singular(text string) Translation {
	return Translation{Kind: TranslationSingular, Text: text}
}

func PluralOf(p Plural) Translation {
	return Translation{Kind: TranslationPlural, Plural: &p}
}

// PlainText is the singular text; empty and plural values yield "".
func (t Translation) PlainText() string {
	if t.Kind == TranslationSingular {
		return t.Text
	}
	return ""
}

func (t Translation) IsEmpty() bool {
	switch t.Kind {
	case TranslationSingular:
		return t.Text == ""
	case TranslationPlural:
		if t.Plural == nil {
			return true
		}
		for _, v := range t.Plural.Forms {
			if v != "" {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t Translation) Clone() Translation {
	if t.Plural != nil {
		p := Plural{ID: t.Plural.ID, Forms: make(map[PluralCategory]string, len(t.Plural.Forms))}
		for k, v := range t.Plural.Forms {
			p.Forms[k] = v
		}
		t.Plural = &p
	}
	return t
}

// Map applies fn to every text carried by the translation.
func (t Translation) Map(fn func(string) string) Translation {
	switch t.Kind {
	case TranslationSingular:
		return Singular(fn(t.Text))
	case TranslationPlural:
		out := t.Clone()
		if out.Plural != nil {
			for k, v := range out.Plural.Forms {
				out.Plural.Forms[k] = fn(v)
			}
		}
		return out
	default:
		return t
	}
}

type Plural struct {
	ID    string                    `json:"id"`
	Forms map[PluralCategory]string `json:"forms,omitempty"`
}

// NewPlural returns false when no forms are given.
func NewPlural(id string, forms map[PluralCategory]string) (Plural, bool) {
	if len(forms) == 0 {
		return Plural{}, false
	}
	p := Plural{ID: id, Forms: make(map[PluralCategory]string, len(forms))}
	for k, v := range forms {
		p.Forms[k] = v
	}
	return p, true
}

// Categories returns the present categories in CLDR order.
func (p Plural) Categories() []PluralCategory {
	cats := make([]PluralCategory, 0, len(p.Forms))
	for c := range p.Forms {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

type ConflictStrategy string

const (
	ConflictFirst ConflictStrategy = "first"
	ConflictLast  ConflictStrategy = "last"
	ConflictSkip  ConflictStrategy = "skip"
)

func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch ConflictStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case ConflictFirst:
		return ConflictFirst, nil
	case ConflictLast, "":
		return ConflictLast, nil
	case ConflictSkip:
		return ConflictSkip, nil
	}
	return "", NewError(CodeDataMismatch, "unknown conflict strategy %q", s)
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
}
