// Package xcstrings reads and writes Apple String Catalogs (.xcstrings).
package xcstrings

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"langcodec/internal/domain"
	"langcodec/internal/parser"
)

// Document is the JSON layout Xcode writes.
type Document struct {
	SourceLanguage string          `json:"sourceLanguage"`
	Strings        map[string]Item `json:"strings"`
	Version        string          `json:"version"`
}

type Item struct {
	Comment                string                  `json:"comment,omitempty"`
	ExtractionState        string                  `json:"extractionState,omitempty"`
	IsCommentAutoGenerated *bool                   `json:"isCommentAutoGenerated,omitempty"`
	Localizations          map[string]Localization `json:"localizations,omitempty"`
	ShouldTranslate        *bool                   `json:"shouldTranslate,omitempty"`
}

// Localization holds either a plain string unit or plural variations.
type Localization struct {
	StringUnit *StringUnit `json:"stringUnit,omitempty"`
	Variations *Variations `json:"variations,omitempty"`
}

type StringUnit struct {
	State domain.EntryStatus `json:"state"`
	Value string             `json:"value"`
}

type Variations struct {
	Plural map[domain.PluralCategory]Variation `json:"plural,omitempty"`
}

type Variation struct {
	StringUnit *StringUnit `json:"stringUnit,omitempty"`
}

var _ parser.Format = (*Document)(nil)

func (d *Document) Decode(r io.Reader) error {
	*d = Document{}
	if err := json.NewDecoder(r).Decode(d); err != nil {
		return domain.WrapError(domain.CodeParse, err, "decode xcstrings")
	}
	return nil
}

func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return domain.WrapError(domain.CodeParse, err, "encode xcstrings")
	}
	return nil
}

// Languages returns the source language first, then every other localized language sorted.
func (d *Document) Languages() []string {
	seen := map[string]bool{}
	var others []string
	for _, item := range d.Strings {
		for lang := range item.Localizations {
			if lang == d.SourceLanguage || seen[lang] {
				continue
			}
			seen[lang] = true
			others = append(others, lang)
		}
	}
	sort.Strings(others)
	if d.SourceLanguage == "" {
		return others
	}
	return append([]string{d.SourceLanguage}, others...)
}

// ToResources splits the catalog into one resource per language. Every
// resource carries the source_language and version custom keys.
func (d *Document) ToResources() []domain.Resource {
	langs := d.Languages()
	byLang := make(map[string]*domain.Resource, len(langs))
	out := make([]domain.Resource, len(langs))
	for i, lang := range langs {
		out[i] = domain.Resource{Metadata: domain.Metadata{
			Language: lang,
			Custom: map[string]string{
				domain.CustomSourceLanguage: d.SourceLanguage,
				domain.CustomVersion:        d.Version,
			},
		}}
		byLang[lang] = &out[i]
	}

	keys := make([]string, 0, len(d.Strings))
	for k := range d.Strings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, id := range keys {
		item := d.Strings[id]
		base := domain.Entry{ID: id, Comment: item.Comment}
		if item.ExtractionState != "" {
			base.SetCustom(domain.CustomExtractionState, item.ExtractionState)
		}
		if item.IsCommentAutoGenerated != nil {
			base.SetCustom(domain.CustomCommentAutoGenerated, strconv.FormatBool(*item.IsCommentAutoGenerated))
		}

		if len(item.Localizations) == 0 {
			status := domain.StatusNew
			if item.ShouldTranslate != nil && !*item.ShouldTranslate {
				status = domain.StatusDoNotTranslate
			}
			for _, lang := range langs {
				e := base.Clone()
				e.Value = domain.Empty()
				e.Status = status
				byLang[lang].AddEntry(e)
			}
			continue
		}

		for _, lang := range langs {
			loc, ok := item.Localizations[lang]
			if !ok {
				continue
			}
			value, ok := loc.translation(id)
			if !ok {
				continue
			}
			e := base.Clone()
			e.Value = value
			e.Status = loc.state()
			if item.ShouldTranslate != nil && !*item.ShouldTranslate {
				e.Status = domain.StatusDoNotTranslate
			}
			byLang[lang].AddEntry(e)
		}
	}
	return out
}

func (l Localization) translation(id string) (domain.Translation, bool) {
	if l.StringUnit != nil {
		return domain.Singular(l.StringUnit.Value), true
	}
	if l.Variations == nil {
		return domain.Translation{}, false
	}
	forms := map[domain.PluralCategory]string{}
	for cat, v := range l.Variations.Plural {
		if v.StringUnit != nil {
			forms[cat] = v.StringUnit.Value
		}
	}
	p, ok := domain.NewPlural(id, forms)
	if !ok {
		return domain.Translation{}, false
	}
	return domain.PluralOf(p), true
}

// state of a plural is the state of its first form in category order.
func (l Localization) state() domain.EntryStatus {
	if l.StringUnit != nil {
		return l.StringUnit.State
	}
	if l.Variations != nil {
		for _, cat := range domain.PluralCategories() {
			if v, ok := l.Variations.Plural[cat]; ok && v.StringUnit != nil {
				return v.StringUnit.State
			}
		}
	}
	return domain.StatusStale
}

// FromResources merges single-language resources into one catalog. Every
// resource must carry the same source_language and version custom keys.
func FromResources(resources []domain.Resource) (*Document, error) {
	if len(resources) == 0 {
		return nil, domain.NewError(domain.CodeInvalidResource, "no resources to write")
	}
	d := &Document{Strings: map[string]Item{}}
	for i, res := range resources {
		src, ok := res.Metadata.CustomValue(domain.CustomSourceLanguage)
		if !ok || src == "" {
			return nil, domain.NewError(domain.CodeInvalidResource,
				"resource %q has no source language in metadata", res.Metadata.Language)
		}
		ver, ok := res.Metadata.CustomValue(domain.CustomVersion)
		if !ok || ver == "" {
			return nil, domain.NewError(domain.CodeInvalidResource,
				"resource %q has no version in metadata", res.Metadata.Language)
		}
		if i == 0 {
			d.SourceLanguage, d.Version = src, ver
		} else {
			if src != d.SourceLanguage {
				return nil, domain.NewError(domain.CodeDataMismatch,
					"source language mismatch: expected %s, found %s", d.SourceLanguage, src)
			}
			if ver != d.Version {
				return nil, domain.NewError(domain.CodeDataMismatch,
					"version mismatch: expected %s, found %s", d.Version, ver)
			}
		}

		for _, e := range res.Entries {
			item, seen := d.Strings[e.ID]
			if !seen {
				item = newItem(e)
			}
			if loc, ok := localizationOf(e); ok {
				if item.Localizations == nil {
					item.Localizations = map[string]Localization{}
				}
				item.Localizations[res.Metadata.Language] = loc
			}
			d.Strings[e.ID] = item
		}
	}
	return d, nil
}

func newItem(e domain.Entry) Item {
	item := Item{Comment: e.CommentText()}
	if v, ok := e.Custom[domain.CustomExtractionState]; ok {
		item.ExtractionState = v
	}
	if v, ok := e.Custom[domain.CustomCommentAutoGenerated]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			item.IsCommentAutoGenerated = &b
		}
	}
	if e.Status == domain.StatusDoNotTranslate {
		no := false
		item.ShouldTranslate = &no
	}
	return item
}

// localizationOf builds the localization of one entry. DoNotTranslate is not a
// catalog state; it is carried by the item's shouldTranslate flag instead.
func localizationOf(e domain.Entry) (Localization, bool) {
	state := e.Status
	if state == "" || state == domain.StatusDoNotTranslate {
		state = domain.StatusTranslated
		if e.Value.IsEmpty() {
			state = domain.StatusNew
		}
	}
	switch e.Value.Kind {
	case domain.TranslationSingular:
		return Localization{StringUnit: &StringUnit{State: state, Value: e.Value.Text}}, true
	case domain.TranslationPlural:
		if e.Value.Plural == nil || len(e.Value.Plural.Forms) == 0 {
			return Localization{}, false
		}
		v := &Variations{Plural: map[domain.PluralCategory]Variation{}}
		for cat, text := range e.Value.Plural.Forms {
			v.Plural[cat] = Variation{StringUnit: &StringUnit{State: state, Value: text}}
		}
		return Localization{Variations: v}, true
	}
	return Localization{}, false
}
