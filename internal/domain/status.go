package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type PluralCategory int

const (
	PluralZero PluralCategory = iota
	PluralOne
	PluralTwo
	PluralFew
	PluralMany
	PluralOther
)

var pluralNames = [...]string{"zero", "one", "two", "few", "many", "other"}

// PluralCategories lists every category in order.
func PluralCategories() []PluralCategory {
	return []PluralCategory{PluralZero, PluralOne, PluralTwo, PluralFew, PluralMany, PluralOther}
}

func (c PluralCategory) String() string {
	if c < 0 || int(c) >= len(pluralNames) {
		return fmt.Sprintf("PluralCategory(%d)", int(c))
	}
	return pluralNames[c]
}

func ParsePluralCategory(s string) (PluralCategory, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, name := range pluralNames {
		if v == name {
			return PluralCategory(i), nil
		}
	}
	return 0, NewError(CodeDataMismatch, "unknown plural category %q", s)
}

func (c PluralCategory) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(pluralNames) {
		return nil, NewError(CodeDataMismatch, "invalid plural category %d", int(c))
	}
	return []byte(pluralNames[c]), nil
}

func (c *PluralCategory) UnmarshalText(b []byte) error {
	v, err := ParsePluralCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

type EntryStatus string

const (
	StatusDoNotTranslate EntryStatus = "do_not_translate"
	StatusNew            EntryStatus = "new"
	StatusStale          EntryStatus = "stale"
	StatusNeedsReview    EntryStatus = "needs_review"
	StatusTranslated     EntryStatus = "translated"
)

// EntryStatuses lists every status.
func EntryStatuses() []EntryStatus {
	return []EntryStatus{StatusDoNotTranslate, StatusNew, StatusStale, StatusNeedsReview, StatusTranslated}
}

// ParseEntryStatus accepts snake_case, SCREAMING_CASE and CamelCase spellings.
func ParseEntryStatus(s string) (EntryStatus, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, st := range EntryStatuses() {
		if strings.ReplaceAll(string(st), "_", "") == key {
			return st, nil
		}
	}
	return "", NewError(CodeDataMismatch, "unknown entry status %q", s)
}

func (s *EntryStatus) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = ""
		return nil
	}
	v, err := ParseEntryStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// StatusFromValue derives the default status of a plain value.
func StatusFromValue(value string) EntryStatus {
	if value == "" {
		return StatusNew
	}
	return StatusTranslated
}

// Translations serialize externally tagged: "Empty", {"Singular": ...}, {"Plural": ...}.
func (t Translation) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TranslationSingular:
		return json.Marshal(map[string]string{"Singular": t.Text})
	case TranslationPlural:
		p := Plural{}
		if t.Plural != nil {
			p = *t.Plural
		}
		return json.Marshal(map[string]Plural{"Plural": p})
	default:
		return json.Marshal("Empty")
	}
}

func (t *Translation) UnmarshalJSON(b []byte) error {
	var tag string
	if err := json.Unmarshal(b, &tag); err == nil {
		if tag != "Empty" {
			return NewError(CodeDataMismatch, "unknown translation variant %q", tag)
		}
		*t = Empty()
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return NewError(CodeDataMismatch, "translation must have exactly one variant")
	}
	for k, v := range raw {
		switch k {
		case "Singular":
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			*t = Singular(s)
		case "Plural":
			var p Plural
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			*t = PluralOf(p)
		default:
			return NewError(CodeDataMismatch, "unknown translation variant %q", k)
		}
	}
	return nil
}
