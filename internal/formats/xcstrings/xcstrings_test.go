package xcstrings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langcodec/internal/domain"
	"langcodec/internal/parser"
)

const catalog = `{
  "sourceLanguage" : "en",
  "strings" : {
    "apples" : {
      "localizations" : {
        "en" : {
          "variations" : {
            "plural" : {
              "one" : { "stringUnit" : { "state" : "translated", "value" : "One apple" } },
              "other" : { "stringUnit" : { "state" : "needs_review", "value" : "%lld apples" } }
            }
          }
        }
      }
    },
    "greeting" : {
      "comment" : "Shown on launch",
      "extractionState" : "manual",
      "localizations" : {
        "en" : { "stringUnit" : { "state" : "translated", "value" : "Hello" } },
        "fr" : { "stringUnit" : { "state" : "needs_review", "value" : "Bonjour" } }
      }
    },
    "pending" : {}
  },
  "version" : "1.0"
}`

func TestToResources(t *testing.T) {
	var d Document
	require.NoError(t, parser.FromString(catalog, &d))
	assert.Equal(t, []string{"en", "fr"}, d.Languages())

	res := d.ToResources()
	require.Len(t, res, 2)
	en, fr := res[0], res[1]
	assert.Equal(t, "en", en.Metadata.Language)
	assert.Equal(t, "fr", fr.Metadata.Language)
	for _, r := range res {
		assert.Equal(t, "en", r.Metadata.Custom[domain.CustomSourceLanguage])
		assert.Equal(t, "1.0", r.Metadata.Custom[domain.CustomVersion])
	}

	require.Len(t, en.Entries, 3)
	assert.Equal(t, []string{"apples", "greeting", "pending"},
		[]string{en.Entries[0].ID, en.Entries[1].ID, en.Entries[2].ID})

	apples := en.Entries[0]
	require.Equal(t, domain.TranslationPlural, apples.Value.Kind)
	assert.Equal(t, "One apple", apples.Value.Plural.Forms[domain.PluralOne])
	assert.Equal(t, domain.StatusTranslated, apples.Status)

	greeting := en.Entries[1]
	assert.Equal(t, "Hello", greeting.Value.PlainText())
	assert.Equal(t, "Shown on launch", greeting.Comment)
	assert.Equal(t, "manual", greeting.Custom[domain.CustomExtractionState])

	pending := en.Entries[2]
	assert.Equal(t, domain.TranslationEmpty, pending.Value.Kind)
	assert.Equal(t, domain.StatusNew, pending.Status)

	require.Len(t, fr.Entries, 2)
	assert.Equal(t, "Bonjour", fr.FindEntry("greeting").Value.PlainText())
	assert.Equal(t, domain.StatusNeedsReview, fr.FindEntry("greeting").Status)
	assert.NotNil(t, fr.FindEntry("pending"))
}

func TestPluralStateFallsBackToStale(t *testing.T) {
	loc := Localization{Variations: &Variations{Plural: map[domain.PluralCategory]Variation{
		domain.PluralOther: {},
	}}}
	assert.Equal(t, domain.StatusStale, loc.state())
}

func TestRoundTrip(t *testing.T) {
	var d Document
	require.NoError(t, parser.FromString(catalog, &d))

	back, err := FromResources(d.ToResources())
	require.NoError(t, err)
	assert.Equal(t, "en", back.SourceLanguage)
	assert.Equal(t, "1.0", back.Version)
	assert.Equal(t, d.Strings["greeting"].Localizations, back.Strings["greeting"].Localizations)
	assert.Equal(t, "manual", back.Strings["greeting"].ExtractionState)
	assert.Empty(t, back.Strings["pending"].Localizations)
	assert.Equal(t, []string{"one", "other"}, formsOf(back.Strings["apples"].Localizations["en"]))

	out, err := parser.ToString(back)
	require.NoError(t, err)
	assert.Contains(t, out, `"sourceLanguage": "en"`)
	assert.Contains(t, out, `"value": "Bonjour"`)
}

func formsOf(l Localization) []string {
	var out []string
	for _, cat := range domain.PluralCategories() {
		if _, ok := l.Variations.Plural[cat]; ok {
			out = append(out, cat.String())
		}
	}
	return out
}

func resource(lang, source, version string, entries ...domain.Entry) domain.Resource {
	r := domain.Resource{Metadata: domain.Metadata{Language: lang}, Entries: entries}
	if source != "" {
		r.Metadata.SetCustom(domain.CustomSourceLanguage, source)
	}
	if version != "" {
		r.Metadata.SetCustom(domain.CustomVersion, version)
	}
	return r
}

func TestFromResourcesRequiresMetadata(t *testing.T) {
	hello := domain.Entry{ID: "hello", Value: domain.Singular("Hello"), Status: domain.StatusTranslated}

	_, err := FromResources([]domain.Resource{resource("en", "", "1.0", hello)})
	assert.ErrorIs(t, err, domain.ErrInvalidResource)

	_, err = FromResources([]domain.Resource{resource("en", "en", "", hello)})
	assert.ErrorIs(t, err, domain.ErrInvalidResource)

	_, err = FromResources([]domain.Resource{
		resource("en", "en", "1.0", hello),
		resource("fr", "fr", "1.0", hello),
	})
	assert.ErrorIs(t, err, domain.ErrDataMismatch)

	_, err = FromResources([]domain.Resource{
		resource("en", "en", "1.0", hello),
		resource("fr", "en", "2.0", hello),
	})
	assert.ErrorIs(t, err, domain.ErrDataMismatch)

	_, err = FromResources(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidResource)
}

func TestFromResourcesFirstResourceOwnsItemMetadata(t *testing.T) {
	en := resource("en", "en", "1.0",
		domain.Entry{ID: "brand", Value: domain.Singular("Acme"), Status: domain.StatusDoNotTranslate, Comment: "/* Product name */"})
	fr := resource("fr", "en", "1.0",
		domain.Entry{ID: "brand", Value: domain.Singular("Acme FR"), Status: domain.StatusTranslated, Comment: "ignored"})

	d, err := FromResources([]domain.Resource{en, fr})
	require.NoError(t, err)
	item := d.Strings["brand"]
	assert.Equal(t, "Product name", item.Comment)
	require.NotNil(t, item.ShouldTranslate)
	assert.False(t, *item.ShouldTranslate)
	assert.Equal(t, "Acme FR", item.Localizations["fr"].StringUnit.Value)
	assert.Len(t, item.Localizations, 2)
}

func TestDoNotTranslateUsesShouldTranslate(t *testing.T) {
	en := resource("en", "en", "1.0",
		domain.Entry{ID: "brand", Value: domain.Singular("Acme"), Status: domain.StatusDoNotTranslate},
		domain.Entry{ID: "hello", Value: domain.Singular("Hello"), Status: domain.StatusTranslated})
	d, err := FromResources([]domain.Resource{en})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTranslated, d.Strings["brand"].Localizations["en"].StringUnit.State)

	out, err := parser.ToString(d)
	require.NoError(t, err)
	assert.NotContains(t, out, "do_not_translate")
	assert.Contains(t, out, `"shouldTranslate": false`)

	var back Document
	require.NoError(t, parser.FromString(out, &back))
	res := back.ToResources()
	require.Len(t, res, 1)
	assert.Equal(t, domain.StatusDoNotTranslate, res[0].FindEntry("brand").Status)
	assert.Equal(t, domain.StatusTranslated, res[0].FindEntry("hello").Status)
}

func TestDecodeInvalidJSON(t *testing.T) {
	var d Document
	err := parser.FromString(`{"sourceLanguage": `, &d)
	assert.ErrorIs(t, err, domain.ErrParse)
}
