package codec

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langcodec/internal/domain"
	"langcodec/internal/formats"
)

func newTestEnv(t *testing.T) (billy.Filesystem, *Codec) {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/app/en.lproj/Localizable.strings",
		[]byte("\"hello\" = \"Hello\";\n\"bye\" = \"Bye\";\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/app/res/values-fr/strings.xml",
		[]byte(`<resources><string name="hello">Bonjour</string></resources>`), 0o644))
	return fs, New(WithFS(fs), WithLogger(nil))
}

func TestReadFileStampsMetadata(t *testing.T) {
	_, c := newTestEnv(t)
	require.NoError(t, c.ReadFileByExtension("/app/en.lproj/Localizable.strings", ""))
	require.NoError(t, c.ReadFileByType("/app/res/values-fr/strings.xml", formats.AndroidStringsOf("")))

	assert.Equal(t, []string{"en", "fr"}, c.Languages())
	en := c.GetByLanguage("en")
	require.NotNil(t, en)
	assert.Equal(t, "Localizable", en.Metadata.Domain)
	assert.Equal(t, "strings", en.Metadata.Custom[domain.CustomFormat])
	assert.Equal(t, "/app/en.lproj/Localizable.strings", en.Metadata.Custom[domain.CustomSourcePath])

	fr := c.GetByLanguage("fr")
	require.NotNil(t, fr)
	assert.Equal(t, "strings", fr.Metadata.Domain)
	assert.Equal(t, "android", fr.Metadata.Custom[domain.CustomFormat])
}

func TestReadFileByExtensionRejectsUnknown(t *testing.T) {
	_, c := newTestEnv(t)
	err := c.ReadFileByExtension("/app/notes.txt", "en")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestReadHeaderlessTableWithLanguageHint(t *testing.T) {
	fs, c := newTestEnv(t)
	require.NoError(t, util.WriteFile(fs, "/data/t.csv", []byte("hello,Hello\nbye,Bye\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/data/u.tsv", []byte("hello\tHallo\n"), 0o644))

	require.NoError(t, c.ReadFileByExtension("/data/t.csv", "en"))
	require.NoError(t, c.ReadFileByExtension("/data/u.tsv", "de"))
	assert.Equal(t, []string{"en", "de"}, c.Languages())
	en := c.GetByLanguage("en")
	require.NotNil(t, en)
	assert.Equal(t, "Bye", en.FindEntry("bye").Value.PlainText())

	plain := New(WithFS(fs), WithLogger(nil))
	require.NoError(t, plain.ReadFileByExtension("/data/t.csv", ""))
	assert.Equal(t, []string{domain.DefaultTableLanguageSentinel}, plain.Languages())
}

func TestQueries(t *testing.T) {
	_, c := newTestEnv(t)
	require.NoError(t, c.ReadFileByExtension("/app/en.lproj/Localizable.strings", ""))
	require.NoError(t, c.ReadFileByExtension("/app/res/values-fr/strings.xml", ""))

	assert.Equal(t, []string{"hello", "bye"}, c.AllKeys())
	assert.True(t, c.HasEntry("bye", "en"))
	assert.False(t, c.HasEntry("bye", "fr"))
	assert.Equal(t, 2, c.EntryCount("en"))
	assert.Equal(t, 0, c.EntryCount("de"))

	matches := c.FindEntries("hello")
	require.Len(t, matches, 2)
	assert.Equal(t, "Hello", matches[0].Entry.Value.PlainText())
	assert.Equal(t, "fr", matches[1].Resource.Metadata.Language)
	assert.Nil(t, c.FindEntry("hello", "de"))
}

func TestEditing(t *testing.T) {
	c := New(WithFS(memfs.New()), WithLogger(nil))

	require.NoError(t, c.AddEntry("hello", "en", domain.Singular("Hello"), "greeting", ""))
	assert.Equal(t, domain.StatusNew, c.FindEntry("hello", "en").Status)
	assert.ErrorIs(t, c.AddEntry("hello", "en", domain.Singular("Hi"), "", ""), domain.ErrInvalidResource)

	require.NoError(t, c.UpdateTranslation("hello", "en", domain.Singular("Hi"), domain.StatusTranslated))
	e := c.FindEntry("hello", "en")
	assert.Equal(t, "Hi", e.Value.PlainText())
	assert.Equal(t, domain.StatusTranslated, e.Status)
	assert.ErrorIs(t, c.UpdateTranslation("missing", "en", domain.Singular("x"), ""), domain.ErrInvalidResource)

	require.NoError(t, c.CopyEntry("hello", "en", "fr", true))
	copied := c.FindEntry("hello", "fr")
	require.NotNil(t, copied)
	assert.Equal(t, "Hi", copied.Value.PlainText())
	assert.Equal(t, domain.StatusNew, copied.Status)

	require.NoError(t, c.UpdateTranslation("hello", "fr", domain.Singular("Salut"), ""))
	require.NoError(t, c.CopyEntry("hello", "en", "fr", false))
	assert.Equal(t, "Hi", c.FindEntry("hello", "fr").Value.PlainText())
	assert.Equal(t, 1, c.EntryCount("fr"))
	assert.ErrorIs(t, c.CopyEntry("missing", "en", "fr", false), domain.ErrInvalidResource)

	require.NoError(t, c.RemoveEntry("hello", "fr"))
	assert.False(t, c.HasEntry("hello", "fr"))
	assert.ErrorIs(t, c.RemoveEntry("hello", "fr"), domain.ErrInvalidResource)
	assert.ErrorIs(t, c.RemoveEntry("hello", "de"), domain.ErrInvalidResource)
}

func TestValidate(t *testing.T) {
	c := New(WithFS(memfs.New()), WithLogger(nil))
	assert.ErrorIs(t, c.Validate(), domain.ErrValidation)

	require.NoError(t, c.AddEntry("hello", "en", domain.Singular("Hello"), "", ""))
	assert.NoError(t, c.Validate())

	c.AddResource(domain.Resource{Metadata: domain.Metadata{Language: "fr"}})
	assert.ErrorIs(t, c.Validate(), domain.ErrValidation)

	c.AddResource(domain.Resource{Metadata: domain.Metadata{Language: "en"}, Entries: []domain.Entry{{ID: "x"}}})
	assert.ErrorIs(t, c.Validate(), domain.ErrValidation)
}

func TestWriteToFile(t *testing.T) {
	fs, c := newTestEnv(t)
	require.NoError(t, c.ReadFileByExtension("/app/en.lproj/Localizable.strings", ""))
	require.NoError(t, c.UpdateTranslation("hello", "en", domain.Singular("Howdy"), ""))

	c.AddResource(domain.Resource{
		Metadata: domain.Metadata{Language: "en", Domain: "/out/Strings", Custom: map[string]string{
			domain.CustomFormat: "android",
		}},
		Entries: []domain.Entry{{ID: "ok", Value: domain.Singular("OK"), Status: domain.StatusTranslated}},
	})
	require.NoError(t, c.WriteToFile())

	b, err := util.ReadFile(fs, "/app/en.lproj/Localizable.strings")
	require.NoError(t, err)
	assert.Contains(t, string(b), `"hello" = "Howdy";`)

	b, err = util.ReadFile(fs, "/out/Strings.en.xml")
	require.NoError(t, err)
	assert.Contains(t, string(b), `<string name="ok">OK</string>`)
}

func TestWriteToFileKeepsEveryLanguageOfADomain(t *testing.T) {
	fs, c := newTestEnv(t)
	require.NoError(t, util.WriteFile(fs, "/app/fr.lproj/Localizable.strings",
		[]byte("\"hello\" = \"Bonjour\";\n"), 0o644))
	require.NoError(t, c.ReadFileByExtension("/app/en.lproj/Localizable.strings", ""))
	require.NoError(t, c.ReadFileByExtension("/app/fr.lproj/Localizable.strings", ""))
	require.NoError(t, c.UpdateTranslation("hello", "en", domain.Singular("Howdy"), ""))
	require.NoError(t, c.UpdateTranslation("hello", "fr", domain.Singular("Salut"), ""))

	require.NoError(t, c.WriteToFile())

	b, err := util.ReadFile(fs, "/app/en.lproj/Localizable.strings")
	require.NoError(t, err)
	assert.Contains(t, string(b), `"hello" = "Howdy";`)
	b, err = util.ReadFile(fs, "/app/fr.lproj/Localizable.strings")
	require.NoError(t, err)
	assert.Contains(t, string(b), `"hello" = "Salut";`)
}

func TestWriteToFileDefaultPathsPerLanguage(t *testing.T) {
	fs, c := newTestEnv(t)
	for _, lang := range []string{"en", "de"} {
		c.AddResource(domain.Resource{
			Metadata: domain.Metadata{Language: lang, Domain: "/out/App", Custom: map[string]string{
				domain.CustomFormat: "strings",
			}},
			Entries: []domain.Entry{{ID: "ok", Value: domain.Singular("OK " + lang), Status: domain.StatusTranslated}},
		})
	}
	require.NoError(t, c.WriteToFile())

	for _, lang := range []string{"en", "de"} {
		b, err := util.ReadFile(fs, "/out/App."+lang+".strings")
		require.NoError(t, err)
		assert.Contains(t, string(b), `"ok" = "OK `+lang+`";`)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	fs, c := newTestEnv(t)
	require.NoError(t, c.ReadFileByExtension("/app/en.lproj/Localizable.strings", ""))
	p, ok := domain.NewPlural("apples", map[domain.PluralCategory]string{domain.PluralOther: "%d apples"})
	require.True(t, ok)
	require.NoError(t, c.AddEntry("apples", "en", domain.PluralOf(p), "", domain.StatusTranslated))

	require.NoError(t, c.CacheToFile("/cache/compact.json"))
	require.NoError(t, c.CachePretty("/cache/pretty.json"))

	pretty, err := util.ReadFile(fs, "/cache/pretty.json")
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  ")

	for _, path := range []string{"/cache/compact.json", "/cache/pretty.json"} {
		loaded, err := LoadFromFile(path, WithFS(fs), WithLogger(nil))
		require.NoError(t, err)
		assert.Equal(t, c.Resources(), loaded.Resources())
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	fs := memfs.New()
	_, err := LoadFromFile("/missing.json", WithFS(fs))
	assert.ErrorIs(t, err, domain.ErrIO)

	require.NoError(t, util.WriteFile(fs, "/bad.json", []byte("{"), 0o644))
	_, err = LoadFromFile("/bad.json", WithFS(fs))
	assert.ErrorIs(t, err, domain.ErrParse)
}
