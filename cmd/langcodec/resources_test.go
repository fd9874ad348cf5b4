package main

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langcodec/internal/codec"
	"langcodec/internal/config"
	"langcodec/internal/convert"
	"langcodec/internal/domain"
	"langcodec/internal/formats"
)

func resource(lang string, kv ...string) domain.Resource {
	r := domain.Resource{Metadata: domain.Metadata{Language: lang}}
	for i := 0; i+1 < len(kv); i += 2 {
		r.AddEntry(domain.Entry{ID: kv[i], Value: domain.Singular(kv[i+1]), Status: domain.StatusTranslated})
	}
	return r
}

func TestMergeByLanguage(t *testing.T) {
	merged, err := mergeByLanguage([]domain.Resource{
		resource("en", "a", "A1"),
		resource("fr", "a", "FR"),
		resource("en", "a", "A2", "b", "B"),
	}, domain.ConflictFirst)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "en", merged[0].Metadata.Language)
	assert.Equal(t, "A1", merged[0].FindEntry("a").Value.PlainText())
	assert.NotNil(t, merged[0].FindEntry("b"))
	assert.Equal(t, "fr", merged[1].Metadata.Language)
}

func TestWriteResources(t *testing.T) {
	fs := memfs.New()
	conv := convert.New(convert.WithFS(fs), convert.WithLogger(nil))
	resources := []domain.Resource{resource("en", "hello", "Hello"), resource("fr", "hello", "Bonjour")}

	ft, err := resolveOutputFormat("/out/Localizable.xcstrings", "", "")
	require.NoError(t, err)
	require.NoError(t, writeResources(conv, resources, "/out/Localizable.xcstrings", ft))
	b, err := util.ReadFile(fs, "/out/Localizable.xcstrings")
	require.NoError(t, err)
	assert.Contains(t, string(b), `"sourceLanguage": "en"`)
	assert.Contains(t, string(b), `"value": "Bonjour"`)

	ft, err = resolveOutputFormat("/out/values-fr/strings.xml", "", "")
	require.NoError(t, err)
	assert.Equal(t, formats.AndroidStringsOf("fr"), ft)
	require.NoError(t, writeResources(conv, resources, "/out/values-fr/strings.xml", ft))
	b, err = util.ReadFile(fs, "/out/values-fr/strings.xml")
	require.NoError(t, err)
	assert.Contains(t, string(b), `<string name="hello">Bonjour</string>`)

	ft, err = resolveOutputFormat("/out/plain.txt", "strings", "")
	require.NoError(t, err)
	err = writeResources(conv, resources, "/out/plain.txt", ft)
	assert.ErrorIs(t, err, domain.ErrInvalidResource)

	ft, err = resolveOutputFormat("/out/plain.txt", "strings", "de")
	require.NoError(t, err)
	assert.ErrorIs(t, writeResources(conv, resources, "/out/plain.txt", ft), domain.ErrInvalidResource)

	_, err = resolveOutputFormat("/out/plain.txt", "", "")
	assert.ErrorIs(t, err, domain.ErrUnknownFormat)
}

func TestFormatValue(t *testing.T) {
	p, ok := domain.NewPlural("n", map[domain.PluralCategory]string{
		domain.PluralOther: "%d items",
		domain.PluralOne:   "one item",
	})
	require.True(t, ok)
	assert.Equal(t, "one: one item; other: %d items", formatValue(domain.PluralOf(p)))
	assert.Equal(t, "hi", formatValue(domain.Singular("hi")))
	assert.Equal(t, "", formatValue(domain.Empty()))
}

func TestCacheOfWrittenOutputs(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "ws/.langcodec/cache.json", cachePath(cfg, "ws"))
	cfg.Cache.Path = "/abs/cache.json"
	assert.Equal(t, "/abs/cache.json", cachePath(cfg, "ws"))
	cfg.Cache.Path = ""
	assert.Equal(t, "", cachePath(cfg, "ws"))

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/out/values-fr/strings.xml",
		[]byte(`<resources><string name="hello">Bonjour</string></resources>`), 0o644))
	require.NoError(t, util.WriteFile(fs, "/out/en.lproj/Localizable.strings",
		[]byte(`"hello" = "Hello";`+"\n"), 0o644))

	require.NoError(t, writeCache("/ws/cache.json", []string{"/out/values-fr/strings.xml", "/out/en.lproj/Localizable.strings"}, codec.WithFS(fs)))
	c, err := codec.LoadFromFile("/ws/cache.json", codec.WithFS(fs), codec.WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"fr", "en"}, c.Languages())
	assert.Equal(t, "Bonjour", c.FindEntry("hello", "fr").Value.PlainText())

	assert.Error(t, writeCache("/ws/cache.json", []string{"/out/notes.txt"}, codec.WithFS(fs)))
}

func TestPrintJSONOrTableReportsEncodingErrors(t *testing.T) {
	assert.Error(t, printJSONOrTable(map[string]any{"f": func() {}}))
}
