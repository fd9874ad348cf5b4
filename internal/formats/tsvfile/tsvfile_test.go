package tsvfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langcodec/internal/domain"
	"langcodec/internal/parser"
)

func TestMultiLanguageTable(t *testing.T) {
	in := "key\ten\tja\nhello\tHello\tこんにちは\nbye\tBye, now\t\n"
	var f File
	require.NoError(t, parser.FromString(in, &f))

	res := f.ToResources()
	require.Len(t, res, 2)
	assert.Equal(t, "ja", res[1].Metadata.Language)
	assert.Equal(t, "こんにちは", res[1].FindEntry("hello").Value.PlainText())
	assert.Equal(t, "Bye, now", res[0].FindEntry("bye").Value.PlainText())
	assert.Equal(t, domain.StatusNew, res[1].FindEntry("bye").Status)

	out, err := parser.ToString(FromResources(res))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTabsInValuesAreQuoted(t *testing.T) {
	res := domain.Resource{Metadata: domain.Metadata{Language: "en"}, Entries: []domain.Entry{
		{ID: "tab", Value: domain.Singular("a\tb")},
	}}
	out, err := parser.ToString(FromResources([]domain.Resource{res}))
	require.NoError(t, err)
	assert.Equal(t, "tab\t\"a\tb\"\n", out)

	var back File
	require.NoError(t, parser.FromString(out, &back))
	require.Len(t, back.Records, 1)
	assert.Equal(t, "a\tb", back.Records[0].Translations[domain.DefaultTableLanguageSentinel])
}
