package stringsfile

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"langcodec/internal/domain"
	"langcodec/internal/parser"
)

const sample = `//: Language: en

/* Greeting shown on launch */
"hello" = "Hello";
"bye" = "Goodbye";

// dangling

"empty" = "";
"url" = "a=b";
`

func TestDecodePairsAndComments(t *testing.T) {
	var f File
	require.NoError(t, parser.FromString(sample, &f))

	assert.Equal(t, "en", f.Language)
	require.Len(t, f.Pairs, 4)
	assert.Equal(t, Pair{Key: "hello", Value: "Hello", Comment: "/* Greeting shown on launch */"}, f.Pairs[0])
	assert.Equal(t, Pair{Key: "bye", Value: "Goodbye"}, f.Pairs[1])
	assert.Equal(t, "", f.Pairs[2].Comment)
	assert.Equal(t, "a=b", f.Pairs[3].Value)

	res := f.ToResource()
	assert.Equal(t, "en", res.Metadata.Language)
	assert.Equal(t, domain.StatusTranslated, res.FindEntry("hello").Status)
	assert.Equal(t, domain.StatusNew, res.FindEntry("empty").Status)
}

func TestMultilineValuesAreJoined(t *testing.T) {
	in := "\"intro\" = \"first line\n    second line\";\n\"quoted\" = \"say \\\"hi\\\"\n  there\";\n"
	var f File
	require.NoError(t, parser.FromString(in, &f))
	require.Len(t, f.Pairs, 2)
	assert.Equal(t, `first line\nsecond line`, f.Pairs[0].Value)
	assert.Equal(t, `say \"hi\"\nthere`, f.Pairs[1].Value)
}

func TestJoinMultilineValuesLeavesSingleLines(t *testing.T) {
	in := "\"a\" = \"b\";\n\"c\" = \"d\";"
	assert.Equal(t, in, JoinMultilineValues(in))
}

func TestEncodeRoundTrip(t *testing.T) {
	res := domain.Resource{Metadata: domain.Metadata{Language: "fr"}}
	res.AddEntry(domain.Entry{ID: "hello", Value: domain.Singular("Bonjour"), Comment: "Greeting", Status: domain.StatusTranslated})
	res.AddEntry(domain.Entry{ID: "bye", Value: domain.Singular("Au revoir"), Comment: "// farewell", Status: domain.StatusTranslated})
	res.AddEntry(domain.Entry{ID: "todo", Value: domain.Empty(), Status: domain.StatusNew})

	f, err := FromResource(res)
	require.NoError(t, err)
	out, err := parser.ToString(f)
	require.NoError(t, err)
	assert.Contains(t, out, "//: Language: fr\n")
	assert.Contains(t, out, "/* Greeting */\n\"hello\" = \"Bonjour\";\n")
	assert.Contains(t, out, "// farewell\n\"bye\" = \"Au revoir\";\n")
	assert.Contains(t, out, "\"todo\" = \"\";\n")

	var back File
	require.NoError(t, parser.FromString(out, &back))
	got := back.ToResource()
	assert.Equal(t, "fr", got.Metadata.Language)
	require.Len(t, got.Entries, 3)
	assert.Equal(t, "Bonjour", got.Entries[0].Value.PlainText())
	assert.Equal(t, "/* Greeting */", got.Entries[0].Comment)
	assert.Equal(t, "Au revoir", got.Entries[1].Value.PlainText())
	assert.Equal(t, domain.StatusNew, got.Entries[2].Status)
}

func TestFromResourceRejectsPlural(t *testing.T) {
	p, ok := domain.NewPlural("apples", map[domain.PluralCategory]string{domain.PluralOther: "%d apples"})
	require.True(t, ok)
	res := domain.Resource{Entries: []domain.Entry{{ID: "apples", Value: domain.PluralOf(p)}}}
	_, err := FromResource(res)
	assert.ErrorIs(t, err, domain.ErrInvalidResource)
}

func TestDecodeFileHonorsUTF16BOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.String("//: Language: ja\n\"hello\" = \"こんにちは\";\n")
	require.NoError(t, err)

	fsys := memfs.New()
	require.NoError(t, util.WriteFile(fsys, "/ja.lproj/Localizable.strings", []byte(data), 0o644))

	var f File
	require.NoError(t, parser.ReadFile(fsys, "/ja.lproj/Localizable.strings", &f))
	assert.Equal(t, "ja", f.Language)
	require.Len(t, f.Pairs, 1)
	assert.Equal(t, "こんにちは", f.Pairs[0].Value)
}

func TestDecodeStripsUTF8BOM(t *testing.T) {
	var f File
	require.NoError(t, parser.FromString("\ufeff\"k\" = \"v\";\n", &f))
	require.Len(t, f.Pairs, 1)
	assert.Equal(t, "k", f.Pairs[0].Key)
}

func TestReadMissingFileIsIOError(t *testing.T) {
	var f File
	err := parser.ReadFile(memfs.New(), "/missing.strings", &f)
	assert.ErrorIs(t, err, domain.ErrIO)
}
