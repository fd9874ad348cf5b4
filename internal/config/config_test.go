package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langcodec/internal/formats"
)

func TestDefaultTemplateParses(t *testing.T) {
	cfg, err := FromYAML([]byte(GenerateDefault("fr")))
	require.NoError(t, err)
	assert.Equal(t, "fr", cfg.Defaults.SourceLanguage)
	assert.Equal(t, "1.0", cfg.Defaults.Version)
	assert.Equal(t, ".langcodec/cache.json", cfg.Cache.Path)
	assert.Empty(t, cfg.Conversions)

	assert.Equal(t, "en", Default().Defaults.SourceLanguage)
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = Load(dir)
	assert.Error(t, err)

	toml := `[defaults]
source_language = "de"

[[conversions]]
input = "de.lproj/Localizable.strings"
output = "values-de/strings.xml"
normalize = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, TOMLFileName), []byte(toml), 0o644))
	cfg, err = LoadOptional(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "de", cfg.Defaults.SourceLanguage)
	require.Len(t, cfg.Conversions, 1)
	assert.True(t, cfg.Conversions[0].ShouldNormalize(false))

	yml := "defaults:\n  source_language: it\n"
	require.NoError(t, os.WriteFile(Path(dir), []byte(yml), 0o644))
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "it", cfg.Defaults.SourceLanguage)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing input", "conversions:\n  - output: a.csv\n"},
		{"missing output", "conversions:\n  - input: a.csv\n"},
		{"bad format", "conversions:\n  - input: a.csv\n    output: b.txt\n    output_format: po\n"},
		{"bad language", "defaults:\n  source_language: \"1x\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}

	_, err := FromYAML([]byte("defaults: ["))
	assert.ErrorContains(t, err, "invalid config yaml")
}

func TestConversionFormats(t *testing.T) {
	conv := Conversion{Input: "ios/en.lproj/Localizable.strings", Output: "out/strings.xml"}
	in, out, err := conv.Formats()
	require.NoError(t, err)
	assert.Equal(t, formats.StringsOf("en"), in)
	assert.Equal(t, formats.AndroidStringsOf(""), out)

	conv = Conversion{Input: "data.txt", InputFormat: "csv", Output: "Localizable.xcstrings", Language: "fr"}
	in, out, err = conv.Formats()
	require.NoError(t, err)
	assert.Equal(t, formats.CSVFormat(), in)
	assert.Equal(t, formats.XcstringsFormat(), out)

	_, _, err = Conversion{Input: "a.txt", Output: "b.csv"}.Formats()
	assert.Error(t, err)

	off := false
	assert.False(t, Conversion{Normalize: &off}.ShouldNormalize(true))
	assert.True(t, Conversion{}.ShouldNormalize(true))
}
