package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"langcodec/internal/domain"
	"langcodec/internal/formats"
)

const (
	FileName     = "langcodec.yml"
	TOMLFileName = "langcodec.toml"
)

// Config models langcodec.yml.
type Config struct {
	Defaults struct {
		SourceLanguage string `yaml:"source_language" toml:"source_language" json:"source_language"`
		Version        string `yaml:"version" toml:"version" json:"version"`
		Normalize      bool   `yaml:"normalize" toml:"normalize" json:"normalize"`
	} `yaml:"defaults" toml:"defaults" json:"defaults"`
	Cache struct {
		Path string `yaml:"path" toml:"path" json:"path"`
	} `yaml:"cache" toml:"cache" json:"cache"`
	Conversions []Conversion `yaml:"conversions" toml:"conversions" json:"conversions"`
}

// Conversion is one input/output pair executed by `langcodec run`.
type Conversion struct {
	Input        string `yaml:"input" toml:"input" json:"input"`
	Output       string `yaml:"output" toml:"output" json:"output"`
	InputFormat  string `yaml:"input_format,omitempty" toml:"input_format,omitempty" json:"input_format,omitempty"`
	OutputFormat string `yaml:"output_format,omitempty" toml:"output_format,omitempty" json:"output_format,omitempty"`
	Language     string `yaml:"language,omitempty" toml:"language,omitempty" json:"language,omitempty"`
	Normalize    *bool  `yaml:"normalize,omitempty" toml:"normalize,omitempty" json:"normalize,omitempty"`
}

// ShouldNormalize falls back to the config default when unset.
func (c Conversion) ShouldNormalize(def bool) bool {
	if c.Normalize == nil {
		return def
	}
	return *c.Normalize
}

// Formats resolves the input and output formats, inferring from the paths
// when not given explicitly. Language applies to single-language formats.
func (c Conversion) Formats() (formats.FormatType, formats.FormatType, error) {
	in, err := resolveFormat(c.Input, c.InputFormat)
	if err != nil {
		return formats.FormatType{}, formats.FormatType{}, err
	}
	out, err := resolveFormat(c.Output, c.OutputFormat)
	if err != nil {
		return formats.FormatType{}, formats.FormatType{}, err
	}
	if c.Language != "" {
		in = in.WithLanguage(c.Language)
		out = out.WithLanguage(c.Language)
	}
	return in, out, nil
}

func resolveFormat(path, explicit string) (formats.FormatType, error) {
	if explicit != "" {
		ft, err := formats.ParseFormatType(explicit)
		if err != nil {
			return formats.FormatType{}, err
		}
		lang, _ := formats.InferLanguageFromPath(path, ft)
		return ft.WithLanguage(lang), nil
	}
	ft, ok := formats.InferFormatFromPath(path)
	if !ok {
		return formats.FormatType{}, domain.WithPath(domain.NewError(domain.CodeUnknownFormat, "cannot infer format from extension"), path)
	}
	return ft, nil
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	cfg, err := LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config %s not found; create one with langcodec config init", Path(workspace))
	}
	return cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Defaults.SourceLanguage != "" {
		if _, ok := formats.NormalizeLanguage(c.Defaults.SourceLanguage); !ok {
			return fmt.Errorf("config.defaults.source_language %q is not a language tag", c.Defaults.SourceLanguage)
		}
	}
	for i, conv := range c.Conversions {
		if strings.TrimSpace(conv.Input) == "" {
			return fmt.Errorf("conversion %d has no input", i+1)
		}
		if strings.TrimSpace(conv.Output) == "" {
			return fmt.Errorf("conversion %d has no output", i+1)
		}
		for _, f := range []string{conv.InputFormat, conv.OutputFormat} {
			if f == "" {
				continue
			}
			if _, err := formats.ParseFormatType(f); err != nil {
				return fmt.Errorf("conversion %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// Path returns the YAML config path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault(sourceLanguage string) string {
	if sourceLanguage == "" {
		sourceLanguage = "en"
	}
	return fmt.Sprintf(defaultTemplate, sourceLanguage)
}

// LoadOptional returns nil,nil if neither langcodec.yml nor langcodec.toml exists.
func LoadOptional(workspace string) (*Config, error) {
	cfg, err := FromFile(Path(workspace))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	if workspace == "" {
		workspace = "."
	}
	cfg, err = FromFile(filepath.Join(workspace, TOMLFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return cfg, err
}

// Default returns the config used when the workspace has none.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(GenerateDefault("en"))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromTOML parses and validates config from raw TOML bytes.
func FromTOML(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config toml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads config from path, choosing TOML by extension.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FromTOML(data)
	}
	return FromYAML(data)
}

const defaultTemplate = `defaults:
  source_language: %s
  version: "1.0"
  normalize: false

cache:
  path: .langcodec/cache.json

# conversions:
#   - input: ios/en.lproj/Localizable.strings
#     output: android/app/src/main/res/values/strings.xml
#   - input: translations.csv
#     output: ios/Localizable.xcstrings
conversions: []
`
