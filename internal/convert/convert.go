// Package convert reads a localization file through one codec and writes it through another.
package convert

import (
	"io"
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"langcodec/internal/domain"
	"langcodec/internal/formats"
	"langcodec/internal/formats/androidxml"
	"langcodec/internal/formats/csvfile"
	"langcodec/internal/formats/stringsfile"
	"langcodec/internal/formats/tsvfile"
	"langcodec/internal/formats/xcstrings"
	"langcodec/internal/parser"
	"langcodec/internal/placeholder"
)

// Defaults seed String Catalog metadata when the input does not carry it.
type Defaults struct {
	SourceLanguage string
	Version        string
}

type Converter struct {
	FS       billy.Filesystem
	Logger   *slog.Logger
	Defaults Defaults
}

// Option configures a Converter.
type Option func(*Converter)

func WithFS(fs billy.Filesystem) Option {
	return func(c *Converter) { c.FS = fs }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) { c.Logger = logger }
}

func WithDefaults(d Defaults) Option {
	return func(c *Converter) { c.Defaults = d }
}

func New(opts ...Option) *Converter {
	c := &Converter{Logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.FS == nil {
		c.FS = parser.DefaultFS()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Convert converts the host file in into out with the default converter.
func Convert(in string, inFmt formats.FormatType, out string, outFmt formats.FormatType) error {
	return New().Convert(in, inFmt, out, outFmt)
}

func ConvertAuto(in, out string) error {
	return New().ConvertAuto(in, out)
}

func ConvertWithNormalization(in string, inFmt formats.FormatType, out string, outFmt formats.FormatType, normalize bool) error {
	return New().ConvertWithNormalization(in, inFmt, out, outFmt, normalize)
}

func ConvertAutoWithNormalization(in, out string, normalize bool) error {
	return New().ConvertAutoWithNormalization(in, out, normalize)
}

func ConvertResourcesToFormat(resources []domain.Resource, out string, outFmt formats.FormatType) error {
	return New().ConvertResourcesToFormat(resources, out, outFmt)
}

func (c *Converter) Convert(in string, inFmt formats.FormatType, out string, outFmt formats.FormatType) error {
	return c.ConvertWithNormalization(in, inFmt, out, outFmt, false)
}

// ConvertAuto infers both formats from the paths.
func (c *Converter) ConvertAuto(in, out string) error {
	return c.ConvertAutoWithNormalization(in, out, false)
}

func (c *Converter) ConvertAutoWithNormalization(in, out string, normalize bool) error {
	inFmt, outFmt, err := inferPair(in, out)
	if err != nil {
		return err
	}
	return c.ConvertWithNormalization(in, inFmt, out, outFmt, normalize)
}

func inferPair(in, out string) (formats.FormatType, formats.FormatType, error) {
	inFmt, ok := formats.InferFormatFromPath(in)
	if !ok {
		return formats.FormatType{}, formats.FormatType{}, domain.WithPath(
			domain.NewError(domain.CodeUnknownFormat, "cannot infer input format from extension"), in)
	}
	outFmt, ok := formats.InferFormatFromPath(out)
	if !ok {
		return formats.FormatType{}, formats.FormatType{}, domain.WithPath(
			domain.NewError(domain.CodeUnknownFormat, "cannot infer output format from extension"), out)
	}
	return inFmt, outFmt, nil
}

// ConvertWithNormalization runs the conversion pipeline and, when normalize is
// set, rewrites iOS placeholders into printf form before writing.
func (c *Converter) ConvertWithNormalization(in string, inFmt formats.FormatType, out string, outFmt formats.FormatType, normalize bool) error {
	if inFmt.HasLanguage() && !outFmt.HasLanguage() {
		outFmt = outFmt.WithLanguage(inFmt.Language)
	}
	if !inFmt.MatchesLanguageOf(outFmt) {
		return domain.NewError(domain.CodeInvalidResource,
			"input and output formats must match in language (input %q, output %q)", inFmt.Language, outFmt.Language)
	}
	c.Logger.Debug("convert", "input", in, "input_format", inFmt.String(), "input_language", inFmt.Language,
		"output", out, "output_format", outFmt.String(), "output_language", outFmt.Language)

	resources, err := c.ReadResources(in, inFmt)
	if err != nil {
		return err
	}
	if normalize {
		resources = NormalizeResources(resources)
		if outFmt.Kind == formats.Strings || outFmt.Kind == formats.Xcstrings {
			resources = mapResources(resources, placeholder.ToIOS)
		}
	}

	if !outFmt.IsMultiLanguage() {
		res, err := pickResource(resources, outFmt.Language)
		if err != nil {
			return domain.WithPath(err, in)
		}
		c.Logger.Debug("picked resource", "language", res.Metadata.Language, "entries", len(res.Entries))
		resources = []domain.Resource{res}
	} else if outFmt.Kind == formats.Xcstrings {
		resources = c.SeedCatalogMetadata(resources)
	}
	return c.write(resources, out, outFmt)
}

// ConvertResourcesToFormat writes resources without seeding any metadata.
// Single-language formats take the first resource.
func (c *Converter) ConvertResourcesToFormat(resources []domain.Resource, out string, outFmt formats.FormatType) error {
	if !outFmt.IsMultiLanguage() {
		if len(resources) == 0 {
			return domain.NewError(domain.CodeInvalidResource, "no resources to convert")
		}
		resources = resources[:1]
	}
	return c.write(resources, out, outFmt)
}

// ReadResources decodes path with the codec for ft. A language on ft fills
// resources that have none.
func (c *Converter) ReadResources(path string, ft formats.FormatType) ([]domain.Resource, error) {
	var resources []domain.Resource
	switch ft.Kind {
	case formats.Strings:
		var f stringsfile.File
		if err := parser.ReadFile(c.FS, path, &f); err != nil {
			return nil, err
		}
		resources = []domain.Resource{f.ToResource()}
	case formats.AndroidStrings:
		f := androidxml.File{Language: ft.Language}
		if err := parser.ReadFile(c.FS, path, &f); err != nil {
			return nil, err
		}
		resources = []domain.Resource{f.ToResource()}
	case formats.Xcstrings:
		var d xcstrings.Document
		if err := parser.ReadFile(c.FS, path, &d); err != nil {
			return nil, err
		}
		resources = d.ToResources()
	case formats.CSV:
		var f csvfile.File
		if err := parser.ReadFile(c.FS, path, &f); err != nil {
			return nil, err
		}
		resources = f.ToResources()
	case formats.TSV:
		var f tsvfile.File
		if err := parser.ReadFile(c.FS, path, &f); err != nil {
			return nil, err
		}
		resources = f.ToResources()
	default:
		return nil, domain.NewError(domain.CodeUnsupportedFormat, "cannot read format %v", ft.Kind)
	}
	if ft.HasLanguage() {
		for i := range resources {
			if resources[i].Metadata.Language == "" {
				resources[i].Metadata.Language = ft.Language
			}
		}
	}
	c.Logger.Debug("read resources", "path", path, "format", ft.String(), "resources", len(resources))
	return resources, nil
}

// WriteResourcesByFormat writes resources using the format recorded in the
// "format" custom key of the first resource. An empty list writes nothing.
func (c *Converter) WriteResourcesByFormat(resources []domain.Resource, path string) error {
	if len(resources) == 0 {
		return nil
	}
	tag, ok := resources[0].Metadata.CustomValue(domain.CustomFormat)
	if !ok {
		return domain.NewError(domain.CodeUnsupportedFormat, "resource %q records no format", resources[0].Metadata.Language)
	}
	ft, err := formats.ParseFormatType(tag)
	if err != nil {
		return domain.NewError(domain.CodeUnsupportedFormat, "unsupported format %q", tag)
	}
	if !ft.IsMultiLanguage() {
		resources = resources[:1]
	}
	return c.write(resources, path, ft)
}

func (c *Converter) write(resources []domain.Resource, out string, ft formats.FormatType) error {
	var f parser.Format
	switch ft.Kind {
	case formats.Strings:
		sf, err := stringsfile.FromResource(resources[0])
		if err != nil {
			return conversionError(err, out, ft)
		}
		f = sf
	case formats.AndroidStrings:
		f = androidxml.FromResource(resources[0])
	case formats.Xcstrings:
		d, err := xcstrings.FromResources(resources)
		if err != nil {
			return conversionError(err, out, ft)
		}
		f = d
	case formats.CSV:
		f = csvfile.FromResources(resources)
	case formats.TSV:
		f = tsvfile.FromResources(resources)
	default:
		return domain.NewError(domain.CodeUnsupportedFormat, "cannot write format %v", ft.Kind)
	}
	if err := parser.WriteFile(c.FS, out, f); err != nil {
		return conversionError(err, out, ft)
	}
	c.Logger.Debug("wrote resources", "path", out, "format", ft.String(), "resources", len(resources))
	return nil
}

func conversionError(err error, out string, ft formats.FormatType) error {
	return domain.WithPath(domain.WrapError(domain.CodeConversion, err, "error writing %s output", ft), out)
}

// pickResource returns the resource for lang, or the first one when lang is
// empty. A lone resource without a real language is relabelled to lang.
func pickResource(resources []domain.Resource, lang string) (domain.Resource, error) {
	if len(resources) == 0 {
		return domain.Resource{}, domain.NewError(domain.CodeInvalidResource, "no resources to convert")
	}
	if lang == "" {
		return resources[0], nil
	}
	for _, r := range resources {
		if r.Metadata.Language == lang {
			return r, nil
		}
	}
	for _, r := range resources {
		if r.HasLanguage(lang) {
			return r, nil
		}
	}
	if len(resources) == 1 {
		switch resources[0].Metadata.Language {
		case "", domain.DefaultTableLanguageSentinel:
			r := resources[0]
			r.Metadata.Language = lang
			return r, nil
		}
	}
	return domain.Resource{}, domain.NewError(domain.CodeInvalidResource, "no resource for language %q", lang)
}

// SeedCatalogMetadata fills missing source_language and version keys from the
// converter defaults, falling back to the first resource's language and 1.0.
func (c *Converter) SeedCatalogMetadata(resources []domain.Resource) []domain.Resource {
	if len(resources) == 0 {
		return resources
	}
	source := c.Defaults.SourceLanguage
	if v, ok := resources[0].Metadata.CustomValue(domain.CustomSourceLanguage); ok && v != "" {
		source = v
	}
	if source == "" {
		source = resources[0].Metadata.Language
	}
	version := c.Defaults.Version
	if v, ok := resources[0].Metadata.CustomValue(domain.CustomVersion); ok && v != "" {
		version = v
	}
	if version == "" {
		version = domain.DefaultXcstringsVersion
	}
	out := make([]domain.Resource, len(resources))
	for i, r := range resources {
		r = r.Clone()
		if v, ok := r.Metadata.CustomValue(domain.CustomSourceLanguage); !ok || v == "" {
			r.Metadata.SetCustom(domain.CustomSourceLanguage, source)
		}
		if v, ok := r.Metadata.CustomValue(domain.CustomVersion); !ok || v == "" {
			r.Metadata.SetCustom(domain.CustomVersion, version)
		}
		out[i] = r
	}
	return out
}

// NormalizeResources returns copies of resources with every singular and
// plural text passed through placeholder.Normalize.
func NormalizeResources(resources []domain.Resource) []domain.Resource {
	return mapResources(resources, placeholder.Normalize)
}

func mapResources(resources []domain.Resource, fn func(string) string) []domain.Resource {
	out := make([]domain.Resource, len(resources))
	for i, r := range resources {
		r = r.Clone()
		for j := range r.Entries {
			r.Entries[j].Value = r.Entries[j].Value.Map(fn)
		}
		out[i] = r
	}
	return out
}
