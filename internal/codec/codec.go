// Package codec holds an in-memory set of localization resources loaded from
// any supported format, with helpers to edit, validate, cache and write them back.
package codec

import (
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"

	"langcodec/internal/convert"
	"langcodec/internal/domain"
	"langcodec/internal/formats"
	"langcodec/internal/parser"
)

type Codec struct {
	resources []domain.Resource
	fs        billy.Filesystem
	logger    *slog.Logger
	conv      *convert.Converter
}

type options struct {
	fs       billy.Filesystem
	logger   *slog.Logger
	defaults convert.Defaults
}

type Option func(*options)

func WithFS(fs billy.Filesystem) Option {
	return func(o *options) { o.fs = fs }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDefaults seeds String Catalog metadata for resources written as xcstrings.
func WithDefaults(d convert.Defaults) Option {
	return func(o *options) { o.defaults = d }
}

func New(opts ...Option) *Codec {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = parser.DefaultFS()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Codec{
		fs:     o.fs,
		logger: o.logger,
		conv:   convert.New(convert.WithFS(o.fs), convert.WithLogger(o.logger), convert.WithDefaults(o.defaults)),
	}
}

// Resources returns the managed resources in load order.
func (c *Codec) Resources() []domain.Resource {
	return c.resources
}

// GetByLanguage returns the first resource whose language is exactly lang.
func (c *Codec) GetByLanguage(lang string) *domain.Resource {
	for i := range c.resources {
		if c.resources[i].Metadata.Language == lang {
			return &c.resources[i]
		}
	}
	return nil
}

func (c *Codec) AddResource(r domain.Resource) {
	c.resources = append(c.resources, r)
}

// Match is one entry found by key together with the resource holding it.
type Match struct {
	Resource *domain.Resource
	Entry    *domain.Entry
}

// FindEntries returns the entries with id key in every language.
func (c *Codec) FindEntries(key string) []Match {
	var out []Match
	for i := range c.resources {
		if e := c.resources[i].FindEntry(key); e != nil {
			out = append(out, Match{Resource: &c.resources[i], Entry: e})
		}
	}
	return out
}

func (c *Codec) FindEntry(key, lang string) *domain.Entry {
	r := c.GetByLanguage(lang)
	if r == nil {
		return nil
	}
	return r.FindEntry(key)
}

// ReadFileByType reads path as ft and appends the resulting resources. Each
// resource gets the language implied by the path (or by ft), the file stem as
// domain, and the format and source path as custom metadata.
func (c *Codec) ReadFileByType(path string, ft formats.FormatType) error {
	return c.readFile(path, ft, "")
}

// readFile relabels the headerless-table resource of a multi-language file to
// hint when hint is set.
func (c *Codec) readFile(path string, ft formats.FormatType, hint string) error {
	lang, err := formats.InferLanguageFromPath(path, ft)
	if err != nil {
		return err
	}
	if lang == "" && ft.HasLanguage() {
		lang = ft.Language
	}
	resources, err := c.conv.ReadResources(path, ft)
	if err != nil {
		return err
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range resources {
		if lang != "" {
			resources[i].Metadata.Language = lang
		}
		if hint != "" && ft.IsMultiLanguage() {
			switch resources[i].Metadata.Language {
			case "", domain.DefaultTableLanguageSentinel:
				resources[i].Metadata.Language = hint
			}
		}
		resources[i].Metadata.Domain = stem
		resources[i].Metadata.SetCustom(domain.CustomFormat, ft.String())
		resources[i].Metadata.SetCustom(domain.CustomSourcePath, path)
	}
	c.logger.Debug("loaded file", "path", path, "format", ft.String(), "resources", len(resources))
	c.resources = append(c.resources, resources...)
	return nil
}

// ReadFileByExtension picks the format from the extension of path. lang, when
// set, applies to single-language formats and labels a headerless CSV or TSV.
func (c *Codec) ReadFileByExtension(path, lang string) error {
	ft, ok := formats.InferFormatFromExtension(path)
	if !ok {
		return domain.WithPath(domain.NewError(domain.CodeUnsupportedFormat,
			"unsupported file extension %q", filepath.Ext(path)), path)
	}
	if lang != "" {
		ft = ft.WithLanguage(lang)
	}
	return c.readFile(path, ft, lang)
}

// UpdateTranslation replaces the value of an existing entry. An empty status
// leaves the current one.
func (c *Codec) UpdateTranslation(key, lang string, value domain.Translation, status domain.EntryStatus) error {
	e := c.FindEntry(key, lang)
	if e == nil {
		return domain.NewError(domain.CodeInvalidResource, "entry %q not found in language %q", key, lang)
	}
	e.Value = value
	if status != "" {
		e.Status = status
	}
	return nil
}

// AddEntry appends a new entry, creating the language resource on first use.
// An empty status means new.
func (c *Codec) AddEntry(key, lang string, value domain.Translation, comment string, status domain.EntryStatus) error {
	r := c.ensureLanguage(lang)
	if r.FindEntry(key) != nil {
		return domain.NewError(domain.CodeInvalidResource, "entry %q already exists in language %q", key, lang)
	}
	if status == "" {
		status = domain.StatusNew
	}
	r.AddEntry(domain.Entry{ID: key, Value: value, Comment: comment, Status: status})
	return nil
}

func (c *Codec) RemoveEntry(key, lang string) error {
	r := c.GetByLanguage(lang)
	if r == nil {
		return domain.NewError(domain.CodeInvalidResource, "language %q not found", lang)
	}
	kept := r.Entries[:0]
	for _, e := range r.Entries {
		if e.ID != key {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(r.Entries) {
		return domain.NewError(domain.CodeInvalidResource, "entry %q not found in language %q", key, lang)
	}
	r.Entries = kept
	return nil
}

// CopyEntry copies key from one language to another, replacing any entry with
// the same id in the target. resetStatus marks the copy as new.
func (c *Codec) CopyEntry(key, from, to string, resetStatus bool) error {
	src := c.FindEntry(key, from)
	if src == nil {
		return domain.NewError(domain.CodeInvalidResource, "entry %q not found in source language %q", key, from)
	}
	e := src.Clone()
	if resetStatus {
		e.Status = domain.StatusNew
	}
	r := c.ensureLanguage(to)
	if existing := r.FindEntry(key); existing != nil {
		*existing = e
		return nil
	}
	r.AddEntry(e)
	return nil
}

func (c *Codec) ensureLanguage(lang string) *domain.Resource {
	if r := c.GetByLanguage(lang); r != nil {
		return r
	}
	c.resources = append(c.resources, domain.Resource{Metadata: domain.Metadata{Language: lang}})
	return &c.resources[len(c.resources)-1]
}

// Languages lists resource languages in load order.
func (c *Codec) Languages() []string {
	out := make([]string, 0, len(c.resources))
	for _, r := range c.resources {
		out = append(out, r.Metadata.Language)
	}
	return out
}

// AllKeys lists every entry id once, in first-seen order.
func (c *Codec) AllKeys() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range c.resources {
		for _, e := range r.Entries {
			if !seen[e.ID] {
				seen[e.ID] = true
				out = append(out, e.ID)
			}
		}
	}
	return out
}

func (c *Codec) HasEntry(key, lang string) bool {
	return c.FindEntry(key, lang) != nil
}

func (c *Codec) EntryCount(lang string) int {
	if r := c.GetByLanguage(lang); r != nil {
		return len(r.Entries)
	}
	return 0
}

// Validate checks that there is at least one resource, that no two resources
// share a language, and that none is empty.
func (c *Codec) Validate() error {
	if len(c.resources) == 0 {
		return domain.NewError(domain.CodeValidation, "no resources found")
	}
	seen := map[string]bool{}
	for _, r := range c.resources {
		lang := r.Metadata.Language
		if seen[lang] {
			return domain.NewError(domain.CodeValidation, "duplicate language %q", lang)
		}
		seen[lang] = true
		if len(r.Entries) == 0 {
			return domain.NewError(domain.CodeValidation, "resource %q has no entries", lang)
		}
	}
	return nil
}

// WriteToFile writes resources back to files. Multi-language formats group
// every resource of a domain into one file; single-language formats write one
// file per resource. A file goes to the source path of its first resource, or
// to <domain>.<ext> (<domain>.<lang>.<ext> for single-language formats).
func (c *Codec) WriteToFile() error {
	type group struct {
		path      string
		resources []domain.Resource
	}
	var groups []*group
	index := map[string]*group{}
	for _, r := range c.resources {
		format, _ := r.Metadata.CustomValue(domain.CustomFormat)
		ft, ftErr := formats.ParseFormatType(format)
		path := r.Metadata.Custom[domain.CustomSourcePath]
		k := r.Metadata.Domain + "\x00" + format
		if ftErr == nil && !ft.IsMultiLanguage() {
			k += "\x00" + r.Metadata.Language + "\x00" + path
		}
		g, ok := index[k]
		if !ok {
			g = &group{path: path}
			if g.path == "" {
				g.path = defaultPath(r, ft, ftErr == nil)
			}
			index[k] = g
			groups = append(groups, g)
		}
		g.resources = append(g.resources, r)
	}
	for _, g := range groups {
		if err := c.conv.WriteResourcesByFormat(g.resources, g.path); err != nil {
			return err
		}
		c.logger.Debug("wrote file", "path", g.path, "resources", len(g.resources))
	}
	return nil
}

func defaultPath(r domain.Resource, ft formats.FormatType, known bool) string {
	if !known {
		return r.Metadata.Domain
	}
	if !ft.IsMultiLanguage() && r.Metadata.Language != "" {
		return r.Metadata.Domain + "." + r.Metadata.Language + "." + ft.Extension()
	}
	return r.Metadata.Domain + "." + ft.Extension()
}

// CacheToFile writes the resources as compact JSON, creating parent directories.
func (c *Codec) CacheToFile(path string) error {
	return parser.WriteFile(c.fs, path, &cache{resources: c.resources})
}

// CachePretty is CacheToFile with indented output.
func (c *Codec) CachePretty(path string) error {
	return parser.WriteFile(c.fs, path, &cache{resources: c.resources, pretty: true})
}

// LoadFromFile reads a cache written by CacheToFile or CachePretty.
func LoadFromFile(path string, opts ...Option) (*Codec, error) {
	c := New(opts...)
	var cf cache
	if err := parser.ReadFile(c.fs, path, &cf); err != nil {
		return nil, err
	}
	c.resources = cf.resources
	return c, nil
}

type cache struct {
	resources []domain.Resource
	pretty    bool
}

func (f *cache) Decode(r io.Reader) error {
	var resources []domain.Resource
	if err := json.NewDecoder(r).Decode(&resources); err != nil {
		return domain.WrapError(domain.CodeParse, err, "decode cache")
	}
	f.resources = resources
	return nil
}

func (f *cache) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if f.pretty {
		enc.SetIndent("", "  ")
	}
	resources := f.resources
	if resources == nil {
		resources = []domain.Resource{}
	}
	if err := enc.Encode(resources); err != nil {
		return domain.WrapError(domain.CodeParse, err, "encode cache")
	}
	return nil
}
