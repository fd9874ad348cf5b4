package codec

import (
	"langcodec/internal/domain"
	"langcodec/internal/formats"
	"langcodec/internal/parser"
)

// Builder assembles a Codec step by step. The first failing step is kept and
// every later step is skipped.
type Builder struct {
	codec *Codec
	err   error
}

func NewBuilder(opts ...Option) *Builder {
	return &Builder{codec: New(opts...)}
}

// AddFile reads path with the format and language inferred from it.
func (b *Builder) AddFile(path string) *Builder {
	if b.err != nil {
		return b
	}
	ft, ok := formats.InferFormatFromExtension(path)
	if !ok {
		b.err = domain.WithPath(domain.NewError(domain.CodeUnknownFormat, "cannot infer format from file extension"), path)
		return b
	}
	b.err = b.codec.ReadFileByType(path, ft)
	return b
}

func (b *Builder) AddFileWithFormat(path string, ft formats.FormatType) *Builder {
	if b.err != nil {
		return b
	}
	b.err = b.codec.ReadFileByType(path, ft)
	return b
}

func (b *Builder) ReadFileByExtension(path, lang string) *Builder {
	if b.err != nil {
		return b
	}
	b.err = b.codec.ReadFileByExtension(path, lang)
	return b
}

func (b *Builder) AddResource(r domain.Resource) *Builder {
	if b.err == nil {
		b.codec.AddResource(r)
	}
	return b
}

func (b *Builder) AddResources(rs ...domain.Resource) *Builder {
	for _, r := range rs {
		b.AddResource(r)
	}
	return b
}

// LoadFromCache appends the resources of a JSON cache file.
func (b *Builder) LoadFromCache(path string) *Builder {
	if b.err != nil {
		return b
	}
	var cf cache
	if err := parser.ReadFile(b.codec.fs, path, &cf); err != nil {
		b.err = err
		return b
	}
	b.codec.resources = append(b.codec.resources, cf.resources...)
	return b
}

func (b *Builder) Build() (*Codec, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.codec, nil
}

// BuildAndValidate also requires every resource to have a distinct, non-empty language.
func (b *Builder) BuildAndValidate() (*Codec, error) {
	c, err := b.Build()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for i, r := range c.resources {
		lang := r.Metadata.Language
		if lang == "" {
			return nil, domain.NewError(domain.CodeValidation, "resource at index %d has no language", i)
		}
		if seen[lang] {
			return nil, domain.NewError(domain.CodeValidation, "duplicate language %q", lang)
		}
		seen[lang] = true
	}
	return c, nil
}
