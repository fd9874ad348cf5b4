// Package parser defines the read/write contract shared by every localization format.
package parser

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"langcodec/internal/domain"
)

// Format is implemented by every on-disk representation.
type Format interface {
	Decode(r io.Reader) error
	Encode(w io.Writer) error
}

// FileDecoder lets a format replace the default open-and-decode path, e.g. to sniff a BOM.
type FileDecoder interface {
	DecodeFile(fsys billy.Filesystem, path string) error
}

// DefaultFS is the host filesystem. Paths are resolved to absolute before use.
func DefaultFS() billy.Filesystem {
	return osfs.New(string(filepath.Separator))
}

// Resolve makes path absolute against the working directory.
func Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// Open opens path for reading, mapping failures to Io errors.
func Open(fsys billy.Filesystem, path string) (billy.File, error) {
	if fsys == nil {
		fsys = DefaultFS()
	}
	f, err := fsys.Open(Resolve(path))
	if err != nil {
		return nil, domain.WithPath(domain.WrapError(domain.CodeIO, err, "open"), path)
	}
	return f, nil
}

// ReadFile decodes the file at path into f.
func ReadFile(fsys billy.Filesystem, path string, f Format) error {
	if fsys == nil {
		fsys = DefaultFS()
	}
	if fd, ok := f.(FileDecoder); ok {
		return domain.WithPath(fd.DecodeFile(fsys, path), path)
	}
	file, err := Open(fsys, path)
	if err != nil {
		return err
	}
	defer file.Close()
	return domain.WithPath(f.Decode(file), path)
}

// WriteFile creates path (and its parent directories) and encodes f into it.
func WriteFile(fsys billy.Filesystem, path string, f Format) error {
	if fsys == nil {
		fsys = DefaultFS()
	}
	abs := Resolve(path)
	if dir := filepath.Dir(abs); dir != "" {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return domain.WithPath(domain.WrapError(domain.CodeIO, err, "create directory"), path)
		}
	}
	file, err := fsys.OpenFile(abs, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return domain.WithPath(domain.WrapError(domain.CodeIO, err, "create"), path)
	}
	if err := f.Encode(file); err != nil {
		file.Close()
		return domain.WithPath(err, path)
	}
	if err := file.Close(); err != nil {
		return domain.WithPath(domain.WrapError(domain.CodeIO, err, "close"), path)
	}
	return nil
}

func FromString(s string, f Format) error {
	return f.Decode(strings.NewReader(s))
}

func FromBytes(b []byte, f Format) error {
	return f.Decode(bytes.NewReader(b))
}

func ToBytes(f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ToString(f Format) (string, error) {
	b, err := ToBytes(f)
	return string(b), err
}

// IOError wraps a read or write failure on an in-memory stream.
func IOError(err error, op string) error {
	return domain.WrapError(domain.CodeIO, err, "%s", op)
}
