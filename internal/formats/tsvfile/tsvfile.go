// Package tsvfile reads and writes tab-separated translation tables.
package tsvfile

import (
	"io"

	"langcodec/internal/domain"
	"langcodec/internal/formats/table"
	"langcodec/internal/parser"
)

const comma = '\t'

type File struct {
	table.Table
}

var _ parser.Format = (*File)(nil)

func (f *File) Decode(r io.Reader) error {
	t, err := table.Read(r, comma)
	if err != nil {
		return err
	}
	f.Table = *t
	return nil
}

func (f *File) Encode(w io.Writer) error {
	return f.Table.Write(w, comma)
}

// FromResources lays out every resource as one language column.
func FromResources(resources []domain.Resource) *File {
	return &File{Table: *table.FromResources(resources)}
}
