// Package table holds the delimiter-separated layout shared by the CSV and TSV codecs.
//
// A file whose first row has two columns is a headerless key,value table for a
// single unnamed language. Three or more columns mean the first row is a header
// of the form key,<lang>,<lang>...
package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"

	"langcodec/internal/domain"
)

// Record is one row: a key and its value per language.
type Record struct {
	Key          string
	Translations map[string]string
}

type Table struct {
	// Languages is the column order. A headerless table has the single
	// language domain.DefaultTableLanguageSentinel.
	Languages []string
	Records   []Record
}

// Read parses a table separated by comma. Field counts may vary and quotes are lenient.
func Read(r io.Reader, comma rune) (*Table, error) {
	br := bufio.NewReader(r)
	if c, _, err := br.ReadRune(); err == nil && c != '\ufeff' {
		_ = br.UnreadRune()
	}
	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	t := &Table{}
	header := false
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.WrapError(domain.CodeCSVParse, err, "read row")
		}
		if t.Languages == nil {
			if len(rec) >= 3 {
				header = true
				t.Languages = append([]string{}, rec[1:]...)
				continue
			}
			t.Languages = []string{domain.DefaultTableLanguageSentinel}
		}
		row := Record{Key: rec[0], Translations: map[string]string{}}
		if header {
			for i, lang := range t.Languages {
				if i+1 < len(rec) {
					row.Translations[lang] = rec[i+1]
				}
			}
		} else {
			value := ""
			if len(rec) > 1 {
				value = rec[1]
			}
			row.Translations[t.Languages[0]] = value
		}
		t.Records = append(t.Records, row)
	}
	return t, nil
}

// Write emits a headerless key,value table for a single language and a headed
// table otherwise. Missing cells are written empty.
func (t *Table) Write(w io.Writer, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	header := len(t.Languages) > 1
	if header {
		if err := cw.Write(append([]string{"key"}, t.Languages...)); err != nil {
			return domain.WrapError(domain.CodeIO, err, "write header")
		}
	}
	for _, r := range t.Records {
		row := make([]string, 0, len(t.Languages)+1)
		row = append(row, r.Key)
		for _, lang := range t.Languages {
			row = append(row, r.Translations[lang])
		}
		if !header && len(t.Languages) == 0 {
			row = append(row, "")
		}
		if err := cw.Write(row); err != nil {
			return domain.WrapError(domain.CodeIO, err, "write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return domain.WrapError(domain.CodeIO, err, "flush")
	}
	return nil
}

// FromResources builds one record per key across all resources. Keys and
// languages keep their first-seen order; plural values become "".
func FromResources(resources []domain.Resource) *Table {
	t := &Table{}
	langSeen := map[string]bool{}
	index := map[string]int{}
	for _, res := range resources {
		lang := res.Metadata.Language
		if !langSeen[lang] {
			langSeen[lang] = true
			t.Languages = append(t.Languages, lang)
		}
		for _, e := range res.Entries {
			i, ok := index[e.ID]
			if !ok {
				i = len(t.Records)
				index[e.ID] = i
				t.Records = append(t.Records, Record{Key: e.ID, Translations: map[string]string{}})
			}
			t.Records[i].Translations[lang] = e.Value.PlainText()
		}
	}
	return t
}

// ToResources returns one resource per language column. Each carries the first
// language as source_language and version 1.0 so it can feed a String Catalog.
func (t *Table) ToResources() []domain.Resource {
	if len(t.Languages) == 0 {
		return nil
	}
	out := make([]domain.Resource, len(t.Languages))
	for i, lang := range t.Languages {
		out[i].Metadata = domain.Metadata{
			Language: lang,
			Custom: map[string]string{
				domain.CustomSourceLanguage: t.Languages[0],
				domain.CustomVersion:        domain.DefaultXcstringsVersion,
			},
		}
	}
	for _, r := range t.Records {
		for i, lang := range t.Languages {
			v, ok := r.Translations[lang]
			if !ok {
				continue
			}
			out[i].AddEntry(domain.Entry{
				ID:     r.Key,
				Value:  domain.Singular(v),
				Status: domain.StatusFromValue(v),
			})
		}
	}
	return out
}
