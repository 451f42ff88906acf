// Package recordio serializes the final harvest relation to tabular files.
package recordio

import (
	"encoding/csv"
	"io"
	"os"
	"sort"

	"nfzharvest/lib/scrapers/umowy"
)

// Columns returns the header row for a relation: the identity columns
// first, then every remaining column seen in any record, sorted. records
// may have differing column sets (month tables vary between plans).
func Columns(records []umowy.Record) []string {
	identity := map[string]bool{}
	for _, c := range umowy.IdentityColumns {
		identity[c] = true
	}

	seen := map[string]bool{}
	var rest []string
	for _, record := range records {
		for col := range record {
			if identity[col] || seen[col] {
				continue
			}
			seen[col] = true
			rest = append(rest, col)
		}
	}
	sort.Strings(rest)

	return append(append([]string{}, umowy.IdentityColumns...), rest...)
}

// WriteCSV writes the relation with a header row. missing columns are
// written as empty cells.
func WriteCSV(w io.Writer, records []umowy.Record) error {
	columns := Columns(records)

	out := csv.NewWriter(w)
	if err := out.Write(columns); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for _, record := range records {
		for i, col := range columns {
			row[i] = record[col]
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

func WriteCSVFile(path string, records []umowy.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
