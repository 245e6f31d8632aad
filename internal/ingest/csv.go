package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

var identityColumns = []string{"player", "team", "date"}

// columnAliases maps alternate header spellings to the canonical name.
var columnAliases = map[string]string{
	"plus_minus": "plusminus",
	"+/-":        "plusminus",
	"pos":        "position",
	"3pa":        "tpa",
	"3pm":        "tpm",
	"to":         "turnovers",
	"min":        "minutes",
}

// ReadCSV parses a header row followed by records. Header names are matched
// case-insensitively; blank lines are skipped.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("read csv: %w", err)
		}
		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, newRow(line, rec, index))
	}
	return rows, nil
}

// ReadFile parses the CSV file at path.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := ReadCSV(f)
	if err != nil {
		return rows, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, dup := index[name]; !dup && name != "" {
			index[name] = i
		}
	}

	var missing []string
	for _, c := range identityColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	for _, f := range statFields {
		if _, ok := index[f.column]; f.required && !ok {
			missing = append(missing, f.column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}

func newRow(line int, rec []string, index map[string]int) Row {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	row := Row{
		Line:     line,
		Player:   cell("player"),
		Team:     cell("team"),
		Date:     cell("date"),
		Position: cell("position"),
		League:   cell("league"),
		Stats:    make(map[string]string, len(statFields)),
	}
	for _, f := range statFields {
		if i, ok := index[f.column]; ok {
			if i < len(rec) {
				row.Stats[f.column] = rec[i]
			} else {
				row.Stats[f.column] = ""
			}
		}
	}
	return row
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
