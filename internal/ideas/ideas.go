// Package ideas loads the batch input: CSV rows of numbered content ideas.
package ideas

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Idea is one row of the batch input.
type Idea struct {
	Number int
	Name   string
	Text   string
}

// LoadCSV reads ideas from a CSV file with columns number,name,idea. A
// header row is skipped when the first column is not numeric. Blank rows
// are ignored; any other malformed row is an error naming its line.
func LoadCSV(path string) ([]Idea, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load ideas: %w", err)
	}
	defer file.Close()
	return parseCSV(file)
}

func parseCSV(r io.Reader) ([]Idea, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var ideas []Idea
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("load ideas: line %d: %w", line, err)
		}
		if isBlankRow(record) {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("load ideas: line %d: want 3 columns (number,name,idea), got %d", line, len(record))
		}

		number, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("load ideas: line %d: bad number %q", line, record[0])
		}
		name := strings.TrimSpace(record[1])
		text := strings.TrimSpace(record[2])
		if name == "" || text == "" {
			return nil, fmt.Errorf("load ideas: line %d: name and idea must not be empty", line)
		}
		ideas = append(ideas, Idea{Number: number, Name: name, Text: text})
	}
	if len(ideas) == 0 {
		return nil, fmt.Errorf("load ideas: no ideas found")
	}
	return ideas, nil
}

func isBlankRow(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
