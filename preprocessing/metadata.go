package preprocessing

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/config"
)

// MetadataReader streams rows of a tab-separated metadata file with a
// header line.
type MetadataReader struct {
	scanner *bufio.Scanner
	columns map[string]int
	header  []string
	line    int
}

// NewMetadataReader reads the header and validates it against the schema:
// every schema column, insertion columns included, must be present.
func NewMetadataReader(r io.Reader, cfg *config.DatabaseConfig) (*MetadataReader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	if !scanner.Scan() {
		return nil, silo.NewPreprocessingError("metadata file is empty")
	}
	header := strings.Split(scanner.Text(), "\t")
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	for _, item := range cfg.Schema.Metadata {
		if _, ok := columns[item.Name]; !ok {
			return nil, silo.NewPreprocessingError(
				"metadata file does not contain the schema column %q", item.Name,
			)
		}
	}

	return &MetadataReader{scanner: scanner, columns: columns, header: header, line: 1}, nil
}

// Row is one metadata row keyed by column name.
type Row map[string]string

// Next returns the next row, or io.EOF.
func (m *MetadataReader) Next() (Row, error) {
	if !m.scanner.Scan() {
		if err := m.scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading metadata file: %w", err)
		}
		return nil, io.EOF
	}
	m.line++

	fields := strings.Split(m.scanner.Text(), "\t")
	if len(fields) != len(m.header) {
		return nil, silo.NewPreprocessingError(
			"metadata line %d has %d fields, header has %d", m.line, len(fields), len(m.header),
		)
	}
	row := make(Row, len(m.header))
	for name, idx := range m.columns {
		row[name] = fields[idx]
	}
	return row, nil
}

// ReadAll drains the reader.
func (m *MetadataReader) ReadAll() ([]Row, error) {
	var rows []Row
	for {
		row, err := m.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}
