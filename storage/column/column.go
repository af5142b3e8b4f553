// Package column implements the typed per-column storage backing a database
// partition: dictionary-indexed strings, raw small-strings, epoch-day dates,
// integers, floats, pango lineages with precomputed sub-lineage bitmaps and
// per-sequence insertion lists.
//
// Each column kind comes in two parts: a Column owning state shared across
// partitions (the value dictionary) and a ColumnPartition holding the dense
// per-sequence vectors and bitmap indexes of one partition.
package column

import "fmt"

// Kind enumerates the column kinds of the database schema.
type Kind uint8

const (
	KindString Kind = iota
	KindIndexedString
	KindDate
	KindInt
	KindFloat
	KindPangoLineage
	KindInsertion
)

// String returns the config-file spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindIndexedString:
		return "indexed_string"
	case KindDate:
		return "date"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindPangoLineage:
		return "pango_lineage"
	case KindInsertion:
		return "insertion"
	default:
		return "unknown"
	}
}

// ParseKind parses the config-file spelling of a column kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "string":
		return KindString, nil
	case "indexed_string":
		return KindIndexedString, nil
	case "date":
		return KindDate, nil
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "pango_lineage":
		return KindPangoLineage, nil
	case "insertion":
		return KindInsertion, nil
	default:
		return 0, fmt.Errorf("unknown column kind %q", s)
	}
}

// Metadata names one column of the schema.
type Metadata struct {
	Name string
	Kind Kind
}
