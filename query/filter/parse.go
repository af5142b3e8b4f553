package filter

import (
	"bytes"
	"encoding/json"
	"fmt"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/symbols"
)

// decodeStrict decodes JSON into v, rejecting unknown fields in known
// nodes.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseError(nodeType string, err error) error {
	return &silo.QueryParseError{Msg: fmt.Sprintf("invalid %s expression", nodeType), Cause: err}
}

// Parse decodes a filter AST node from JSON. Every node carries a "type"
// tag; unknown types and unknown fields are rejected.
func Parse(data []byte) (Expression, error) {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, &silo.QueryParseError{Msg: "malformed filter", Cause: err}
	}
	if head.Type == nil {
		return nil, silo.NewQueryParseError("the field 'type' is required in any filter expression")
	}

	switch *head.Type {
	case "True", "False", "Empty":
		var node struct {
			Type string `json:"type"`
		}
		if err := decodeStrict(data, &node); err != nil {
			return nil, parseError(*head.Type, err)
		}
	}

	switch *head.Type {
	case "True":
		return &True{}, nil
	case "False":
		return &False{}, nil
	case "Empty":
		return &Empty{}, nil
	case "And":
		return parseAnd(data)
	case "Or":
		return parseOr(data)
	case "Negation":
		return parseNegation(data)
	case "Maybe":
		return parseMaybe(data)
	case "NOf":
		return parseNOf(data)
	case "DateBetween":
		return parseDateBetween(data)
	case "IntBetween":
		return parseIntBetween(data)
	case "FloatBetween":
		return parseFloatBetween(data)
	case "StringEquals":
		return parseStringEquals(data)
	case "PangoLineageEquals":
		return parsePangoLineageEquals(data)
	case "NucleotideSymbolEquals":
		return parseNucleotideSymbolEquals(data)
	case "AminoAcidSymbolEquals":
		return parseAminoAcidSymbolEquals(data)
	case "HasMutation":
		return parseHasMutation(data)
	case "InsertionContains":
		return parseInsertionContains(data)
	case "PatternSearch":
		return parsePatternSearch(data)
	default:
		return nil, silo.NewQueryParseError("%q is not a valid filter expression type", *head.Type)
	}
}

func parseChildren(raw []json.RawMessage) ([]Expression, error) {
	children := make([]Expression, len(raw))
	for i, childData := range raw {
		child, err := Parse(childData)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}
	return children, nil
}

func parseAnd(data []byte) (Expression, error) {
	var node struct {
		Type     string            `json:"type"`
		Children []json.RawMessage `json:"children"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("And", err)
	}
	children, err := parseChildren(node.Children)
	if err != nil {
		return nil, err
	}
	return &And{Children: children}, nil
}

func parseOr(data []byte) (Expression, error) {
	var node struct {
		Type     string            `json:"type"`
		Children []json.RawMessage `json:"children"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("Or", err)
	}
	children, err := parseChildren(node.Children)
	if err != nil {
		return nil, err
	}
	return &Or{Children: children}, nil
}

func parseNegation(data []byte) (Expression, error) {
	var node struct {
		Type  string          `json:"type"`
		Child json.RawMessage `json:"child"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("Negation", err)
	}
	if node.Child == nil {
		return nil, silo.NewQueryParseError("the field 'child' is required in a Negation expression")
	}
	child, err := Parse(node.Child)
	if err != nil {
		return nil, err
	}
	return &Negation{Child: child}, nil
}

func parseMaybe(data []byte) (Expression, error) {
	var node struct {
		Type  string          `json:"type"`
		Child json.RawMessage `json:"child"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("Maybe", err)
	}
	if node.Child == nil {
		return nil, silo.NewQueryParseError("the field 'child' is required in a Maybe expression")
	}
	child, err := Parse(node.Child)
	if err != nil {
		return nil, err
	}
	return &Maybe{Child: child}, nil
}

func parseNOf(data []byte) (Expression, error) {
	var node struct {
		Type     string            `json:"type"`
		N        *uint32           `json:"n"`
		Exactly  bool              `json:"exactly"`
		Children []json.RawMessage `json:"children"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("NOf", err)
	}
	if node.N == nil {
		return nil, silo.NewQueryParseError("the field 'n' is required in an NOf expression")
	}
	children, err := parseChildren(node.Children)
	if err != nil {
		return nil, err
	}
	return &NOf{N: *node.N, Exactly: node.Exactly, Children: children}, nil
}

func parseDateBetween(data []byte) (Expression, error) {
	var node struct {
		Type   string  `json:"type"`
		Column *string `json:"column"`
		From   *string `json:"from"`
		To     *string `json:"to"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("DateBetween", err)
	}
	if node.Column == nil {
		return nil, silo.NewQueryParseError("the field 'column' is required in a DateBetween expression")
	}

	result := &DateBetween{Column: *node.Column}
	if node.From != nil {
		from, err := common.ParseDate(*node.From)
		if err != nil {
			return nil, parseError("DateBetween", err)
		}
		result.From = &from
	}
	if node.To != nil {
		to, err := common.ParseDate(*node.To)
		if err != nil {
			return nil, parseError("DateBetween", err)
		}
		result.To = &to
	}
	return result, nil
}

func parseIntBetween(data []byte) (Expression, error) {
	var node struct {
		Type   string  `json:"type"`
		Column *string `json:"column"`
		From   *int32  `json:"from"`
		To     *int32  `json:"to"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("IntBetween", err)
	}
	if node.Column == nil {
		return nil, silo.NewQueryParseError("the field 'column' is required in an IntBetween expression")
	}
	return &IntBetween{Column: *node.Column, From: node.From, To: node.To}, nil
}

func parseFloatBetween(data []byte) (Expression, error) {
	var node struct {
		Type   string   `json:"type"`
		Column *string  `json:"column"`
		From   *float64 `json:"from"`
		To     *float64 `json:"to"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("FloatBetween", err)
	}
	if node.Column == nil {
		return nil, silo.NewQueryParseError("the field 'column' is required in a FloatBetween expression")
	}
	return &FloatBetween{Column: *node.Column, From: node.From, To: node.To}, nil
}

func parseStringEquals(data []byte) (Expression, error) {
	var node struct {
		Type   string  `json:"type"`
		Column *string `json:"column"`
		Value  *string `json:"value"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("StringEquals", err)
	}
	if node.Column == nil || node.Value == nil {
		return nil, silo.NewQueryParseError("the fields 'column' and 'value' are required in a StringEquals expression")
	}
	return &StringEquals{Column: *node.Column, Value: *node.Value}, nil
}

func parsePangoLineageEquals(data []byte) (Expression, error) {
	var node struct {
		Type              string  `json:"type"`
		Column            *string `json:"column"`
		Value             *string `json:"value"`
		IncludeSubLineage bool    `json:"includeSubLineages"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("PangoLineageEquals", err)
	}
	if node.Column == nil || node.Value == nil {
		return nil, silo.NewQueryParseError("the fields 'column' and 'value' are required in a PangoLineageEquals expression")
	}
	return &PangoLineageEquals{
		Column:            *node.Column,
		Value:             *node.Value,
		IncludeSublineage: node.IncludeSubLineage,
	}, nil
}

func parseNucleotideSymbol(symbol string) (*symbols.Nucleotide, error) {
	if symbol == "." {
		return nil, nil
	}
	if len(symbol) != 1 {
		return nil, silo.NewQueryParseError("the string field 'symbol' must be exactly one character long")
	}
	s, ok := symbols.Nucleotides.CharToSymbol(symbol[0])
	if !ok {
		return nil, silo.NewQueryParseError("the field 'symbol' must be a valid nucleotide symbol or '.', got %q", symbol)
	}
	return &s, nil
}

func parseNucleotideSymbolEquals(data []byte) (Expression, error) {
	var node struct {
		Type         string  `json:"type"`
		SequenceName string  `json:"sequenceName"`
		Position     *uint32 `json:"position"`
		Symbol       *string `json:"symbol"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("NucleotideSymbolEquals", err)
	}
	if node.Position == nil || *node.Position == 0 {
		return nil, silo.NewQueryParseError("the field 'position' is required in a NucleotideSymbolEquals expression and must be greater than 0")
	}
	if node.Symbol == nil {
		return nil, silo.NewQueryParseError("the field 'symbol' is required in a NucleotideSymbolEquals expression")
	}
	symbol, err := parseNucleotideSymbol(*node.Symbol)
	if err != nil {
		return nil, err
	}
	return &NucleotideSymbolEquals{
		SequenceName: node.SequenceName,
		Position:     *node.Position,
		Symbol:       symbol,
	}, nil
}

func parseAminoAcidSymbolEquals(data []byte) (Expression, error) {
	var node struct {
		Type         string  `json:"type"`
		SequenceName *string `json:"sequenceName"`
		Position     *uint32 `json:"position"`
		Symbol       *string `json:"symbol"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("AminoAcidSymbolEquals", err)
	}
	if node.SequenceName == nil {
		return nil, silo.NewQueryParseError("the field 'sequenceName' is required in an AminoAcidSymbolEquals expression")
	}
	if node.Position == nil || *node.Position == 0 {
		return nil, silo.NewQueryParseError("the field 'position' is required in an AminoAcidSymbolEquals expression and must be greater than 0")
	}
	if node.Symbol == nil {
		return nil, silo.NewQueryParseError("the field 'symbol' is required in an AminoAcidSymbolEquals expression")
	}

	var symbol *symbols.AminoAcid
	if *node.Symbol != "." {
		if len(*node.Symbol) != 1 {
			return nil, silo.NewQueryParseError("the string field 'symbol' must be exactly one character long")
		}
		s, ok := symbols.AminoAcids.CharToSymbol((*node.Symbol)[0])
		if !ok {
			return nil, silo.NewQueryParseError("the field 'symbol' must be a valid amino-acid symbol or '.', got %q", *node.Symbol)
		}
		symbol = &s
	}
	return &AminoAcidSymbolEquals{
		SequenceName: *node.SequenceName,
		Position:     *node.Position,
		Symbol:       symbol,
	}, nil
}

func parseHasMutation(data []byte) (Expression, error) {
	var node struct {
		Type         string  `json:"type"`
		SequenceName string  `json:"sequenceName"`
		Position     *uint32 `json:"position"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("HasMutation", err)
	}
	if node.Position == nil || *node.Position == 0 {
		return nil, silo.NewQueryParseError("the field 'position' is required in a HasMutation expression and must be greater than 0")
	}
	return &HasMutation{SequenceName: node.SequenceName, Position: *node.Position}, nil
}

func parseInsertionContains(data []byte) (Expression, error) {
	var node struct {
		Type     string  `json:"type"`
		Column   string  `json:"column"`
		Position *uint32 `json:"position"`
		Pattern  *string `json:"pattern"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("InsertionContains", err)
	}
	if node.Position == nil || *node.Position == 0 {
		return nil, silo.NewQueryParseError("the field 'position' is required in an InsertionContains expression and must be greater than 0")
	}
	if node.Pattern == nil {
		return nil, silo.NewQueryParseError("the field 'pattern' is required in an InsertionContains expression")
	}
	return &InsertionContains{Column: node.Column, Position: *node.Position, Pattern: *node.Pattern}, nil
}

func parsePatternSearch(data []byte) (Expression, error) {
	var node struct {
		Type         string  `json:"type"`
		SequenceName string  `json:"sequenceName"`
		Position     *uint32 `json:"position"`
		Pattern      *string `json:"pattern"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, parseError("PatternSearch", err)
	}
	if node.Position == nil || *node.Position == 0 {
		return nil, silo.NewQueryParseError("the field 'position' is required in a PatternSearch expression and must be greater than 0")
	}
	if node.Pattern == nil || *node.Pattern == "" {
		return nil, silo.NewQueryParseError("the field 'pattern' is required in a PatternSearch expression and must be non-empty")
	}

	pattern := make([]symbols.Nucleotide, len(*node.Pattern))
	for i := 0; i < len(*node.Pattern); i++ {
		s, ok := symbols.Nucleotides.CharToSymbol((*node.Pattern)[i])
		if !ok {
			return nil, silo.NewQueryParseError("PatternSearch pattern contains an illegal nucleotide symbol %q", (*node.Pattern)[i])
		}
		pattern[i] = s
	}
	return &PatternSearch{SequenceName: node.SequenceName, Position: *node.Position, Pattern: pattern}, nil
}
