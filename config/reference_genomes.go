package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReferenceGenomes holds the raw per-segment reference strings for both
// alphabets, as read from the reference-genomes JSON file.
type ReferenceGenomes struct {
	NucleotideSequences map[string]string `json:"nucleotideSequences"`
	AminoAcidSequences  map[string]string `json:"aminoAcidSequences"`
}

// ReadReferenceGenomes loads a reference-genomes JSON file.
func ReadReferenceGenomes(path string) (*ReferenceGenomes, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Msg: "reading reference genomes file", Cause: err}
	}
	var genomes ReferenceGenomes
	if err := json.Unmarshal(raw, &genomes); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("parsing reference genomes file %s", path), Cause: err}
	}
	if len(genomes.NucleotideSequences) == 0 {
		return nil, &ConfigError{Msg: "reference genomes file contains no nucleotide sequences"}
	}
	return &genomes, nil
}
