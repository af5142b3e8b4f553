package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNucleotideRoundTrip(t *testing.T) {
	for _, s := range Nucleotides.Symbols() {
		c := Nucleotides.SymbolToChar(s)
		back, ok := Nucleotides.CharToSymbol(c)
		require.True(t, ok, "char %c", c)
		assert.Equal(t, s, back)
	}
}

func TestNucleotideLowercase(t *testing.T) {
	s, ok := Nucleotides.CharToSymbol('a')
	require.True(t, ok)
	assert.Equal(t, NucA, s)
}

func TestNucleotideUnknownChar(t *testing.T) {
	_, ok := Nucleotides.CharToSymbol('!')
	assert.False(t, ok)
}

func TestNucleotideAmbiguity(t *testing.T) {
	tests := []struct {
		name     string
		symbol   Nucleotide
		expected []Nucleotide
	}{
		{"A_expands", NucA, []Nucleotide{NucA, NucR, NucM, NucW, NucD, NucH, NucV, NucN}},
		{"gap_is_exact", NucGap, []Nucleotide{NucGap}},
		{"R_is_exact", NucR, []Nucleotide{NucR}},
		{"N_is_exact", NucN, []Nucleotide{NucN}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Nucleotides.AmbiguitySet(tt.symbol))
		})
	}
}

func TestNucleotideMissing(t *testing.T) {
	assert.Equal(t, NucN, Nucleotides.Missing())
	assert.Equal(t, NucGap, Nucleotides.Gap())
	assert.Equal(t, 16, Nucleotides.Count())
}

func TestAminoAcidAlphabet(t *testing.T) {
	assert.Equal(t, AAX, AminoAcids.Missing())
	assert.Equal(t, 25, AminoAcids.Count())
	assert.Len(t, AminoAcids.MutationSymbols(), 21)

	s, ok := AminoAcids.CharToSymbol('*')
	require.True(t, ok)
	assert.Equal(t, AAStar, s)
}

func TestAminoAcidAmbiguity(t *testing.T) {
	assert.ElementsMatch(t, []AminoAcid{AAD, AAB, AAX}, AminoAcids.AmbiguitySet(AAD))
	assert.ElementsMatch(t, []AminoAcid{AAQ, AAZ, AAX}, AminoAcids.AmbiguitySet(AAQ))
	assert.ElementsMatch(t, []AminoAcid{AAL, AAX}, AminoAcids.AmbiguitySet(AAL))
	assert.Equal(t, []AminoAcid{AAX}, AminoAcids.AmbiguitySet(AAX))
}

func TestParseSequence(t *testing.T) {
	seq, err := Nucleotides.ParseSequence("ACGT-N")
	require.NoError(t, err)
	assert.Equal(t, []Nucleotide{NucA, NucC, NucG, NucT, NucGap, NucN}, seq)

	_, err = Nucleotides.ParseSequence("ACQT")
	assert.Error(t, err)
}

func TestSymbolMap(t *testing.T) {
	m := NewSymbolMap[Nucleotide, int](Nucleotides)
	m.Set(NucA, 42)
	assert.Equal(t, 42, m.Get(NucA))
	assert.Equal(t, 0, m.Get(NucC))
	*m.At(NucC) = 7
	assert.Equal(t, 7, m.Get(NucC))
}
