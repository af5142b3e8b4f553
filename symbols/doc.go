// Package symbols defines the fixed symbol alphabets for aligned sequence
// data: the 16-symbol nucleotide alphabet (IUPAC codes plus gap) and the
// amino-acid alphabet (20 residues, ambiguity codes, stop and gap).
//
// An Alphabet maps between characters and dense symbol values, identifies
// the alphabet-specific "missing" marker, and carries the ambiguity table
// used by the query compiler's upper-bound mode.
package symbols
