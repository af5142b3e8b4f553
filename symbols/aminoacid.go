package symbols

// AminoAcid is a symbol of the amino-acid alphabet: the twenty residues,
// the ambiguity codes B, Z and X, the stop codon '*' and the gap.
type AminoAcid uint8

// Amino-acid symbols in enumeration order.
const (
	AAGap AminoAcid = iota
	AAStar
	AAA
	AAB
	AAC
	AAD
	AAE
	AAF
	AAG
	AAH
	AAI
	AAK
	AAL
	AAM
	AAN
	AAP
	AAQ
	AAR
	AAS
	AAT
	AAV
	AAW
	AAX
	AAY
	AAZ
)

// AminoAcidCount is the number of amino-acid symbols.
const AminoAcidCount = 25

func (s AminoAcid) String() string {
	return string(AminoAcids.SymbolToChar(s))
}

func aaAmbiguity() [][]AminoAcid {
	amb := make([][]AminoAcid, AminoAcidCount)
	for s := AminoAcid(0); s < AminoAcidCount; s++ {
		switch s {
		case AAGap:
			amb[s] = []AminoAcid{AAGap}
		case AAD, AAN:
			amb[s] = []AminoAcid{s, AAB, AAX}
		case AAE, AAQ:
			amb[s] = []AminoAcid{s, AAZ, AAX}
		case AAB, AAZ, AAX:
			amb[s] = []AminoAcid{s}
		default:
			amb[s] = []AminoAcid{s, AAX}
		}
	}
	return amb
}

// AminoAcids is the amino-acid alphabet. Missing marker is X, gap is '-'.
var AminoAcids = newAlphabet[AminoAcid](
	"aminoAcid",
	[]byte("-*ABCDEFGHIKLMNPQRSTVWXYZ"),
	AAX,
	AAGap,
	aaAmbiguity(),
	[]AminoAcid{
		AAGap, AAA, AAC, AAD, AAE, AAF, AAG, AAH, AAI, AAK,
		AAL, AAM, AAN, AAP, AAQ, AAR, AAS, AAT, AAV, AAW, AAY,
	},
)
