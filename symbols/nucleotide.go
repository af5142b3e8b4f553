package symbols

// Nucleotide is a symbol of the 16-symbol nucleotide alphabet.
type Nucleotide uint8

// Nucleotide symbols in enumeration order. The order is part of the stored
// index layout and must not change.
const (
	NucGap Nucleotide = iota
	NucA
	NucC
	NucG
	NucT
	NucR
	NucY
	NucS
	NucW
	NucK
	NucM
	NucB
	NucD
	NucH
	NucV
	NucN
)

// NucleotideCount is the number of nucleotide symbols.
const NucleotideCount = 16

func (s Nucleotide) String() string {
	return string(Nucleotides.SymbolToChar(s))
}

// Nucleotides is the nucleotide alphabet. Missing marker is N, gap is '-'.
var Nucleotides = newAlphabet[Nucleotide](
	"nucleotide",
	[]byte("-ACGTRYSWKMBDHVN"),
	NucN,
	NucGap,
	[][]Nucleotide{
		NucGap: {NucGap},
		NucA:   {NucA, NucR, NucM, NucW, NucD, NucH, NucV, NucN},
		NucC:   {NucC, NucY, NucM, NucS, NucB, NucH, NucV, NucN},
		NucG:   {NucG, NucR, NucK, NucS, NucB, NucD, NucV, NucN},
		NucT:   {NucT, NucY, NucK, NucW, NucB, NucD, NucH, NucN},
		NucR:   {NucR},
		NucY:   {NucY},
		NucS:   {NucS},
		NucW:   {NucW},
		NucK:   {NucK},
		NucM:   {NucM},
		NucB:   {NucB},
		NucD:   {NucD},
		NucH:   {NucH},
		NucV:   {NucV},
		NucN:   {NucN},
	},
	[]Nucleotide{NucGap, NucA, NucC, NucG, NucT},
)
