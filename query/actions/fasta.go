package actions

import (
	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/internal/parallel"
	"github.com/genspectrum/silo/query/operators"
)

// primaryKeyValue reads the primary key of a local id, whatever column kind
// it is stored in.
func primaryKeyValue(db *silo.Database, partitionIndex int, id common.LocalID) any {
	value, _ := db.Partitions[partitionIndex].Columns.Value(db.Config.Schema.PrimaryKey, id)
	return value
}

// FastaAligned returns the aligned sequence of every matching id,
// reconstructed from the position bitmaps and missing-symbol bitmaps.
type FastaAligned struct {
	ordering
	SequenceName string
}

func parseFastaAligned(data []byte) (Action, error) {
	var node struct {
		Type          string         `json:"type"`
		SequenceName  string         `json:"sequenceName"`
		OrderByFields []OrderByField `json:"orderByFields"`
		Limit         *uint32        `json:"limit"`
		Offset        *uint32        `json:"offset"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, &silo.QueryParseError{Msg: "invalid FastaAligned action", Cause: err}
	}
	return &FastaAligned{
		ordering:     ordering{OrderBy: node.OrderByFields, Limit: node.Limit, Offset: node.Offset},
		SequenceName: node.SequenceName,
	}, nil
}

func (a *FastaAligned) Execute(db *silo.Database, filters []operators.Result) (*Result, error) {
	name := a.SequenceName
	if name == "" {
		name = db.DefaultNucleotideSequence()
	}
	store, ok := db.NucSequences[name]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the nucleotide sequence %q", name)
	}

	primaryKey := db.Config.Schema.PrimaryKey
	perPartition := make([][]Entry, len(db.Partitions))
	parallel.Each(len(db.Partitions), func(i int) {
		part := store.Partitions()[i]
		it := filters[i].Bitmap().Iterator()
		for it.HasNext() {
			id := common.LocalID(it.Next())
			perPartition[i] = append(perPartition[i], Entry{
				primaryKey: primaryKeyValue(db, i, id),
				name:       part.ReconstructSequence(id),
			})
		}
	})

	var entries []Entry
	for _, part := range perPartition {
		entries = append(entries, part...)
	}
	return &Result{Entries: a.applyOrderByAndLimit(entries)}, nil
}

// Fasta returns the codec-stored sequence of every matching id. The build
// must have stored raw sequences for the segment.
type Fasta struct {
	ordering
	SequenceName string
}

func parseFasta(data []byte) (Action, error) {
	var node struct {
		Type          string         `json:"type"`
		SequenceName  string         `json:"sequenceName"`
		OrderByFields []OrderByField `json:"orderByFields"`
		Limit         *uint32        `json:"limit"`
		Offset        *uint32        `json:"offset"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, &silo.QueryParseError{Msg: "invalid Fasta action", Cause: err}
	}
	return &Fasta{
		ordering:     ordering{OrderBy: node.OrderByFields, Limit: node.Limit, Offset: node.Offset},
		SequenceName: node.SequenceName,
	}, nil
}

func (a *Fasta) Execute(db *silo.Database, filters []operators.Result) (*Result, error) {
	name := a.SequenceName
	if name == "" {
		name = db.DefaultNucleotideSequence()
	}
	compressor, ok := db.Compressors[name]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the nucleotide sequence %q", name)
	}

	primaryKey := db.Config.Schema.PrimaryKey
	var entries []Entry
	for i, part := range db.Partitions {
		stored, ok := part.RawSequences[name]
		if !ok {
			return nil, silo.NewQueryParseError("the database was built without raw sequences for segment %q", name)
		}
		it := filters[i].Bitmap().Iterator()
		for it.HasNext() {
			id := common.LocalID(it.Next())
			sequence, err := compressor.Decompress(stored[id])
			if err != nil {
				return nil, silo.NewInternalError("stored sequence %d of partition %d is corrupt: %v", id, i, err)
			}
			entries = append(entries, Entry{
				primaryKey: primaryKeyValue(db, i, id),
				name:       sequence,
			})
		}
	}
	return &Result{Entries: a.applyOrderByAndLimit(entries)}, nil
}
