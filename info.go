package silo

import (
	"github.com/genspectrum/silo/internal/parallel"
	"github.com/genspectrum/silo/symbols"
)

// DatabaseInfo summarizes a snapshot: sequence count, bitmap index size and
// the size of the per-sequence missing-symbol bitmaps, over all partitions
// and all nucleotide and amino-acid segments.
type DatabaseInfo struct {
	SequenceCount     uint32 `json:"sequenceCount"`
	TotalSize         uint64 `json:"totalSize"`
	MissingBitmapSize uint64 `json:"nBitmapsSize"`
}

// Info computes size statistics across all partitions.
func (db *Database) Info() DatabaseInfo {
	infos := make([]DatabaseInfo, len(db.Partitions))
	parallel.Each(len(db.Partitions), func(i int) {
		p := db.Partitions[i]
		infos[i].SequenceCount = p.SequenceCount
		for _, store := range p.NucSequences {
			info := store.Info()
			infos[i].TotalSize += info.Size
			infos[i].MissingBitmapSize += info.MissingBitmapSize
		}
		for _, store := range p.AASequences {
			info := store.Info()
			infos[i].TotalSize += info.Size
			infos[i].MissingBitmapSize += info.MissingBitmapSize
		}
	})

	var total DatabaseInfo
	for _, info := range infos {
		total.SequenceCount += info.SequenceCount
		total.TotalSize += info.TotalSize
		total.MissingBitmapSize += info.MissingBitmapSize
	}
	return total
}

// DetailedDatabaseInfo breaks bitmap sizes down per nucleotide symbol.
type DetailedDatabaseInfo struct {
	BitmapSizePerSymbol map[string]uint64 `json:"bitmapSizePerSymbol"`
}

// DetailedInfo computes the per-symbol bitmap size breakdown over all
// nucleotide segments.
func (db *Database) DetailedInfo() DetailedDatabaseInfo {
	perSymbol := make(map[string]uint64, symbols.NucleotideCount)
	for _, s := range symbols.Nucleotides.Symbols() {
		var size uint64
		for _, p := range db.Partitions {
			for _, store := range p.NucSequences {
				for pos := 0; pos < store.Length(); pos++ {
					size += store.PositionAt(pos).Bitmap(s).GetSizeInBytes()
				}
			}
		}
		perSymbol[s.String()] = size
	}
	return DetailedDatabaseInfo{BitmapSizePerSymbol: perSymbol}
}
