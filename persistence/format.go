// Package persistence saves and loads database snapshots. A snapshot is a
// directory named by its opaque data-version string, containing the
// partition descriptor, the schema documents needed to reopen it and one
// self-describing binary archive per partition.
package persistence

import (
	"errors"
	"strconv"
)

const (
	// MagicNumber identifies SILO partition archives (ASCII "SILO").
	MagicNumber = 0x53494c4f
	// Version is the current archive format version. Forward compatibility
	// is not required; the data-version string identifies the exact format.
	Version = 0x00010000

	// DescriptorFileName holds the partition descriptor.
	DescriptorFileName = "partition_descriptor.json"
	// ConfigFileName holds the database config the snapshot was built with.
	ConfigFileName = "database_config.json"
	// GenomesFileName holds the reference genomes.
	GenomesFileName = "reference_genomes.json"
	// AliasFileName holds the pango alias table.
	AliasFileName = "pango_aliases.json"
)

var (
	// ErrInvalidMagic reports a file that is not a partition archive.
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrInvalidVersion reports an archive of an unsupported version.
	ErrInvalidVersion = errors.New("unsupported archive version")
	// ErrChecksumMismatch reports a corrupted archive body.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")
)

// PartitionFileName returns the archive name of partition i ("P<i>.silo").
func PartitionFileName(i int) string {
	return "P" + strconv.Itoa(i) + ".silo"
}
