package preprocessing

import (
	"bufio"
	"io"
	"strings"

	silo "github.com/genspectrum/silo"
)

// ReadFasta parses a FASTA stream into key to sequence. Multi-line
// sequences are concatenated; duplicate keys are a preprocessing error.
func ReadFasta(r io.Reader) (map[string]string, error) {
	sequences := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)

	var key string
	var sb strings.Builder
	flush := func() error {
		if key == "" {
			return nil
		}
		if _, exists := sequences[key]; exists {
			return silo.NewPreprocessingError("duplicate sequence key %q in FASTA input", key)
		}
		sequences[key] = sb.String()
		sb.Reset()
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if err := flush(); err != nil {
				return nil, err
			}
			key = strings.TrimSpace(strings.TrimPrefix(line, ">"))
			if key == "" {
				return nil, silo.NewPreprocessingError("FASTA header with empty key")
			}
			continue
		}
		if key == "" {
			return nil, silo.NewPreprocessingError("FASTA input starts with sequence data instead of a header")
		}
		sb.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return sequences, nil
}
