package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyFile     = errors.New("file is empty")
	ErrMissingHeader = errors.New("missing header row")
)

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// DetectDelimiter picks the candidate delimiter occurring most often across
// the first few non-empty lines. Ties and absence fall back to the comma.
func DetectDelimiter(data []byte) rune {
	counts := make(map[rune]int, len(candidateDelimiters))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := 0
	for scanner.Scan() && lines < 5 {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		for _, d := range candidateDelimiters {
			counts[d] += strings.Count(line, string(d))
		}
	}

	best := ','
	bestCount := 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// ReadCSV streams rows out of a CSV buffer as header->value maps, calling fn
// with 1-based data row numbers. The header row is mandatory; the delimiter
// is auto-detected.
func ReadCSV(data []byte, fn func(rowNum int, row map[string]string) error) error {
	data = stripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrEmptyFile
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = DetectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return ErrMissingHeader
		}
		return errors.Wrap(err, "read csv header")
	}
	if len(header) == 0 {
		return ErrMissingHeader
	}

	rowNum := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "read csv row %d", rowNum+1)
		}

		rowNum++
		row := make(map[string]string, len(header))
		for i, value := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = value
		}
		if err := fn(rowNum, row); err != nil {
			return err
		}
	}

	if rowNum == 0 {
		return ErrEmptyFile
	}
	return nil
}
