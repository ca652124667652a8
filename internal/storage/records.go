// Package storage reads citation datasets from disk and persists metric
// snapshots in SQLite.
package storage

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/citedash/internal/export"
	"github.com/matsen/citedash/internal/record"
)

// MaxJSONLLineCapacity is the maximum buffer size for one JSONL line (1MB).
const MaxJSONLLineCapacity = 1024 * 1024

// Format is a dataset file format.
type Format string

// Supported dataset formats.
const (
	FormatJSON  Format = "json"  // Array, single object, or {"items": [...]} wrapper
	FormatJSONL Format = "jsonl" // One object per line
	FormatCSV   Format = "csv"   // Citations CSV as written by export
)

// ErrUnsupportedFormat is returned for file extensions with no reader.
var ErrUnsupportedFormat = errors.New("unsupported data format")

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// LoadResult is the outcome of loading one dataset file.
type LoadResult struct {
	Records []record.Record
	Skipped int // Entries that were not JSON objects
	Hash    string
}

// LoadRecords reads and normalizes the dataset at path.
func LoadRecords(path string, n record.Normalizer) (*LoadResult, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	sum := sha256.Sum256(data)
	res := &LoadResult{Hash: hex.EncodeToString(sum[:])}

	if format == FormatCSV {
		recs, err := export.ReadRecords(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		for i := range recs {
			recs[i].IsOriginalPaper = n.IsOriginal(recs[i].Title)
		}
		res.Records = recs
		return res, nil
	}

	raws, skipped, err := ReadRawRecords(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	res.Records = n.NormalizeAll(raws)
	res.Skipped = skipped
	return res, nil
}

// ReadRawRecords decodes JSON or JSONL input. Entries that are not objects
// are counted in skipped rather than failing the whole file; syntactically
// invalid JSON is an error.
func ReadRawRecords(r io.Reader, format Format) (raws []record.RawRecord, skipped int, err error) {
	switch format {
	case FormatJSONL:
		return readJSONL(r)
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, 0, fmt.Errorf("reading json: %w", err)
		}
		return readJSON(data)
	}
	return nil, 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func readJSONL(r io.Reader) ([]record.RawRecord, int, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	raws := []record.RawRecord{}
	skipped := 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, 0, fmt.Errorf("parsing line %d: invalid JSON", lineNum)
		}
		raw, ok := decodeObject(line)
		if !ok {
			skipped++
			continue
		}
		raws = append(raws, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading jsonl: %w", err)
	}
	return raws, skipped, nil
}

// wrapperKeys are the envelope fields searched for a record array, in order.
// "message" covers Crossref API responses ({"message": {"items": [...]}}).
var wrapperKeys = []string{"items", "citations", "records", "data", "message"}

func readJSON(data []byte) ([]record.RawRecord, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []record.RawRecord{}, 0, nil
	}
	if !json.Valid(data) {
		return nil, 0, errors.New("invalid JSON")
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, 0, err
		}
		raws := make([]record.RawRecord, 0, len(items))
		skipped := 0
		for _, item := range items {
			raw, ok := decodeObject(item)
			if !ok {
				skipped++
				continue
			}
			raws = append(raws, raw)
		}
		return raws, skipped, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, 0, err
		}
		if _, hasTitle := envelope["title"]; !hasTitle {
			for _, key := range wrapperKeys {
				if inner, ok := envelope[key]; ok {
					inner = bytes.TrimSpace(inner)
					if len(inner) > 0 && (inner[0] == '[' || inner[0] == '{') {
						return readJSON(inner)
					}
				}
			}
		}
		raw, _ := decodeObject(data)
		return []record.RawRecord{raw}, 0, nil
	}
	return []record.RawRecord{}, 1, nil
}

// decodeObject decodes a JSON object into a RawRecord. Non-objects report
// false. Field-level type mismatches never fail: RawRecord's field types
// absorb them.
func decodeObject(data json.RawMessage) (record.RawRecord, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return record.RawRecord{}, false
	}
	var raw record.RawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return record.RawRecord{}, false
	}
	return raw, true
}

// WriteJSONL writes normalized records to path, one per line, replacing
// existing content.
func WriteJSONL(path string, records []record.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating records file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing records file: %w", err)
	}
	return nil
}

// HashFile returns the hex SHA-256 of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
