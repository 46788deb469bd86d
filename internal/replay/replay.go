// Package replay reads a record stream back and maps its columns to the
// counters that produced them.
package replay

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/bobolobo/perfmonitor/internal/codec"
	"github.com/bobolobo/perfmonitor/internal/models"
)

var (
	// ErrMissingFile is returned when the record file does not exist.
	ErrMissingFile = errors.New("record file does not exist, maybe you need to record data first")

	// ErrEmptyFile is returned when the record file has no content.
	ErrEmptyFile = errors.New("record file is empty, maybe the last recording did not work")

	// ErrUnknownColumn is returned by Select for a name not in the header.
	ErrUnknownColumn = errors.New("unknown column")
)

// MalformedRowError describes a data row whose field count does not match the
// header. Such rows are skipped rather than misaligned.
type MalformedRowError struct {
	Line   int
	Fields int
	Want   int
	Err    error
}

func (e *MalformedRowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %d fields, want %d (timestamp + one per column)", e.Line, e.Fields, e.Want)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// Recording is a replayed record stream.
type Recording struct {
	Path   string
	Header []string
	Rows   []models.SampleRow

	// Malformed lists the rows that were skipped, in file order.
	Malformed []*MalformedRowError
	// BadCells counts fields that could not be parsed and were read as absent.
	BadCells int
}

// Series is one column of a recording.
type Series struct {
	Name   string
	Column int
	// Points holds one value per row; absent readings are NaN.
	Points []float64
}

// Read opens and parses the record stream at path.
func Read(path string) (*Recording, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrMissingFile)
		}
		return nil, fmt.Errorf("checking record file: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening record file: %w", err)
	}
	defer f.Close()

	rec, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec.Path = path
	return rec, nil
}

// Decode parses a record stream from r.
func Decode(r io.Reader) (*Recording, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	rec := &Recording{Header: codec.NormalizeHeaders(trimAll(header))}
	want := len(rec.Header) + 1

	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				rec.Malformed = append(rec.Malformed, &MalformedRowError{Line: pe.Line, Err: pe.Err})
				continue
			}
			return nil, err
		}

		line, _ := cr.FieldPos(0)
		if len(fields) != want {
			rec.Malformed = append(rec.Malformed, &MalformedRowError{Line: line, Fields: len(fields), Want: want})
			continue
		}

		row := models.SampleRow{
			Timestamp: strings.Join(strings.Fields(fields[0]), " "),
			Values:    make([]models.Value, len(rec.Header)),
		}
		if t, err := codec.ParseTimestamp(row.Timestamp); err == nil {
			row.Time = t
		}
		for i, field := range fields[1:] {
			v, err := codec.ParseValue(field)
			if err != nil {
				rec.BadCells++
			}
			row.Values[i] = v
		}
		rec.Rows = append(rec.Rows, row)
	}
	return rec, nil
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

// Column returns the index of name in the header, or -1.
func (r *Recording) Column(name string) int {
	for i, h := range r.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Select returns the named columns, in the order requested. Names are matched
// against the normalized header by exact string equality.
func (r *Recording) Select(names []string) ([]Series, error) {
	out := make([]Series, 0, len(names))
	for _, name := range names {
		col := r.Column(name)
		if col < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		s := Series{Name: name, Column: col, Points: make([]float64, len(r.Rows))}
		for i, row := range r.Rows {
			if v := row.Values[col]; v.Present {
				s.Points[i] = v.V
			} else {
				s.Points[i] = math.NaN()
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// Timestamps returns the timestamp field of every row.
func (r *Recording) Timestamps() []string {
	out := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Timestamp
	}
	return out
}

// Duration is the span covered by the recording at the given tick interval.
func (r *Recording) Duration(interval time.Duration) time.Duration {
	return time.Duration(len(r.Rows)) * interval
}
