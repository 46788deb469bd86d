// Package stream writes record streams: a CSV header naming the sampled
// counters followed by one row per tick. Every row is flushed as soon as it is
// appended, so a crash loses at most the row being written.
package stream

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bobolobo/perfmonitor/internal/codec"
	"github.com/bobolobo/perfmonitor/internal/models"
)

// ErrClosed is returned when writing to a closed stream.
var ErrClosed = errors.New("stream closed")

// Writer is a single-writer, append-only record stream.
type Writer struct {
	path    string
	file    *os.File
	csv     *csv.Writer
	columns int
	rows    int
	closed  bool
	mu      sync.Mutex
}

// Create truncates or creates the file at path, creating parent directories
// as needed.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("creating record stream: %w", err)
	}
	w := csv.NewWriter(f)
	w.Comma = ','
	w.UseCRLF = false
	return &Writer{path: path, file: f, csv: w, columns: -1}, nil
}

// Path returns the file backing the stream.
func (w *Writer) Path() string { return w.path }

// Rows returns how many data rows have been appended.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// WriteHeader writes the column names. It must be called exactly once,
// before any Append.
func (w *Writer) WriteHeader(columns []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.columns >= 0 {
		return errors.New("header already written")
	}
	if err := w.writeLocked(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	w.columns = len(columns)
	return nil
}

// Append encodes row and flushes it to disk.
func (w *Writer) Append(row models.SampleRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.columns < 0 {
		return errors.New("append before header")
	}
	if len(row.Values) != w.columns {
		return fmt.Errorf("row has %d values, header has %d columns", len(row.Values), w.columns)
	}
	if err := w.writeLocked(codec.EncodeRow(row)); err != nil {
		return fmt.Errorf("appending row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

func (w *Writer) writeLocked(fields []string) error {
	if err := w.csv.Write(fields); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes and closes the file. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.csv.Flush()
	flushErr := w.csv.Error()
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	return errors.Join(flushErr, syncErr, closeErr)
}
