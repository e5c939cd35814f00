package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
)

// ExceptionHeaders are the columns of the exceptions file
var ExceptionHeaders = []string{"loan_id", "reason"}

// Exception reasons
const (
	ReasonNoStage    = "no_stage"
	ReasonUnresolved = "unresolved_ecl"
)

// CSVWriter writes CSV files rooted at a reports directory
type CSVWriter struct {
	baseDir string
	bom     bool
}

// NewCSVWriter creates a new CSV writer. Relative paths are resolved against
// baseDir.
func NewCSVWriter(baseDir string) *CSVWriter {
	return &CSVWriter{baseDir: baseDir}
}

// SetBOM prefixes new files with a UTF-8 byte order mark for Excel
func (w *CSVWriter) SetBOM(bom bool) {
	w.bom = bom
}

// WritePortfolio streams p to a CSV file and returns the resolved path
func (w *CSVWriter) WritePortfolio(filePath string, p risk.Portfolio) (string, error) {
	sw, err := w.CreateStreamWriter(filePath, LoanHeaders)
	if err != nil {
		return "", err
	}
	for _, l := range p {
		if err := sw.WriteRecord(LoanRecord(l)); err != nil {
			sw.Close()
			return "", fmt.Errorf("write loan %d: %w", l.LoanID, err)
		}
	}
	if err := sw.Close(); err != nil {
		return "", fmt.Errorf("flush %s: %w", sw.Path(), err)
	}
	return sw.Path(), nil
}

// WriteExceptions lists the dropped and unresolved loans of a run, dropped
// loans first
func (w *CSVWriter) WriteExceptions(filePath string, loss risk.LossReport) (string, error) {
	sw, err := w.CreateStreamWriter(filePath, ExceptionHeaders)
	if err != nil {
		return "", err
	}

	write := func(ids []int64, reason string) error {
		for _, id := range ids {
			if err := sw.WriteRecord([]string{formatInt(id), reason}); err != nil {
				return fmt.Errorf("write loan %d: %w", id, err)
			}
		}
		return nil
	}

	if err := write(loss.Dropped, ReasonNoStage); err != nil {
		sw.Close()
		return "", err
	}
	if err := write(loss.Unresolved, ReasonUnresolved); err != nil {
		sw.Close()
		return "", err
	}
	if err := sw.Close(); err != nil {
		return "", fmt.Errorf("flush %s: %w", sw.Path(), err)
	}
	return sw.Path(), nil
}

// StreamWriter writes CSV records one at a time
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	path   string
}

// CreateStreamWriter creates the file, creating parent directories, and
// writes the header
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	slog.Debug("Creating CSV stream writer",
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if w.bom {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{file: file, writer: writer, path: fullPath}, nil
}

// WriteRecord writes a single record
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Path returns the resolved file path
func (s *StreamWriter) Path() string {
	return s.path
}

// Close flushes and closes the file
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}
