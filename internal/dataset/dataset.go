// Package dataset loads labelled time series and detection tables from CSV.
// Files ending in ".sz" are snappy framed streams.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/snappy"

	"github.com/soltixdb/anomalyeval/internal/analytics"
	"github.com/soltixdb/anomalyeval/internal/evaluation"
)

// SnappyExt marks snappy framed files
const SnappyExt = ".sz"

var (
	// ErrMissingColumn is returned when a required header column is absent
	ErrMissingColumn = errors.New("missing column")

	// ErrInvalidValue is returned when a numeric field cannot be parsed
	ErrInvalidValue = errors.New("invalid value")
)

// Series is a labelled time series: one label per data point
type Series struct {
	Points []analytics.TimeSeriesPoint
	Labels []analytics.LabelPoint
}

// Len returns the number of points
func (s *Series) Len() int {
	return len(s.Points)
}

type readCloser struct {
	io.Reader
	closer io.Closer
}

func (r *readCloser) Close() error {
	return r.closer.Close()
}

// Open opens path for reading, decoding snappy framing by extension
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if strings.HasSuffix(path, SnappyExt) {
		return &readCloser{Reader: snappy.NewReader(f), closer: f}, nil
	}
	return &readCloser{Reader: bufio.NewReader(f), closer: f}, nil
}

type flushWriter interface {
	io.Writer
	Flush() error
}

type writeCloser struct {
	buf  flushWriter
	file *os.File
}

func (w *writeCloser) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *writeCloser) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// Create creates path for writing, snappy framing by extension
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if strings.HasSuffix(path, SnappyExt) {
		return &writeCloser{buf: snappy.NewBufferedWriter(f), file: f}, nil
	}
	return &writeCloser{buf: bufio.NewWriter(f), file: f}, nil
}

// ReadSeries reads a "timestamp,value,label" table. Columns are located by
// header name and may appear in any order.
func ReadSeries(r io.Reader, layout string) (*Series, error) {
	if layout == "" {
		layout = evaluation.DefaultTimeLayout
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	cols, err := readHeader(reader, "timestamp", "value", "label")
	if err != nil {
		return nil, err
	}

	series := &Series{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := evaluation.ParseTimestamp(record[cols[0]], layout)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		value, err := strconv.ParseFloat(record[cols[1]], 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("line %d: %w: value %q", line, ErrInvalidValue, record[cols[1]])
		}
		label, err := strconv.Atoi(record[cols[2]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: label %q", line, ErrInvalidValue, record[cols[2]])
		}

		series.Points = append(series.Points, analytics.TimeSeriesPoint{Time: ts, Value: value})
		series.Labels = append(series.Labels, analytics.LabelPoint{Time: ts, Value: label})
	}

	if err := analytics.ValidateLabels(series.Labels); err != nil {
		return nil, err
	}
	return series, nil
}

// ReadDetections reads a "start,end,score" table in file order
func ReadDetections(r io.Reader, layout string) ([]evaluation.Detection, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	cols, err := readHeader(reader, "start", "end", "score")
	if err != nil {
		return nil, err
	}

	var records []evaluation.DetectionRecord
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		score, err := strconv.ParseFloat(record[cols[2]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: score %q", line, ErrInvalidValue, record[cols[2]])
		}
		records = append(records, evaluation.DetectionRecord{
			Start: record[cols[0]],
			End:   record[cols[1]],
			Score: score,
		})
	}

	return evaluation.ParseDetections(records, layout)
}

// WriteSeries writes series as a "timestamp,value,label" table
func WriteSeries(w io.Writer, series *Series, layout string) error {
	if layout == "" {
		layout = evaluation.DefaultTimeLayout
	}
	if len(series.Points) != len(series.Labels) {
		return fmt.Errorf("%w: %d points, %d labels", evaluation.ErrMisaligned, len(series.Points), len(series.Labels))
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"timestamp", "value", "label"}); err != nil {
		return err
	}
	for i, p := range series.Points {
		row := []string{
			p.Time.Format(layout),
			strconv.FormatFloat(p.Value, 'f', -1, 64),
			strconv.Itoa(series.Labels[i].Value),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// LoadSeries opens and reads a series file
func LoadSeries(path, layout string) (*Series, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	series, err := ReadSeries(f, layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

// LoadDetections opens and reads a detections file
func LoadDetections(path, layout string) ([]evaluation.Detection, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	detections, err := ReadDetections(f, layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return detections, nil
}

// readHeader maps the named columns to their positions in the header row
func readHeader(reader *csv.Reader, names ...string) ([]int, error) {
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: %w: %s", ErrMissingColumn, strings.Join(names, ","))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make([]int, len(names))
	for i, name := range names {
		pos, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		cols[i] = pos
	}

	// data rows must match the header width
	reader.FieldsPerRecord = len(header)
	return cols, nil
}
