package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// recordWriter streams exported rows to a file
type recordWriter interface {
	Begin(columns []string) error
	Write(values map[string]any) error
	End() error
}

func newRecordWriter(format string, w io.Writer) recordWriter {
	if format == "json" {
		return &jsonRecordWriter{w: w}
	}
	return &csvRecordWriter{w: csv.NewWriter(w)}
}

type csvRecordWriter struct {
	w       *csv.Writer
	columns []string
}

func (c *csvRecordWriter) Begin(columns []string) error {
	c.columns = columns
	if err := c.w.Write(columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	return nil
}

func (c *csvRecordWriter) Write(values map[string]any) error {
	record := make([]string, len(c.columns))
	for i, col := range c.columns {
		if val, ok := values[col]; ok && val != nil {
			record[i] = formatCSVValue(val)
		}
	}
	if err := c.w.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func (c *csvRecordWriter) End() error {
	c.w.Flush()
	return c.w.Error()
}

func formatCSVValue(val any) string {
	switch v := val.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case [16]byte:
		// UUID columns scan as raw bytes
		return fmt.Sprintf("%x-%x-%x-%x-%x", v[0:4], v[4:6], v[6:8], v[8:10], v[10:16])
	default:
		return fmt.Sprintf("%v", v)
	}
}

type jsonRecordWriter struct {
	w     io.Writer
	first bool
}

func (j *jsonRecordWriter) Begin([]string) error {
	j.first = true
	_, err := io.WriteString(j.w, "[\n")
	return err
}

func (j *jsonRecordWriter) Write(values map[string]any) error {
	sep := ",\n  "
	if j.first {
		sep = "  "
		j.first = false
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if _, err := io.WriteString(j.w, sep); err != nil {
		return err
	}
	_, err = j.w.Write(data)
	return err
}

func (j *jsonRecordWriter) End() error {
	_, err := io.WriteString(j.w, "\n]\n")
	return err
}
