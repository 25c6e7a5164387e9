package editindex

import (
	"path/filepath"
	"strings"

	"edlmatch/internal/timecode"
	"edlmatch/internal/tokens"
)

// Designated timecode columns, named after column renaming.
const (
	ColumnSourceIn  = "source_in"
	ColumnSourceOut = "source_out"
	ColumnRecordIn  = "record_in"
	ColumnRecordOut = "record_out"
)

// TimecodeColumns lists the designated columns in rendering order.
var TimecodeColumns = []string{ColumnSourceIn, ColumnSourceOut, ColumnRecordIn, ColumnRecordOut}

// Record is one normalized CSV row.
type Record struct {
	// Line is the 1-based data row number (the header is not counted).
	Line int

	columns []string
	values  map[string]string

	SourceIn  timecode.Frames
	SourceOut timecode.Frames
	RecordIn  timecode.Frames
	RecordOut timecode.Frames

	// Skip excludes the record from matching.
	Skip bool
	// MatchKey is recomputed by every matching run.
	MatchKey string
}

// NewRecord builds a record from parallel column and value slices. Missing
// trailing values are treated as empty.
func NewRecord(line int, columns, values []string) *Record {
	r := &Record{Line: line, values: make(map[string]string, len(columns))}
	for i, col := range columns {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		r.Set(col, value)
	}
	return r
}

// Columns returns the column names in their original order.
func (r *Record) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Get returns a column value and whether the column exists.
func (r *Record) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Value returns a column value or "" when the column is missing.
func (r *Record) Value(column string) string {
	return r.values[column]
}

// Set assigns a column value, appending the column when it is new.
func (r *Record) Set(column, value string) {
	if r.values == nil {
		r.values = map[string]string{}
	}
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// MissingColumns returns the names in required that are not columns of r.
func (r *Record) MissingColumns(required []string) (missing []string) {
	for _, name := range required {
		if _, ok := r.values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Frames returns the frame field backing one of the designated columns.
func (r *Record) Frames(column string) timecode.Frames {
	switch column {
	case ColumnSourceIn:
		return r.SourceIn
	case ColumnSourceOut:
		return r.SourceOut
	case ColumnRecordIn:
		return r.RecordIn
	case ColumnRecordOut:
		return r.RecordOut
	default:
		return timecode.Frames{}
	}
}

func (r *Record) setFrames(column string, f timecode.Frames) {
	switch column {
	case ColumnSourceIn:
		r.SourceIn = f
	case ColumnSourceOut:
		r.SourceOut = f
	case ColumnRecordIn:
		r.RecordIn = f
	case ColumnRecordOut:
		r.RecordOut = f
	}
}

// Tokens exposes the record as a token map: every column plus a
// "<column>_frames" entry for each present frame field.
func (r *Record) Tokens() tokens.Map {
	out := make(tokens.Map, len(r.values)+len(TimecodeColumns))
	for k, v := range r.values {
		out[k] = v
	}
	for _, col := range TimecodeColumns {
		if f := r.Frames(col); f.Valid {
			out[col+"_frames"] = f.String()
		}
	}
	return out
}

// Batch is the ordered record list loaded from one CSV file.
type Batch struct {
	Path    string
	Records []*Record

	// GroupKey and SortKey are assigned by grouping; the Has flags
	// distinguish an absent key from an empty capture.
	GroupKey    string
	HasGroupKey bool
	SortKey     string
	HasSortKey  bool
}

// Name returns the batch file's base name.
func (b *Batch) Name() string {
	return filepath.Base(b.Path)
}

// Stem returns the base name without its extension.
func (b *Batch) Stem() string {
	name := b.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Eligible counts records not marked to skip.
func (b *Batch) Eligible() int {
	n := 0
	for _, r := range b.Records {
		if !r.Skip {
			n++
		}
	}
	return n
}

// CountRecords sums the records of every batch.
func CountRecords(batches []*Batch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Records)
	}
	return n
}
