package timestamps

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"realigner/internal/services"
)

// Column headers of the realignment table.
const (
	ColumnSplit               = "Split"
	ColumnDialogueID          = "Dialogue ID"
	ColumnUtteranceID         = "Utterance ID"
	ColumnOriginalDialogueID  = "Original Dialogue ID"
	ColumnOriginalUtteranceID = "Original Utterance ID"
	ColumnStartTime           = "Start Time"
	ColumnEndTime             = "End Time"
)

var requiredColumns = []string{
	ColumnSplit,
	ColumnDialogueID,
	ColumnUtteranceID,
	ColumnOriginalDialogueID,
	ColumnOriginalUtteranceID,
	ColumnStartTime,
	ColumnEndTime,
}

// Row is one segment of an original clip destined for an output clip.
// Start and End are seconds into the original clip.
type Row struct {
	Line                int
	Split               string
	DialogueID          int
	UtteranceID         int
	OriginalDialogueID  int
	OriginalUtteranceID int
	Start               float64
	End                 float64
}

// Duration returns End-Start.
func (r Row) Duration() float64 {
	return r.End - r.Start
}

// Key identifies the output clip a row or group belongs to.
type Key struct {
	Split       string
	DialogueID  int
	UtteranceID int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/dia%d_utt%d", k.Split, k.DialogueID, k.UtteranceID)
}

func compareKeys(a, b Key) int {
	if c := cmp.Compare(a.Split, b.Split); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DialogueID, b.DialogueID); c != 0 {
		return c
	}
	return cmp.Compare(a.UtteranceID, b.UtteranceID)
}

// Group holds the rows of one output clip in table order.
type Group struct {
	Key
	Rows []Row
}

// ExpectedDuration is the sum of the row durations.
func (g Group) ExpectedDuration() float64 {
	var total float64
	for _, row := range g.Rows {
		total += row.Duration()
	}
	return total
}

// Table is the parsed realignment table.
type Table struct {
	Rows   []Row
	Groups []Group
}

// Splits returns the distinct split names in sorted order.
func (t *Table) Splits() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, g := range t.Groups {
		if _, ok := seen[g.Split]; ok {
			continue
		}
		seen[g.Split] = struct{}{}
		names = append(names, g.Split)
	}
	slices.Sort(names)
	return names
}

// FilterSplit returns the groups belonging to split.
func (t *Table) FilterSplit(split string) []Group {
	var out []Group
	for _, g := range t.Groups {
		if g.Split == split {
			out = append(out, g)
		}
	}
	return out
}

// Load reads and groups the realignment table at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "load", "open realignment table", path, err)
	}
	defer f.Close()
	table, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Parse reads a realignment table from r.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, invalid("table is empty", nil)
		}
		return nil, invalid("read header", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}
	reader.FieldsPerRecord = len(header)

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("read row", err)
		}
		line, _ := reader.FieldPos(0)
		if blankRecord(record) {
			continue
		}
		row, err := parseRow(record, index, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return &Table{Rows: rows, Groups: GroupRows(rows)}, nil
}

// GroupRows buckets rows by key. Groups are sorted by key; rows keep input order.
func GroupRows(rows []Row) []Group {
	positions := make(map[Key]int)
	var groups []Group
	for _, row := range rows {
		key := Key{Split: row.Split, DialogueID: row.DialogueID, UtteranceID: row.UtteranceID}
		pos, ok := positions[key]
		if !ok {
			pos = len(groups)
			positions[key] = pos
			groups = append(groups, Group{Key: key})
		}
		groups[pos].Rows = append(groups[pos].Rows, row)
	}
	slices.SortStableFunc(groups, func(a, b Group) int {
		return compareKeys(a.Key, b.Key)
	})
	return groups
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; dup {
			return nil, invalid(fmt.Sprintf("duplicate column %q", name), nil)
		}
		index[name] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, invalid("missing columns: "+strings.Join(missing, ", "), nil)
	}
	return index, nil
}

func parseRow(record []string, index map[string]int, line int) (Row, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[index[name]])
	}
	row := Row{Line: line, Split: field(ColumnSplit)}
	if row.Split == "" {
		return Row{}, invalid(fmt.Sprintf("line %d: empty %s", line, ColumnSplit), nil)
	}

	ints := []struct {
		column string
		dst    *int
	}{
		{ColumnDialogueID, &row.DialogueID},
		{ColumnUtteranceID, &row.UtteranceID},
		{ColumnOriginalDialogueID, &row.OriginalDialogueID},
		{ColumnOriginalUtteranceID, &row.OriginalUtteranceID},
	}
	for _, col := range ints {
		value, err := parseID(field(col.column))
		if err != nil {
			return Row{}, invalid(fmt.Sprintf("line %d: %s", line, col.column), err)
		}
		*col.dst = value
	}

	var err error
	if row.Start, err = strconv.ParseFloat(field(ColumnStartTime), 64); err != nil {
		return Row{}, invalid(fmt.Sprintf("line %d: %s", line, ColumnStartTime), err)
	}
	if row.End, err = strconv.ParseFloat(field(ColumnEndTime), 64); err != nil {
		return Row{}, invalid(fmt.Sprintf("line %d: %s", line, ColumnEndTime), err)
	}
	if row.Start < 0 {
		return Row{}, invalid(fmt.Sprintf("line %d: negative start time %v", line, row.Start), nil)
	}
	if row.End <= row.Start {
		return Row{}, invalid(fmt.Sprintf("line %d: end time %v not after start time %v", line, row.End, row.Start), nil)
	}
	return row, nil
}

// parseID accepts plain integers and integral floats such as "5.0".
func parseID(value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative id %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative id %q", value)
	}
	return int(f), nil
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func invalid(message string, err error) error {
	return services.Wrap(services.ErrValidation, "load", "parse realignment table", message, err)
}
