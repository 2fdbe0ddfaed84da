package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/tasks-api/internal/domain"
)

// Column names in the order they are written.
const (
	ColumnID          = "id"
	ColumnTitle       = "title"
	ColumnDescription = "description"
	ColumnPriority    = "priority"
	ColumnCompleted   = "completed"
	ColumnCreatedAt   = "created_at"
	ColumnUpdatedAt   = "updated_at"
)

// Header is the header row written by Encode.
var Header = []string{
	ColumnID,
	ColumnTitle,
	ColumnDescription,
	ColumnPriority,
	ColumnCompleted,
	ColumnCreatedAt,
	ColumnUpdatedAt,
}

var requiredColumns = []string{
	ColumnID,
	ColumnTitle,
	ColumnPriority,
	ColumnCompleted,
	ColumnCreatedAt,
	ColumnUpdatedAt,
}

// Layouts accepted for timestamps. Naive layouts are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ErrMissingColumn is returned by Decode when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// ErrDuplicateID marks a row whose id was already seen earlier in the file.
var ErrDuplicateID = errors.New("duplicate id")

// RowError describes a row that Decode dropped.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// DecodeResult holds the tasks read from a file and the rows that were dropped.
type DecodeResult struct {
	Tasks   []domain.Task
	Skipped []RowError
}

// Decode reads tasks from r. Rows with an empty id are skipped silently; any
// other malformed row is dropped and reported in Skipped. An error is returned
// only when the input as a whole is unusable.
func Decode(r io.Reader) (DecodeResult, error) {
	var result DecodeResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return result, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	seen := make(map[int]struct{})
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Skipped = append(result.Skipped, RowError{Line: parseErr.StartLine, Err: parseErr.Err})
				continue
			}
			return result, fmt.Errorf("failed to read row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		if strings.TrimSpace(field(ColumnID)) == "" {
			continue
		}

		task, err := decodeRow(field)
		if err == nil {
			if _, dup := seen[task.ID]; dup {
				err = fmt.Errorf("%w: %d", ErrDuplicateID, task.ID)
			}
		}
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Err: err})
			continue
		}

		seen[task.ID] = struct{}{}
		result.Tasks = append(result.Tasks, task)
	}

	return result, nil
}

func decodeRow(field func(string) string) (domain.Task, error) {
	var task domain.Task

	id, err := strconv.Atoi(strings.TrimSpace(field(ColumnID)))
	if err != nil {
		return task, fmt.Errorf("invalid id %q: %w", field(ColumnID), domain.ErrInvalidID)
	}

	n, err := strconv.Atoi(strings.TrimSpace(field(ColumnPriority)))
	if err != nil {
		return task, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, field(ColumnPriority))
	}
	priority, err := domain.ParsePriority(n)
	if err != nil {
		return task, err
	}

	createdAt, err := parseTimestamp(field(ColumnCreatedAt))
	if err != nil {
		return task, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, err := parseTimestamp(field(ColumnUpdatedAt))
	if err != nil {
		return task, fmt.Errorf("invalid updated_at: %w", err)
	}

	task = domain.Task{
		ID:        id,
		Title:     field(ColumnTitle),
		Priority:  priority,
		Completed: strings.EqualFold(strings.TrimSpace(field(ColumnCompleted)), "true"),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if description := field(ColumnDescription); description != "" {
		task.Description = &description
	}

	if err := task.Validate(); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// Encode writes the header followed by one row per task.
func Encode(w io.Writer, tasks []domain.Task) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}

	for _, task := range tasks {
		row := []string{
			strconv.Itoa(task.ID),
			task.Title,
			task.DescriptionOrEmpty(),
			strconv.Itoa(int(task.Priority)),
			formatBool(task.Completed),
			task.CreatedAt.UTC().Format(time.RFC3339Nano),
			task.UpdatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
