// Package pipeline reads and writes record streams in JSONL format, the
// canonical pipe format for exporting and importing the local dataset.
package pipeline

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/util"
)

// ErrEmptyInput is returned when a stream holds no records.
var ErrEmptyInput = errors.New("no records read from input")

// Read decodes one T per non-blank line of r. Lines starting with "//" are
// skipped. check, if non-nil, validates each record. Every bad line is
// reported, not just the first.
func Read[T any](r io.Reader, check func(T) error) ([]T, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var (
		out  []T
		errs util.MultiError
	)
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			errs.Add(fmt.Errorf("line %d: invalid JSON: %w", lineNum, err))
			continue
		}
		if check != nil {
			if err := check(rec); err != nil {
				errs.Add(fmt.Errorf("line %d: %w", lineNum, err))
				continue
			}
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w (is stdin empty?)", ErrEmptyInput)
	}
	return out, nil
}

// ReadEmployees reads employee records and rejects invalid or duplicate
// ones.
func ReadEmployees(r io.Reader) ([]model.Employee, error) {
	seen := make(map[int]bool)
	return Read(r, func(e model.Employee) error {
		if err := CheckEmployee(e); err != nil {
			return err
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate employee id %d", e.ID)
		}
		seen[e.ID] = true
		return nil
	})
}

// CheckEmployee validates the fields an imported employee must carry.
func CheckEmployee(e model.Employee) error {
	switch {
	case e.ID <= 0:
		return fmt.Errorf("employee id must be positive, got %d", e.ID)
	case strings.TrimSpace(e.Name) == "":
		return fmt.Errorf("employee %d: name is required", e.ID)
	case e.Productivity < 0 || e.Productivity > 100:
		return fmt.Errorf("employee %d: productivity %d outside 0..100", e.ID, e.Productivity)
	case !e.Status.Valid():
		return fmt.Errorf("employee %d: unknown status %q", e.ID, e.Status)
	}
	return nil
}

// Write encodes items as JSONL to w.
func Write[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}

// IsTTY returns true if stdout is a terminal (not a pipe).
func IsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// IsPiped returns true if stdin is a pipe or file rather than a terminal.
func IsPiped() bool {
	return !isatty.IsTerminal(os.Stdin.Fd())
}
