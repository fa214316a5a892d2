package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-logfmt/logfmt"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns the whole file.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one logfmt line split into its well-known keys.
type Entry struct {
	Time    string
	Level   string
	Message string
	Fields  []Field
}

// Field is a key/value pair other than time, level and msg.
type Field struct {
	Key   string
	Value string
}

// Get returns the value of the named field.
func (e Entry) Get(key string) (string, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Parse decodes a logfmt line. ok is false when the line has no key=value
// pairs, such as a stack trace continuation. Bare words and empty values
// are skipped.
func Parse(line string) (Entry, bool) {
	var e Entry
	found := false
	dec := logfmt.NewDecoder(strings.NewReader(line))
	for dec.ScanRecord() {
		for dec.ScanKeyval() {
			raw := dec.Value()
			if raw == nil {
				continue
			}
			found = true
			key, value := string(dec.Key()), string(raw)

			switch key {
			case "time", "ts":
				e.Time = value
			case "level", "lvl":
				e.Level = strings.ToLower(value)
			case "msg", "message":
				e.Message = value
			default:
				e.Fields = append(e.Fields, Field{Key: key, Value: value})
			}
		}
	}
	if dec.Err() != nil && !found {
		return Entry{}, false
	}
	return e, found
}

var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
	"fatal": 4,
}

// AtLeast keeps the lines whose level is at or above min. Lines that do not
// parse, or carry an unknown level, are kept.
func AtLeast(lines []string, min string) []string {
	floor, ok := levelRank[strings.ToLower(strings.TrimSpace(min))]
	if !ok {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		entry, parsed := Parse(line)
		rank, known := levelRank[entry.Level]
		if !parsed || !known || rank >= floor {
			out = append(out, line)
		}
	}
	return out
}
