package storage

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// LineFile is a small line-oriented text file such as me.info or
// server.info
type LineFile struct {
	path string
}

// NewLineFile returns a LineFile for path. The file is not touched.
func NewLineFile(path string) *LineFile {
	return &LineFile{path: path}
}

// Path returns the file path
func (f *LineFile) Path() string {
	return f.path
}

// Exists reports whether the file exists
func (f *LineFile) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// ReadLines returns the lines of the file without line terminators
func (f *LineFile) ReadLines() ([]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	return lines, nil
}

// WriteLine appends one line, creating the file if needed
func (f *LineFile) WriteLine(line string) error {
	return f.WriteLines([]string{line})
}

// WriteLines appends lines in a single write, creating the file if needed
func (f *LineFile) WriteLines(lines []string) error {
	if strings.ContainsAny(strings.Join(lines, ""), "\r\n") {
		return errors.New("line contains a line terminator")
	}

	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.path, err)
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if _, err := file.WriteString(b.String()); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}

	return file.Close()
}
