// Package script accumulates shell commands and renders them as one
// executable script, line for line in the order they were added.
package script

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Script is an ordered list of shell lines. The zero value is empty and
// ready to use.
type Script struct {
	lines []string
}

// New returns an empty script.
func New() *Script {
	return &Script{}
}

// Add appends commands in order.
func (s *Script) Add(cmds ...string) {
	s.lines = append(s.lines, cmds...)
}

// Blank appends an empty line unless the script is empty or already ends
// with one.
func (s *Script) Blank() {
	if len(s.lines) == 0 || s.lines[len(s.lines)-1] == "" {
		return
	}
	s.lines = append(s.lines, "")
}

// Comment appends a section banner: "# --- text ---".
func (s *Script) Comment(text string) {
	s.lines = append(s.lines, fmt.Sprintf("# --- %s ---", text))
}

// Lines returns a copy of the script's lines.
func (s *Script) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// String renders the script with trailing blank lines dropped and a final newline.
func (s *Script) String() string {
	lines := s.lines
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteTo writes the rendered script to w.
func (s *Script) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// WriteFile writes the rendered script to path with executable permissions.
func WriteFile(path string, s *Script) error {
	if err := os.WriteFile(path, []byte(s.String()), 0o755); err != nil {
		return fmt.Errorf("write script %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o755); err != nil {
		return fmt.Errorf("chmod script %s: %w", path, err)
	}
	return nil
}
