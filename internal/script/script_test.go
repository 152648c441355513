package script_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ktgen/internal/script"
)

func TestRenderPreservesOrder(t *testing.T) {
	s := script.New()
	s.Add("#!/bin/bash")
	s.Blank()
	s.Add("b", "a")
	s.Comment("Do things")
	s.Add("c")
	want := "#!/bin/bash\n\nb\na\n# --- Do things ---\nc\n"
	if got := s.String(); got != want {
		t.Errorf("String =\n%q\nwant\n%q", got, want)
	}
}

func TestBlankCollapses(t *testing.T) {
	s := script.New()
	s.Blank()
	s.Add("x")
	s.Blank()
	s.Blank()
	s.Add("y")
	s.Blank()
	lines := s.Lines()
	if len(lines) != 4 || lines[1] != "" || lines[3] != "" {
		t.Errorf("Lines = %q", lines)
	}
	if got := s.String(); got != "x\n\ny\n" {
		t.Errorf("String = %q", got)
	}
}

func TestEmpty(t *testing.T) {
	var s script.Script
	if s.String() != "" {
		t.Errorf("empty script rendered %q", s.String())
	}
}

func TestLinesIsACopy(t *testing.T) {
	s := script.New()
	s.Add("a")
	lines := s.Lines()
	lines[0] = "mutated"
	if s.Lines()[0] != "a" {
		t.Error("Lines exposed internal state")
	}
}

func TestWriteTo(t *testing.T) {
	s := script.New()
	s.Add("echo hi")
	var b strings.Builder
	n, err := s.WriteTo(&b)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if b.String() != "echo hi\n" || n != int64(len("echo hi\n")) {
		t.Errorf("WriteTo wrote %q (%d)", b.String(), n)
	}
}

func TestWriteFileIsExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sh")
	// Pre-existing non-executable file must become executable.
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := script.New()
	s.Add("#!/bin/bash", "true")
	if err := script.WriteFile(path, s); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("mode = %v, want owner-executable", info.Mode())
	}
	data, _ := os.ReadFile(path)
	if string(data) != "#!/bin/bash\ntrue\n" {
		t.Errorf("content = %q", data)
	}
}
