// Package rundir manages the directory a generated script runs in.
//
// Directory layout:
//
//	<run-dir>/
//	    analysis_settings.json   # what to compute
//	    ktgen.yaml               # optional run configuration
//	    run_ktools.sh            # generated script
//	    fifo/                    # named pipes, created by the script
//	    input/                   # model input files
//	    output/                  # result CSVs
//	    static/                  # static model data
//	    work/                    # kat and aggregation scratch space
package rundir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotRunDir is returned by Open for a directory missing part of the layout.
	ErrNotRunDir = errors.New("not a run directory")
	// ErrExists is returned by Init when the run directory already has content.
	ErrExists = errors.New("run directory already exists")
)

// Subdirs are the directories every run directory contains.
var Subdirs = []string{"fifo", "input", "output", "static", "work"}

// ConfigFile is the name of the optional run configuration file.
const ConfigFile = "ktgen.yaml"

// RunDir is an initialised run directory.
type RunDir struct {
	Dir string
}

// Init creates dir and its layout. It errors if dir exists and is not empty.
func Init(dir string) (*RunDir, error) {
	entries, err := os.ReadDir(dir)
	switch {
	case err == nil && len(entries) > 0:
		return nil, fmt.Errorf("%w: %s", ErrExists, dir)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read run dir: %w", err)
	}
	for _, sub := range Subdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create run dir: %w", err)
		}
	}
	return &RunDir{Dir: dir}, nil
}

// Open opens an existing run directory.
func Open(dir string) (*RunDir, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (run 'ktgen init %s' first)", ErrNotRunDir, dir, dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a file", ErrNotRunDir, dir)
	}
	r := &RunDir{Dir: dir}
	if missing := r.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s is missing %s", ErrNotRunDir, dir, strings.Join(missing, ", "))
	}
	return r, nil
}

// Missing returns the layout directories absent from r, in layout order.
func (r *RunDir) Missing() []string {
	var missing []string
	for _, sub := range Subdirs {
		info, err := os.Stat(filepath.Join(r.Dir, sub))
		if err != nil || !info.IsDir() {
			missing = append(missing, sub+"/")
		}
	}
	return missing
}

// Path resolves name against the run directory. Absolute names are
// returned unchanged.
func (r *RunDir) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.Dir, name)
}

// ConfigPath is the path of the run configuration file.
func (r *RunDir) ConfigPath() string {
	return r.Path(ConfigFile)
}

// Outputs returns the names of the result files in output/, sorted.
func (r *RunDir) Outputs() ([]string, error) {
	entries, err := os.ReadDir(r.Path("output"))
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".csv") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
