package genbash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest records what a script was generated from. It has no timestamps,
// so regenerating from the same inputs gives the same manifest.
type Manifest struct {
	Version   int            `yaml:"version"`
	Settings  FileMeta       `yaml:"settings"`
	Script    FileMeta       `yaml:"script"`
	Processes int            `yaml:"processes"`
	Fifos     int            `yaml:"fifos"`
	Jobs      map[string]int `yaml:"jobs"`
}

// FileMeta identifies a file by path and content hash.
type FileMeta struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// BuildManifest describes r, generated from the settings file at
// settingsPath and written to scriptPath.
func BuildManifest(r *Result, settingsPath, scriptPath string) (*Manifest, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", settingsPath, err)
	}
	return &Manifest{
		Version:   1,
		Settings:  FileMeta{Path: settingsPath, SHA256: digest(data)},
		Script:    FileMeta{Path: scriptPath, SHA256: digest([]byte(r.Script.String()))},
		Processes: r.Processes,
		Fifos:     len(r.Fifos),
		Jobs:      r.Jobs,
	}, nil
}

// ManifestPath is where the manifest for scriptPath is written.
func ManifestPath(scriptPath string) string {
	return scriptPath + ".manifest.yaml"
}

// WriteManifest marshals m as YAML to path.
func WriteManifest(path string, m *Manifest) error {
	out, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
