package genbash

import (
	"ktgen/internal/script"
	"ktgen/internal/settings"
)

// Write generates the script for s and n and writes it, executable, to path.
func Write(path string, s *settings.AnalysisSettings, n int, opts ...Option) (*Result, error) {
	r, err := Generate(s, n, opts...)
	if err != nil {
		return nil, err
	}
	if err := script.WriteFile(path, r.Script); err != nil {
		return nil, err
	}
	return r, nil
}
