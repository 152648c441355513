// Package settings loads the analysis-settings document that drives script
// generation.
//
// The document is accepted as JSON (the format model runners ship), YAML or
// TOML, chosen by file extension. Missing keys disable the feature they
// control rather than raising an error: no gul_summaries means no gul
// consumer stages, a summary without leccalc options never runs leccalc.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	// ErrDuplicateSummary is returned when two summaries of one run type share an id.
	ErrDuplicateSummary = errors.New("duplicate summary id")
	// ErrInvalidSummaryID is returned for a negative summary id.
	ErrInvalidSummaryID = errors.New("invalid summary id")
)

// RunType is one of the two loss tracks.
type RunType string

const (
	GUL RunType = "gul"
	IL  RunType = "il"
)

// RunTypes lists the run types in planning order.
var RunTypes = []RunType{GUL, IL}

// AnalysisSettings is the normalized analysis-settings document.
type AnalysisSettings struct {
	GULOutput       bool          `yaml:"gul_output" json:"gul_output" toml:"gul_output"`
	ILOutput        bool          `yaml:"il_output" json:"il_output" toml:"il_output"`
	GULThreshold    float64       `yaml:"gul_threshold" json:"gul_threshold" toml:"gul_threshold"`
	NumberOfSamples int           `yaml:"number_of_samples" json:"number_of_samples" toml:"number_of_samples"`
	ModelSettings   ModelSettings `yaml:"model_settings,omitempty" json:"model_settings,omitempty" toml:"model_settings,omitempty"`
	GULSummaries    []SummarySpec `yaml:"gul_summaries,omitempty" json:"gul_summaries,omitempty" toml:"gul_summaries,omitempty"`
	ILSummaries     []SummarySpec `yaml:"il_summaries,omitempty" json:"il_summaries,omitempty" toml:"il_summaries,omitempty"`
}

// ModelSettings holds model-specific switches.
type ModelSettings struct {
	UseRandomNumberFile bool `yaml:"use_random_number_file,omitempty" json:"use_random_number_file,omitempty" toml:"use_random_number_file,omitempty"`
}

// SummarySpec selects the outputs computed for one summary set.
type SummarySpec struct {
	ID          int      `yaml:"id" json:"id" toml:"id"`
	Eltcalc     bool     `yaml:"eltcalc,omitempty" json:"eltcalc,omitempty" toml:"eltcalc,omitempty"`
	Pltcalc     bool     `yaml:"pltcalc,omitempty" json:"pltcalc,omitempty" toml:"pltcalc,omitempty"`
	Summarycalc bool     `yaml:"summarycalc,omitempty" json:"summarycalc,omitempty" toml:"summarycalc,omitempty"`
	Aalcalc     bool     `yaml:"aalcalc,omitempty" json:"aalcalc,omitempty" toml:"aalcalc,omitempty"`
	LECOutput   bool     `yaml:"lec_output,omitempty" json:"lec_output,omitempty" toml:"lec_output,omitempty"`
	Leccalc     *LecSpec `yaml:"leccalc,omitempty" json:"leccalc,omitempty" toml:"leccalc,omitempty"`
}

// LecSpec configures loss-exceedance-curve outputs for a summary.
type LecSpec struct {
	ReturnPeriodFile bool            `yaml:"return_period_file" json:"return_period_file" toml:"return_period_file"`
	Outputs          map[string]bool `yaml:"outputs" json:"outputs" toml:"outputs"`
}

// Enabled reports whether at least one known output is switched on.
// Safe to call on a nil *LecSpec.
func (l *LecSpec) Enabled() bool {
	if l == nil {
		return false
	}
	for _, opt := range LECOptions {
		if l.Outputs[opt.Name] {
			return true
		}
	}
	return false
}

// Selected returns the enabled options in table order.
func (l *LecSpec) Selected() []LECOption {
	if l == nil {
		return nil
	}
	var out []LECOption
	for _, opt := range LECOptions {
		if l.Outputs[opt.Name] {
			out = append(out, opt)
		}
	}
	return out
}

// LECEnabled reports whether leccalc runs for this summary: lec_output is
// set and the leccalc block enables at least one output.
func (s SummarySpec) LECEnabled() bool {
	return s.LECOutput && s.Leccalc.Enabled()
}

// Wants reports whether the consumer o is enabled for this summary.
func (s SummarySpec) Wants(o Output) bool {
	switch o {
	case Eltcalc:
		return s.Eltcalc
	case Pltcalc:
		return s.Pltcalc
	case Summarycalc:
		return s.Summarycalc
	case Aalcalc:
		return s.Aalcalc
	}
	return false
}

// Active reports whether anything reads this summary's stream. Inactive
// summaries are not planned at all.
func (s SummarySpec) Active() bool {
	for _, o := range Consumers {
		if s.Wants(o) {
			return true
		}
	}
	return s.LECEnabled()
}

// Enabled reports whether output was requested for rt.
func (a *AnalysisSettings) Enabled(rt RunType) bool {
	if a == nil {
		return false
	}
	switch rt {
	case GUL:
		return a.GULOutput
	case IL:
		return a.ILOutput
	}
	return false
}

// Summaries returns the summaries configured for rt in document order.
func (a *AnalysisSettings) Summaries(rt RunType) []SummarySpec {
	if a == nil {
		return nil
	}
	switch rt {
	case GUL:
		return a.GULSummaries
	case IL:
		return a.ILSummaries
	}
	return nil
}

// ActiveSummaries returns the summaries of rt that feed at least one output.
func (a *AnalysisSettings) ActiveSummaries(rt RunType) []SummarySpec {
	var out []SummarySpec
	for _, s := range a.Summaries(rt) {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out
}

// UseRandomNumberFile reports whether gulcalc should read the random number file.
func (a *AnalysisSettings) UseRandomNumberFile() bool {
	return a != nil && a.ModelSettings.UseRandomNumberFile
}

// Format identifies a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the document format from a file extension. Unknown
// extensions are read as YAML, which also accepts most JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	}
	return FormatYAML
}

// Load reads and normalizes the analysis-settings document at path.
func Load(path string) (*AnalysisSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// envelope matches documents that nest the settings under "analysis_settings".
type envelope struct {
	AnalysisSettings *AnalysisSettings `yaml:"analysis_settings" json:"analysis_settings" toml:"analysis_settings"`
}

// Parse decodes data in the given format and normalizes the result.
func Parse(data []byte, format Format) (*AnalysisSettings, error) {
	var env envelope
	if err := decode(data, format, &env); err != nil {
		return nil, err
	}
	s := env.AnalysisSettings
	if s == nil {
		s = &AnalysisSettings{}
		if err := decode(data, format, s); err != nil {
			return nil, err
		}
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(data []byte, format Format, v any) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("unmarshal json: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("unmarshal toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("unmarshal yaml: %w", err)
		}
	}
	return nil
}

// normalize drops summaries without an id and rejects negative or repeated ids.
func (a *AnalysisSettings) normalize() error {
	var err error
	if a.GULSummaries, err = normalizeSummaries(GUL, a.GULSummaries); err != nil {
		return err
	}
	if a.ILSummaries, err = normalizeSummaries(IL, a.ILSummaries); err != nil {
		return err
	}
	return nil
}

func normalizeSummaries(rt RunType, in []SummarySpec) ([]SummarySpec, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]SummarySpec, 0, len(in))
	seen := make(map[int]bool, len(in))
	for _, s := range in {
		switch {
		case s.ID == 0:
			continue
		case s.ID < 0:
			return nil, fmt.Errorf("%s_summaries: id %d: %w", rt, s.ID, ErrInvalidSummaryID)
		case seen[s.ID]:
			return nil, fmt.Errorf("%s_summaries: id %d: %w", rt, s.ID, ErrDuplicateSummary)
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out, nil
}

// Marshal encodes the settings as YAML.
func Marshal(a *AnalysisSettings) ([]byte, error) {
	data, err := yaml.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return data, nil
}
