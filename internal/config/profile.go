package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matsen/adsbib/internal/journal"
	"github.com/matsen/adsbib/internal/source"
)

// ProfileFile is the per-directory watch profile.
const ProfileFile = "adsbib.yml"

// Defaults for every profile field.
const (
	DefaultOutput       = "references.bib"
	DefaultSort         = "date asc"
	DefaultFormat       = "bibtex"
	DefaultJournal      = "ads"
	DefaultInterval     = 5 * time.Second
	DefaultIterations   = 500
	DefaultInfoInterval = 20
	DefaultRawFormat    = "%R  # %3h_%Y_%q_%V_%p %T"
)

// ErrInvalid is returned for profile values that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Duration is a time.Duration that unmarshals from a Go duration string
// ("5s", "1m30s") or a plain number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if secs, err := strconv.ParseFloat(node.Value, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, node.Value)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Profile holds every option of a watch or sync run.
type Profile struct {
	// Collection is an ADS library id, a bibcode list path or a .tex path.
	Collection     string   `yaml:"collection,omitempty"`
	Source         string   `yaml:"source,omitempty"`
	AdditionalFile string   `yaml:"additional_file,omitempty"`
	Output         string   `yaml:"output,omitempty"`
	RawFile        string   `yaml:"raw_file,omitempty"`
	RawFormat      string   `yaml:"raw_format,omitempty"`
	Sort           string   `yaml:"sort,omitempty"`
	Format         string   `yaml:"format,omitempty"`
	Journal        string   `yaml:"journal,omitempty"`
	Interval       Duration `yaml:"interval,omitempty"`
	// Iterations of zero means no limit.
	Iterations   int    `yaml:"iterations"`
	InfoInterval int    `yaml:"info_interval"`
	AddAsIs      bool   `yaml:"add_as_is"`
	History      string `yaml:"history,omitempty"`
}

// DefaultProfile returns a profile with every default applied.
func DefaultProfile() Profile {
	return Profile{
		Source:       string(source.KindAuto),
		Output:       DefaultOutput,
		RawFormat:    DefaultRawFormat,
		Sort:         DefaultSort,
		Format:       DefaultFormat,
		Journal:      DefaultJournal,
		Interval:     Duration(DefaultInterval),
		Iterations:   DefaultIterations,
		InfoInterval: DefaultInfoInterval,
	}
}

// LoadProfile reads a profile file over the defaults. A missing file
// yields the defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: parsing %s: %v", ErrInvalid, path, err)
	}
	return p, nil
}

// Validate checks the profile and returns the parsed journal convention.
func (p Profile) Validate() (journal.Convention, error) {
	if strings.TrimSpace(p.Collection) == "" {
		return "", fmt.Errorf("%w: no collection given (library id, bibcode file or .tex file)", ErrInvalid)
	}
	if _, err := source.ParseKind(p.Source); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	conv, err := journal.ParseConvention(p.Journal)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if strings.TrimSpace(p.Format) == "" {
		return "", fmt.Errorf("%w: format must not be empty", ErrInvalid)
	}
	if p.Output == "" {
		return "", fmt.Errorf("%w: output must not be empty", ErrInvalid)
	}
	if p.RawFile != "" && p.RawFile == p.Output {
		return "", fmt.Errorf("%w: raw_file and output are the same file", ErrInvalid)
	}
	if p.Interval <= 0 {
		return "", fmt.Errorf("%w: interval must be positive, got %s", ErrInvalid, time.Duration(p.Interval))
	}
	if p.Iterations < 0 {
		return "", fmt.Errorf("%w: iterations must not be negative, got %d", ErrInvalid, p.Iterations)
	}
	if p.InfoInterval < 0 {
		return "", fmt.Errorf("%w: info_interval must not be negative, got %d", ErrInvalid, p.InfoInterval)
	}
	return conv, nil
}
