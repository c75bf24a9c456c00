// Package config is the validated parameter surface shared by the CLI,
// API and TUI front-ends.
package config

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeremylesniewski/Bearmony/pkg/sequence"
	"github.com/jeremylesniewski/Bearmony/pkg/theory"
)

// ConfigError reports an invalid or out-of-range parameter. Values are
// never silently clamped at this layer.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func errf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Config mirrors the original tool's control surface.
type Config struct {
	Root         string  `yaml:"root"`
	ChordID      string  `yaml:"chord"`
	Progression  string  `yaml:"progression"`
	Mode         string  `yaml:"mode"`
	NoteValue    int     `yaml:"note_value"` // denominator: 1, 2, 4, 8 or 16
	Instrument   string  `yaml:"instrument"`
	Octave       int     `yaml:"octave"`
	Volume       int     `yaml:"volume"`
	VelocityMode string  `yaml:"velocity_mode"`
	Swing        float64 `yaml:"swing"`
	ReverbRoom   float64 `yaml:"reverb_room"`
	ReverbDamp   float64 `yaml:"reverb_damp"`
	ReverbLevel  float64 `yaml:"reverb_level"`
	Tempo        float64 `yaml:"tempo"`
	Tacts        int     `yaml:"tacts"`
	Loop         bool    `yaml:"loop"`
	Seed         int64   `yaml:"seed"`
}

// Default returns the original tool's startup settings.
func Default() Config {
	return Config{
		Root:         "C",
		ChordID:      "maj",
		Mode:         "chord",
		NoteValue:    4,
		Instrument:   "Acoustic Piano",
		Octave:       0,
		Volume:       100,
		VelocityMode: "normal",
		ReverbRoom:   0.5,
		ReverbDamp:   0.5,
		ReverbLevel:  0.5,
		Tempo:        120,
		Tacts:        4,
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

var validNoteValues = map[int]bool{1: true, 2: true, 4: true, 8: true, 16: true}

// Validate checks every field against its allowed range.
func (c Config) Validate() error {
	if _, err := theory.ParseNote(c.Root); err != nil {
		return errf("root", "%v", err)
	}
	if _, ok := theory.Chord(c.ChordID); !ok {
		if _, ok := theory.Scale(c.ChordID); !ok {
			return errf("chord", "unknown chord or scale %q", c.ChordID)
		}
	}
	if c.Progression != "" {
		if _, ok := theory.Progression(c.Progression); !ok {
			if _, err := theory.ParseSteps(c.Progression); err != nil {
				return errf("progression", "%q is neither a named progression nor inline numerals", c.Progression)
			}
		}
	}
	if _, err := sequence.ParseMode(c.Mode); err != nil {
		return errf("mode", "%v", err)
	}
	if !validNoteValues[c.NoteValue] {
		return errf("note_value", "%d not one of 1, 2, 4, 8, 16", c.NoteValue)
	}
	if _, ok := theory.Instrument(c.Instrument); !ok {
		return errf("instrument", "unknown instrument %q", c.Instrument)
	}
	if c.Octave < -4 || c.Octave > 4 {
		return errf("octave", "%d outside -4..4", c.Octave)
	}
	if c.Volume < 1 || c.Volume > 127 {
		return errf("volume", "%d outside 1..127", c.Volume)
	}
	if _, err := sequence.ParseVelocityMode(c.VelocityMode); err != nil {
		return errf("velocity_mode", "%v", err)
	}
	if c.Swing < 0 || c.Swing > 1 || math.IsNaN(c.Swing) {
		return errf("swing", "%v outside 0..1", c.Swing)
	}
	for field, v := range map[string]float64{
		"reverb_room":  c.ReverbRoom,
		"reverb_damp":  c.ReverbDamp,
		"reverb_level": c.ReverbLevel,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return errf(field, "%v outside 0..1", v)
		}
	}
	if c.Tempo < 20 || c.Tempo > 300 {
		return errf("tempo", "%v outside 20..300", c.Tempo)
	}
	if c.Tacts < 1 || c.Tacts > 64 {
		return errf("tacts", "%d outside 1..64", c.Tacts)
	}
	return nil
}

// Timeline resolves and sequences the configured chord or progression.
// withProgression selects between the single-chord and progression
// renderings of the same parameters. Validate must have passed.
func (c Config) Timeline(withProgression bool) (sequence.Timeline, error) {
	root, err := theory.ParseNote(c.Root)
	if err != nil {
		return sequence.Timeline{}, err
	}

	var groups []theory.ChordVoicing
	if withProgression && c.Progression != "" {
		if _, ok := theory.Progression(c.Progression); ok {
			groups, err = theory.Resolve(root, c.ChordID, c.Progression, c.Octave)
		} else {
			var steps []theory.Step
			steps, err = theory.ParseSteps(c.Progression)
			if err == nil {
				groups, err = theory.ResolveSteps(root, c.ChordID, steps, c.Octave)
			}
		}
	} else {
		groups, err = theory.Resolve(root, c.ChordID, "", c.Octave)
	}
	if err != nil {
		return sequence.Timeline{}, err
	}

	keys := make([][]uint8, len(groups))
	for i, g := range groups {
		ks := make([]uint8, len(g.Pitches))
		for j, p := range g.Pitches {
			ks[j] = uint8(p)
		}
		keys[i] = ks
	}

	mode, _ := sequence.ParseMode(c.Mode)
	velMode, _ := sequence.ParseVelocityMode(c.VelocityMode)
	program, _ := theory.Instrument(c.Instrument)

	tl := sequence.Sequence(keys, sequence.Options{
		NoteValue: 4.0 / float64(c.NoteValue),
		Tacts:     c.Tacts,
		Velocity:  velMode.Velocity(uint8(c.Volume), newRNG(c.Seed)),
		Mode:      mode,
		Swing:     c.Swing,
		Seed:      c.Seed,
	})
	tl.Tempo = c.Tempo
	tl.Program = program
	return tl, nil
}

func newRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
