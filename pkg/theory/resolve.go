package theory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownFormula is returned when a chord or scale id is not in the tables.
	ErrUnknownFormula = errors.New("unknown chord or scale")
	// ErrUnknownProgression is returned when a progression id is not in the tables.
	ErrUnknownProgression = errors.New("unknown progression")
)

// StepKind discriminates the two ways a progression step can shift the root.
type StepKind int

const (
	// ScaleDegree steps are Roman numerals resolved against the major scale.
	ScaleDegree StepKind = iota
	// FixedInterval steps are literal semitone offsets like "+3" or "-2".
	FixedInterval
)

// Step is one entry of a progression: how the next chord root relates
// to the key root.
type Step struct {
	Kind      StepKind
	Label     string
	semitones int
}

// Offset returns the step's root shift in semitones, normalized to 0-11.
func (s Step) Offset() int {
	return ((s.semitones % 12) + 12) % 12
}

// Major-scale degree offsets for Roman numerals.
var degreeOffsets = map[string]int{
	"I": 0, "II": 2, "III": 4, "IV": 5, "V": 7, "VI": 9, "VII": 11,
}

// ParseStep parses one progression step. Roman numerals may carry a
// single b/# (or ♭/♯) accidental prefix; case is ignored, so "ii" and
// "II" shift the same amount. Signed integers are fixed-interval steps.
func ParseStep(raw string) (Step, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return Step{}, fmt.Errorf("empty progression step")
	}

	if n, err := strconv.Atoi(token); err == nil {
		return Step{Kind: FixedInterval, Label: token, semitones: n}, nil
	}

	r := strings.ReplaceAll(token, "♭", "b")
	r = strings.ReplaceAll(r, "♯", "#")
	accidental := 0
	switch {
	case strings.HasPrefix(r, "b"):
		accidental = -1
		r = r[1:]
	case strings.HasPrefix(r, "#"):
		accidental = 1
		r = r[1:]
	}
	offset, ok := degreeOffsets[strings.ToUpper(r)]
	if !ok {
		return Step{}, fmt.Errorf("invalid Roman numeral %q", raw)
	}
	return Step{Kind: ScaleDegree, Label: token, semitones: offset + accidental}, nil
}

// ParseSteps parses a dash-, space- or comma-separated inline
// progression such as "I-IV-V" or "ii V I". A dash at the start of a
// token followed by a digit reads as a negative fixed interval, so
// "I--2-V" steps down two semitones in the middle.
func ParseSteps(s string) ([]Step, error) {
	fields := splitSteps(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty progression")
	}
	steps := make([]Step, 0, len(fields))
	for _, f := range fields {
		step, err := ParseStep(f)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// splitSteps tokenizes an inline progression. Spaces and commas always
// separate; a dash separates unless it opens a token and precedes a
// digit, where it is the sign of a fixed interval.
func splitSteps(s string) []string {
	var fields []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == ' ' || r == ',':
			flush()
		case r == '-':
			if cur.Len() == 0 && i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9' {
				cur.WriteRune(r)
			} else {
				flush()
			}
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return fields
}

// ChordVoicing is the simultaneous pitch set for one progression step.
type ChordVoicing struct {
	Step    string
	Pitches []Pitch
}

// Resolve expands (root, chord/scale id, progression id, octave) into
// ordered pitch groups, one per progression step. An empty progression
// id yields a single group at the key root. The octave shifts the base
// away from middle C in whole octaves.
func Resolve(root PitchClass, formulaID, progressionID string, octave int) ([]ChordVoicing, error) {
	formula, ok := Chord(formulaID)
	if !ok {
		formula, ok = Scale(formulaID)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormula, formulaID)
	}

	steps := []Step{{Kind: FixedInterval, Label: "0"}}
	if progressionID != "" {
		numerals, ok := Progression(progressionID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProgression, progressionID)
		}
		steps = steps[:0]
		for _, numeral := range numerals {
			step, err := ParseStep(numeral)
			if err != nil {
				return nil, fmt.Errorf("progression %q: %w", progressionID, err)
			}
			steps = append(steps, step)
		}
	}

	return voicings(root, formula, steps, octave), nil
}

// ResolveSteps is Resolve for an already-parsed step sequence, used by
// callers that accept inline numerals instead of a table id.
func ResolveSteps(root PitchClass, formulaID string, steps []Step, octave int) ([]ChordVoicing, error) {
	formula, ok := Chord(formulaID)
	if !ok {
		formula, ok = Scale(formulaID)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormula, formulaID)
	}
	if len(steps) == 0 {
		steps = []Step{{Kind: FixedInterval, Label: "0"}}
	}
	return voicings(root, formula, steps, octave), nil
}

func voicings(root PitchClass, formula Formula, steps []Step, octave int) []ChordVoicing {
	groups := make([]ChordVoicing, 0, len(steps))
	for _, step := range steps {
		base := MiddleC + int(root) + octave*12 + step.Offset()
		group := ChordVoicing{Step: step.Label, Pitches: make([]Pitch, 0, len(formula))}
		for _, interval := range formula {
			if p, ok := fitPitch(base + interval); ok {
				group.Pitches = append(group.Pitches, p)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// fitPitch keeps a note inside the MIDI range by moving it one octave
// back toward range; notes still outside after that are dropped.
func fitPitch(n int) (Pitch, bool) {
	if n > 127 {
		n -= 12
	} else if n < 0 {
		n += 12
	}
	if n < 0 || n > 127 {
		return 0, false
	}
	return Pitch(n), true
}
