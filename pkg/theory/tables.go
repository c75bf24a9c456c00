// Package theory holds the static chord, scale and progression tables
// and resolves them into concrete MIDI pitches.
package theory

import "sort"

// Formula is an ordered set of semitone offsets from a root note.
type Formula []int

// Chord formulas keyed by suffix name. Loaded once, read-only.
var chordFormulas = map[string]Formula{
	"5":       {0, 7},
	"maj":     {0, 4, 7},
	"min":     {0, 3, 7},
	"dim":     {0, 3, 6},
	"aug":     {0, 4, 8},
	"sus2":    {0, 2, 7},
	"sus4":    {0, 5, 7},
	"6":       {0, 4, 7, 9},
	"min6":    {0, 3, 7, 9},
	"7":       {0, 4, 7, 10},
	"maj7":    {0, 4, 7, 11},
	"min7":    {0, 3, 7, 10},
	"dim7":    {0, 3, 6, 9},
	"m7b5":    {0, 3, 6, 10},
	"add9":    {0, 4, 7, 14},
	"minAdd9": {0, 3, 7, 14},
	"9":       {0, 4, 7, 10, 14},
	"maj9":    {0, 4, 7, 11, 14},
	"min9":    {0, 3, 7, 10, 14},
	"11":      {0, 4, 7, 10, 14, 17},
	"13":      {0, 4, 7, 10, 14, 17, 21},
}

// Scale formulas share the Formula representation with chords.
var scaleFormulas = map[string]Formula{
	"major":           {0, 2, 4, 5, 7, 9, 11},
	"naturalMinor":    {0, 2, 3, 5, 7, 8, 10},
	"harmonicMinor":   {0, 2, 3, 5, 7, 8, 11},
	"melodicMinor":    {0, 2, 3, 5, 7, 9, 11},
	"majorPentatonic": {0, 2, 4, 7, 9},
	"minorPentatonic": {0, 3, 5, 7, 10},
	"blues":           {0, 3, 5, 6, 7, 10},
	"dorian":          {0, 2, 3, 5, 7, 9, 10},
	"phrygian":        {0, 1, 3, 5, 7, 8, 10},
	"lydian":          {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":      {0, 2, 4, 5, 7, 9, 10},
	"locrian":         {0, 1, 3, 5, 6, 8, 10},
}

// Named progressions as Roman-numeral step sequences.
var progressions = map[string][]string{
	"I-IV-V":          {"I", "IV", "V"},
	"I-V-vi-IV":       {"I", "V", "vi", "IV"},
	"ii-V-I":          {"ii", "V", "I"},
	"I-vi-IV-V":       {"I", "vi", "IV", "V"},
	"vi-IV-I-V":       {"vi", "IV", "I", "V"},
	"I-bVII-IV":       {"I", "bVII", "IV"},
	"i-bVI-bIII-bVII": {"i", "bVI", "bIII", "bVII"},
	"12-bar-blues":    {"I", "I", "I", "I", "IV", "IV", "I", "I", "V", "IV", "I", "V"},
}

// Instruments maps display names to General MIDI program numbers.
var instruments = map[string]uint8{
	"Acoustic Piano":  0,
	"Acoustic Grand":  1,
	"Bright Acoustic": 2,
	"Electric Grand":  3,
	"Electric Piano":  4,
	"Honky Tonk":      5,
	"Hammond Organ":   19,
	"Acoustic Guitar": 24,
	"Electric Guitar": 27,
	"Bass":            32,
	"Violin":          40,
	"Cello":           42,
	"Trumpet":         56,
	"Sax":             64,
	"Organ":           100,
}

// Chord returns the formula for a chord suffix.
func Chord(id string) (Formula, bool) {
	f, ok := chordFormulas[id]
	return f, ok
}

// Scale returns the formula for a scale name.
func Scale(id string) (Formula, bool) {
	f, ok := scaleFormulas[id]
	return f, ok
}

// Progression returns the Roman-numeral steps of a named progression.
func Progression(id string) ([]string, bool) {
	p, ok := progressions[id]
	return p, ok
}

// Instrument returns the GM program number for an instrument name.
func Instrument(name string) (uint8, bool) {
	p, ok := instruments[name]
	return p, ok
}

// ChordNames lists all chord suffixes, sorted.
func ChordNames() []string { return sortedKeys(chordFormulas) }

// ScaleNames lists all scale names, sorted.
func ScaleNames() []string { return sortedKeys(scaleFormulas) }

// ProgressionNames lists all named progressions, sorted.
func ProgressionNames() []string {
	names := make([]string, 0, len(progressions))
	for name := range progressions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InstrumentNames lists all instrument names, sorted by program number.
func InstrumentNames() []string {
	names := make([]string, 0, len(instruments))
	for name := range instruments {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if instruments[names[i]] != instruments[names[j]] {
			return instruments[names[i]] < instruments[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// ChordsBySize groups chord suffixes by note count, matching how the
// original tool presents them (pick a size, then a type).
func ChordsBySize() map[int][]string {
	res := make(map[int][]string)
	for name, f := range chordFormulas {
		res[len(f)] = append(res[len(f)], name)
	}
	for size := range res {
		sort.Strings(res[size])
	}
	return res
}

func sortedKeys(m map[string]Formula) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
