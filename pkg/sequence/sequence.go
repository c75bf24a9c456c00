// Package sequence turns resolved pitch groups into a timeline of note
// events with beat-relative start times and durations.
package sequence

import (
	"math/rand"
	"sort"
)

// BeatsPerTact is the measure length in beats (fixed 4/4 meter).
const BeatsPerTact = 4.0

// NoteEvent is a single note with beat-relative timing. Immutable once
// the timeline is built.
type NoteEvent struct {
	Key      uint8
	Velocity uint8
	Start    float64 // beats from timeline start
	Duration float64 // beats
}

// End returns the beat at which the note stops sounding.
func (e NoteEvent) End() float64 {
	return e.Start + e.Duration
}

// Timeline is an ordered set of note events plus the global metadata a
// consumer needs to render them.
type Timeline struct {
	Events  []NoteEvent
	Tempo   float64 // beats per minute
	Program uint8   // GM program number
}

// Empty reports whether there is anything to play or export.
func (tl Timeline) Empty() bool {
	return len(tl.Events) == 0
}

// Beats returns the total span of the timeline in beats.
func (tl Timeline) Beats() float64 {
	var end float64
	for _, e := range tl.Events {
		if e.End() > end {
			end = e.End()
		}
	}
	return end
}

// Mode selects how the notes of one pitch group are laid out in time.
type Mode int

const (
	// Chord plays all notes of a group together (block chord).
	Chord Mode = iota
	// ArpUp plays group notes ascending, one per substep.
	ArpUp
	// ArpDown plays group notes descending.
	ArpDown
	// ArpUpDown ascends then descends, skipping the repeated apex.
	ArpUpDown
	// ArpRandom shuffles group notes with the configured seed.
	ArpRandom
)

// Options configures one sequencing call. Velocity applies uniformly to
// every note of a step; arpeggio modes subdivide the step evenly across
// the group, with Swing stretching odd and shrinking even substeps.
type Options struct {
	NoteValue float64 // beats per step (quarter note = 1)
	Tacts     int     // number of 4-beat measures to fill
	Velocity  uint8
	Mode      Mode
	Swing     float64 // 0..1, arpeggio modes only
	Seed      int64   // drives ArpRandom ordering
}

// Sequence lays the pitch groups out step by step from beat 0, looping
// the group sequence until Tacts full measures are filled. The final
// step is truncated to the measure boundary, never dropped. Degenerate
// input yields an empty timeline.
func Sequence(groups [][]uint8, opts Options) Timeline {
	tl := Timeline{Tempo: 120}
	if len(groups) == 0 || opts.Tacts <= 0 || opts.NoteValue <= 0 {
		return tl
	}

	total := float64(opts.Tacts) * BeatsPerTact
	rng := rand.New(rand.NewSource(opts.Seed))

	start := 0.0
	for i := 0; start < total; i++ {
		group := groups[i%len(groups)]
		stepDur := opts.NoteValue
		if start+stepDur > total {
			stepDur = total - start
		}
		tl.Events = append(tl.Events, layoutStep(group, start, stepDur, opts, rng)...)
		start += opts.NoteValue
	}
	return tl
}

func layoutStep(group []uint8, start, dur float64, opts Options, rng *rand.Rand) []NoteEvent {
	if len(group) == 0 || dur <= 0 {
		return nil
	}

	if opts.Mode == Chord {
		events := make([]NoteEvent, 0, len(group))
		for _, key := range group {
			events = append(events, NoteEvent{
				Key:      key,
				Velocity: opts.Velocity,
				Start:    start,
				Duration: dur,
			})
		}
		return events
	}

	order := arpOrder(group, opts.Mode, rng)
	sub := dur / float64(len(order))
	events := make([]NoteEvent, 0, len(order))
	at := start
	for i, key := range order {
		d := sub
		if opts.Swing > 0 && len(order) > 1 {
			if i%2 == 0 {
				d = sub * (1 + opts.Swing)
			} else {
				d = sub * (1 - opts.Swing)
			}
		}
		if at+d > start+dur {
			d = start + dur - at
		}
		if d < 0 {
			d = 0
		}
		// Full swing collapses odd substeps to zero width; the notes
		// still emit so no pitch of the group is dropped.
		events = append(events, NoteEvent{
			Key:      key,
			Velocity: opts.Velocity,
			Start:    at,
			Duration: d,
		})
		at += d
	}
	return events
}

func arpOrder(group []uint8, mode Mode, rng *rand.Rand) []uint8 {
	asc := make([]uint8, len(group))
	copy(asc, group)
	sort.Slice(asc, func(i, j int) bool { return asc[i] < asc[j] })

	switch mode {
	case ArpDown:
		reverse(asc)
		return asc
	case ArpUpDown:
		if len(asc) < 2 {
			return asc
		}
		down := make([]uint8, len(asc)-1)
		for i := range down {
			down[i] = asc[len(asc)-2-i]
		}
		return append(asc, down...)
	case ArpRandom:
		rng.Shuffle(len(asc), func(i, j int) { asc[i], asc[j] = asc[j], asc[i] })
		return asc
	default:
		return asc
	}
}

func reverse(s []uint8) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// VelocityMode scales the configured volume the way the original tool's
// velocity selector did.
type VelocityMode string

const (
	VelocityLight   VelocityMode = "light"
	VelocityNormal  VelocityMode = "normal"
	VelocityStrong  VelocityMode = "strong"
	VelocityDynamic VelocityMode = "dynamic"
)

// Velocity derives a note velocity from a 1-127 volume. Dynamic draws
// between the light and strong levels using the given RNG so sequencing
// stays reproducible under a fixed seed.
func (m VelocityMode) Velocity(volume uint8, rng *rand.Rand) uint8 {
	clamp := func(v int) uint8 {
		if v < 1 {
			return 1
		}
		if v > 127 {
			return 127
		}
		return uint8(v)
	}
	switch m {
	case VelocityLight:
		return clamp(int(float64(volume) * 0.5))
	case VelocityStrong:
		return clamp(int(volume))
	case VelocityDynamic:
		lo := int(float64(volume) * 0.5)
		if lo < 1 {
			lo = 1
		}
		return clamp(lo + rng.Intn(int(volume)-lo+1))
	default:
		return clamp(int(float64(volume) * 0.75))
	}
}
