// Package midifile serializes timelines into standard MIDI files.
// Output is fully deterministic: the same timeline always produces
// byte-identical files.
package midifile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jeremylesniewski/Bearmony/pkg/sequence"
)

// TicksPerQuarter is the fixed pulses-per-quarter-note resolution.
const TicksPerQuarter = 480

// wireEvent is one serialized emission at an absolute tick.
type wireEvent struct {
	tick uint32
	on   bool
	key  uint8
	vel  uint8
}

// Encode renders the timeline as standard MIDI file bytes: a tempo
// meta event and 4/4 time signature at tick 0, a program change, then
// all note on/off pairs merged into one ascending delta-time stream.
func Encode(tl sequence.Timeline) ([]byte, error) {
	tempo := tl.Tempo
	if tempo <= 0 {
		tempo = 120
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var track smf.Track

	// Tempo meta event (FF 51 03), built byte-for-byte so the output
	// does not depend on float formatting.
	microsPerBeat := uint32(60000000.0 / tempo)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsPerBeat >> 16),
		byte(microsPerBeat >> 8),
		byte(microsPerBeat),
	}))

	// 4/4 time signature.
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	if !tl.Empty() {
		track.Add(0, midi.ProgramChange(0, tl.Program))

		events := merge(tl.Events)
		var lastTick uint32
		for _, ev := range events {
			delta := ev.tick - lastTick
			if ev.on {
				track.Add(delta, midi.NoteOn(0, ev.key, ev.vel))
			} else {
				track.Add(delta, midi.NoteOff(0, ev.key))
			}
			lastTick = ev.tick
		}
	}

	track.Close(0)
	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// Export writes the timeline to path as a .mid file. The bytes land in
// a temporary file in the destination directory first and are renamed
// into place on success, so a failed export never leaves a partial
// file behind.
func Export(tl sequence.Timeline, path string) error {
	data, err := Encode(tl)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalize export file: %w", err)
	}
	return nil
}

// beatTicks converts a beat offset to ticks at the fixed resolution.
func beatTicks(beats float64) uint32 {
	return uint32(beats*TicksPerQuarter + 0.5)
}

// merge flattens the note events into one ascending tick stream. Ties
// at equal ticks are broken the same way every time (offs before ons,
// then by key), which both satisfies the format's non-negative delta
// requirement and keeps the output reproducible.
func merge(events []sequence.NoteEvent) []wireEvent {
	out := make([]wireEvent, 0, len(events)*2)
	for _, e := range events {
		out = append(out,
			wireEvent{tick: beatTicks(e.Start), on: true, key: e.Key, vel: e.Velocity},
			wireEvent{tick: beatTicks(e.End()), on: false, key: e.Key},
		)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].tick != out[j].tick {
			return out[i].tick < out[j].tick
		}
		if out[i].on != out[j].on {
			return !out[i].on
		}
		return out[i].key < out[j].key
	})
	return out
}
