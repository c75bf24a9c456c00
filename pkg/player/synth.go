// Package player drives a synthesizer sink from a timeline in real
// time, with cancellable scheduling and guaranteed note-off flushing.
package player

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Synthesizer is the event sink the scheduler emits into. The core
// never looks behind it; a MIDI port, a software synth or a test fake
// all satisfy it the same way.
type Synthesizer interface {
	NoteOn(channel, key, velocity uint8) error
	NoteOff(channel, key uint8) error
	ProgramChange(channel, program uint8) error
	ControlChange(channel, controller, value uint8) error
}

// SoundFontLoader is implemented by sinks that render through a
// soundfont. Port-backed sinks leave sample loading to the device.
type SoundFontLoader interface {
	LoadSoundFont(path string) error
}

// LoadSoundFont loads a soundfont into the sink if it supports one.
func LoadSoundFont(s Synthesizer, path string) error {
	loader, ok := s.(SoundFontLoader)
	if !ok {
		return fmt.Errorf("output does not support soundfonts")
	}
	return loader.LoadSoundFont(path)
}

// Controller numbers used for the effect surface.
const (
	ccReverbSend  = 91
	ccReverbDamp  = 71
	ccReverbLevel = 93
)

// PortSynth adapts a gomidi output port to the Synthesizer interface.
type PortSynth struct {
	send func(midi.Message) error
	out  drivers.Out
}

// NewPortSynth opens the given output port for sending.
func NewPortSynth(out drivers.Out) (*PortSynth, error) {
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open MIDI out %q: %w", out.String(), err)
	}
	return &PortSynth{send: send, out: out}, nil
}

// OutPorts lists the names of the available MIDI output ports.
func OutPorts() []string {
	outs := midi.GetOutPorts()
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names
}

// FindOutPort opens the output port at the given index.
func FindOutPort(index int) (drivers.Out, error) {
	outs := midi.GetOutPorts()
	if index < 0 || index >= len(outs) {
		return nil, fmt.Errorf("no MIDI output port at index %d (have %d)", index, len(outs))
	}
	return outs[index], nil
}

func (s *PortSynth) NoteOn(channel, key, velocity uint8) error {
	return s.send(midi.NoteOn(channel, key, velocity))
}

func (s *PortSynth) NoteOff(channel, key uint8) error {
	return s.send(midi.NoteOff(channel, key))
}

func (s *PortSynth) ProgramChange(channel, program uint8) error {
	return s.send(midi.ProgramChange(channel, program))
}

func (s *PortSynth) ControlChange(channel, controller, value uint8) error {
	return s.send(midi.ControlChange(channel, controller, value))
}

// String names the underlying port.
func (s *PortSynth) String() string {
	return s.out.String()
}
