package sequence

import (
	"fmt"
	"strings"
)

var modeNames = map[Mode]string{
	Chord:     "chord",
	ArpUp:     "arp-up",
	ArpDown:   "arp-down",
	ArpUpDown: "arp-updown",
	ArpRandom: "arp-random",
}

// String returns the mode's flag/config spelling.
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a flag/config value to a Mode.
func ParseMode(s string) (Mode, error) {
	for mode, name := range modeNames {
		if strings.EqualFold(s, name) {
			return mode, nil
		}
	}
	return Chord, fmt.Errorf("unknown playback mode %q", s)
}

// ModeNames lists the accepted playback mode spellings.
func ModeNames() []string {
	return []string{"chord", "arp-up", "arp-down", "arp-updown", "arp-random"}
}

// ParseVelocityMode maps a flag/config value to a VelocityMode.
func ParseVelocityMode(s string) (VelocityMode, error) {
	switch strings.ToLower(s) {
	case "light":
		return VelocityLight, nil
	case "normal", "":
		return VelocityNormal, nil
	case "strong":
		return VelocityStrong, nil
	case "dynamic":
		return VelocityDynamic, nil
	}
	return VelocityNormal, fmt.Errorf("unknown velocity mode %q", s)
}
