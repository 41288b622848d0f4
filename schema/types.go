package schema

import (
	"fmt"
	"strings"
	"time"
)

// Emotion is one of the closed emotion categories, or neutral.
type Emotion string

const (
	EmotionAnger        Emotion = "anger"
	EmotionFear         Emotion = "fear"
	EmotionJoy          Emotion = "joy"
	EmotionSadness      Emotion = "sadness"
	EmotionDisgust      Emotion = "disgust"
	EmotionSurprise     Emotion = "surprise"
	EmotionTrust        Emotion = "trust"
	EmotionAnticipation Emotion = "anticipation"
	EmotionNeutral      Emotion = "neutral"
)

// EmotionPriority is the fixed order used by the keyword stage and for
// breaking lexicon score ties. Earlier entries win.
var EmotionPriority = []Emotion{
	EmotionAnger,
	EmotionFear,
	EmotionJoy,
	EmotionSadness,
	EmotionDisgust,
	EmotionSurprise,
	EmotionTrust,
	EmotionAnticipation,
}

// ParseEmotion maps a name to an Emotion. Neutral is accepted.
func ParseEmotion(value string) (Emotion, bool) {
	e := Emotion(strings.ToLower(strings.TrimSpace(value)))
	if e == EmotionNeutral {
		return e, true
	}
	for _, known := range EmotionPriority {
		if e == known {
			return e, true
		}
	}
	return "", false
}

// RGB is an 8-bit LED color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Scale multiplies each channel by factor and truncates.
func (c RGB) Scale(factor float64) RGB {
	scale := func(v uint8) uint8 {
		out := float64(v) * factor
		switch {
		case out <= 0:
			return 0
		case out >= 255:
			return 255
		}
		return uint8(out)
	}
	return RGB{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Descriptor is the device-facing color and vibration tuple.
type Descriptor struct {
	Color       RGB    `json:"rgb"`
	VibrationHz uint16 `json:"vibration_hz"`
	ColorName   string `json:"color"`
}

// RecordKind distinguishes direct highlights from analyzed notes.
type RecordKind string

const (
	// RecordNormal is a highlight triggered with an explicit color.
	RecordNormal RecordKind = "normal"
	// RecordSense is a note whose color came from emotion analysis.
	RecordSense RecordKind = "sense"
)

// HighlightRecord is one logged trigger, replayable by its text.
type HighlightRecord struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Note        *string    `json:"note"`
	ColorName   string     `json:"color"`
	VibrationHz uint16     `json:"vibration_hz"`
	Kind        RecordKind `json:"kind"`
	Emotion     Emotion    `json:"emotion,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Validate checks the kind-dependent invariants of a record.
func (r HighlightRecord) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: record text is required", ErrInvalidInput)
	}
	switch r.Kind {
	case RecordNormal:
		if r.Emotion != "" {
			return fmt.Errorf("%w: normal record must not carry an emotion", ErrInvalidInput)
		}
		if r.Note != nil {
			return fmt.Errorf("%w: normal record must not carry a note", ErrInvalidInput)
		}
	case RecordSense:
		if _, ok := ParseEmotion(string(r.Emotion)); !ok {
			return fmt.Errorf("%w: sense record requires an emotion", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown record kind %q", ErrInvalidInput, r.Kind)
	}
	return nil
}

// ActuationPhase names a step of the actuation sequence.
type ActuationPhase string

const (
	PhaseActuating ActuationPhase = "actuating"
	PhaseHolding   ActuationPhase = "holding"
	PhaseReleasing ActuationPhase = "releasing"
	PhaseIdle      ActuationPhase = "idle"
)

// ActuationEvent reports a phase transition of the sequencer.
type ActuationEvent struct {
	Phase      ActuationPhase `json:"phase"`
	Descriptor Descriptor     `json:"descriptor"`
	Devices    []string       `json:"devices"`
	Failures   int            `json:"failures,omitempty"`
	At         time.Time      `json:"at"`
}
