// Package descriptor is the single source of device commands: it maps emotions
// and literal color names to LED colors and vibration frequencies.
package descriptor

import (
	"sort"

	"pkt.systems/hapticnote/schema"
)

const (
	// releaseDim scales the neutral color shown after an actuation.
	releaseDim = 0.3
	// neutralThermal is the thermal actuator value applied on release.
	neutralThermal float32 = 0.0
)

var neutral = schema.Descriptor{
	Color:       schema.RGB{R: 255, G: 255, B: 255},
	VibrationHz: 150,
	ColorName:   "white",
}

var byEmotion = map[schema.Emotion]schema.Descriptor{
	schema.EmotionAnger:        {Color: schema.RGB{R: 255, G: 0, B: 0}, VibrationHz: 200, ColorName: "red"},
	schema.EmotionFear:         {Color: schema.RGB{R: 128, G: 0, B: 128}, VibrationHz: 250, ColorName: "blue"},
	schema.EmotionJoy:          {Color: schema.RGB{R: 0, G: 255, B: 0}, VibrationHz: 100, ColorName: "green"},
	schema.EmotionSadness:      {Color: schema.RGB{R: 0, G: 0, B: 255}, VibrationHz: 220, ColorName: "blue"},
	schema.EmotionDisgust:      {Color: schema.RGB{R: 255, G: 165, B: 0}, VibrationHz: 180, ColorName: "yellow"},
	schema.EmotionSurprise:     {Color: schema.RGB{R: 255, G: 255, B: 0}, VibrationHz: 150, ColorName: "yellow"},
	schema.EmotionTrust:        {Color: schema.RGB{R: 0, G: 255, B: 255}, VibrationHz: 120, ColorName: "green"},
	schema.EmotionAnticipation: {Color: schema.RGB{R: 255, G: 192, B: 203}, VibrationHz: 130, ColorName: "yellow"},
}

var byColor = map[string]schema.Descriptor{
	"yellow": {Color: schema.RGB{R: 255, G: 255, B: 0}, VibrationHz: 150, ColorName: "yellow"},
	"red":    {Color: schema.RGB{R: 255, G: 0, B: 0}, VibrationHz: 200, ColorName: "red"},
	"blue":   {Color: schema.RGB{R: 0, G: 0, B: 255}, VibrationHz: 250, ColorName: "blue"},
	"green":  {Color: schema.RGB{R: 0, G: 255, B: 0}, VibrationHz: 100, ColorName: "green"},
}

// Resolve maps an emotion name or a literal color name to its descriptor.
// Emotion names take precedence; anything unknown resolves to Neutral.
func Resolve(key string) schema.Descriptor {
	if e, ok := schema.ParseEmotion(key); ok {
		return ForEmotion(e)
	}
	if d, ok := ForColor(key); ok {
		return d
	}
	return neutral
}

// ForEmotion returns the descriptor for an emotion, Neutral for neutral or
// unknown values.
func ForEmotion(e schema.Emotion) schema.Descriptor {
	if d, ok := byEmotion[e]; ok {
		return d
	}
	return neutral
}

// ForColor returns the descriptor for a literal color name.
func ForColor(name string) (schema.Descriptor, bool) {
	d, ok := byColor[schema.NormalizeColor(name)]
	return d, ok
}

// IsColor reports whether name is one of the literal colors.
func IsColor(name string) bool {
	_, ok := ForColor(name)
	return ok
}

// Colors lists the literal color names in sorted order.
func Colors() []string {
	out := make([]string, 0, len(byColor))
	for name := range byColor {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Neutral is the fallback descriptor.
func Neutral() schema.Descriptor {
	return neutral
}

// Released is the dimmed LED color devices return to after an actuation.
func Released() schema.RGB {
	return neutral.Color.Scale(releaseDim)
}

// NeutralThermal is the thermal intensity applied on release.
func NeutralThermal() float32 {
	return neutralThermal
}
