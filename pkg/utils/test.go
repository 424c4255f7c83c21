package utils

import (
	"math"

	"wavbeep/internal/tone"
)

// MockRenderer implements render.Renderer for testing. It keeps a copy of
// every sequence it was asked to render.
type MockRenderer struct {
	Rendered []tone.Sequence
	Err      error
}

// Render stores a copy of seq for later inspection instead of emitting it.
func (m *MockRenderer) Render(seq tone.Sequence) error {
	if m.Err != nil {
		return m.Err
	}
	cp := make(tone.Sequence, len(seq))
	copy(cp, seq)
	m.Rendered = append(m.Rendered, cp)
	return nil
}

// GenerateSineWave returns size normalized samples of a sine at frequency Hz.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// GenerateComplexWave returns a 440 Hz fundamental with two weaker harmonics.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
	}
	return buffer
}

// GenerateToneSteps concatenates sine segments, one per frequency, each
// segmentSize samples long. A frequency of 0 yields a silent segment.
func GenerateToneSteps(segmentSize int, sampleRate float64, frequencies ...float64) []float64 {
	buffer := make([]float64, 0, segmentSize*len(frequencies))
	for _, f := range frequencies {
		if f == 0 {
			buffer = append(buffer, make([]float64, segmentSize)...)
			continue
		}
		buffer = append(buffer, GenerateSineWave(segmentSize, sampleRate, f)...)
	}
	return buffer
}
