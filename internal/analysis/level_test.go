// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"termvis/internal/audio"
	"termvis/internal/audiotest"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name string
		buf  audio.Buffer
		ch   audio.Channel
		want float64
	}{
		{"Empty", nil, audio.Left, 0},
		{"Silence", audio.NewBuffer(16), audio.Left, 0},
		{"DC full scale", audiotest.Stereo([]float64{1, 1, 1, 1}, nil), audio.Left, 1},
		{"Square wave", audiotest.Stereo(nil, []float64{0.5, -0.5, 0.5, -0.5}), audio.Right, 0.5},
		{"Other channel silent", audiotest.Stereo(nil, []float64{0.5, -0.5}), audio.Left, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RMS(tt.buf, tt.ch); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RMS() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRMSSine(t *testing.T) {
	// 600 Hz fits exactly ten periods in 735 samples.
	sine := audiotest.GenerateSineWave(735, 44100, 600)
	got := RMS(audiotest.Stereo(sine, nil), audio.Left)
	want := 0.9 / math.Sqrt2
	if math.Abs(got-want) > 1e-4 {
		t.Errorf("RMS(sine) = %f, want %f", got, want)
	}
}

func TestDecibels(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{1, 0},
		{0.1, -20},
		{0, -96},
		{1e-9, -96},
	}
	for _, tt := range tests {
		if got := Decibels(tt.level); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Decibels(%g) = %f, want %f", tt.level, got, tt.want)
		}
	}
}
