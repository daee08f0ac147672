package analyze

import (
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeaturesFromBuffer(t *testing.T) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 100},
		Data:   make([]int, 300),
	}
	assert.Len(t, featuresFromBuffer(buf, 16), 3)
	assert.Nil(t, featuresFromBuffer(nil, 16))
	assert.Nil(t, featuresFromBuffer(&audio.IntBuffer{Data: make([]int, 300)}, 16))
}

func TestComputeFeaturesSilence(t *testing.T) {
	samples := make([]int, 200)
	features := computeFeatures(samples, 100, 16)

	require.Len(t, features, 2)
	for _, f := range features {
		assert.Zero(t, f.RMS)
		assert.Zero(t, f.ZCR)
		assert.Zero(t, f.Peak)
	}
	assert.Equal(t, 0, features[0].Second)
	assert.Equal(t, 1, features[1].Second)
}

func TestComputeFeaturesSquareWave(t *testing.T) {
	// Full-scale square wave alternating every sample.
	samples := make([]int, 100)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 32767
		} else {
			samples[i] = -32768
		}
	}

	features := computeFeatures(samples, 100, 16)
	require.Len(t, features, 1)

	f := features[0]
	assert.InDelta(t, 1.0, f.RMS, 0.01)
	assert.InDelta(t, 1.0, f.Peak, 0.01)
	assert.InDelta(t, 0.99, f.ZCR, 0.011)
}

func TestComputeFeaturesLouderSectionHasHigherRMS(t *testing.T) {
	quiet := make([]int, 100)
	loud := make([]int, 100)
	for i := range quiet {
		quiet[i] = 1000
		loud[i] = 20000
	}
	features := computeFeatures(append(quiet, loud...), 100, 16)

	require.Len(t, features, 2)
	assert.Greater(t, features[1].RMS, features[0].RMS)
	assert.Greater(t, features[1].Peak, features[0].Peak)
}

func TestComputeFeaturesSkipsPartialSecond(t *testing.T) {
	features := computeFeatures(make([]int, 250), 100, 16)
	assert.Len(t, features, 2)
}

func TestComputeFeaturesTooShort(t *testing.T) {
	assert.Nil(t, computeFeatures(make([]int, 50), 100, 16))
	assert.Nil(t, computeFeatures(nil, 100, 16))
	assert.Nil(t, computeFeatures(make([]int, 50), 0, 16))
}

func TestParseChorus(t *testing.T) {
	chorus, err := parseChorus([]byte(`{"start_time": 42.5, "end_time": 62.5}`))
	require.NoError(t, err)
	assert.Equal(t, 42.5, chorus.StartTime)
	assert.Equal(t, 62.5, chorus.EndTime)
	assert.Equal(t, 20.0, chorus.Duration())
}

func TestParseChorusRejectsBadWindows(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "chorus at 42"},
		{"negative start", `{"start_time": -1, "end_time": 10}`},
		{"end before start", `{"start_time": 30, "end_time": 20}`},
		{"zero length", `{"start_time": 30, "end_time": 30}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseChorus([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}
