// Package analyze extracts coarse per-second audio features and asks a
// language model to recommend the chorus segment. It is a thin collaborator;
// the effect pipeline only consumes the resulting time window.
package analyze

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/clipworks/chorusclip/internal/effect"
)

// SecondFeatures summarizes one second of audio.
type SecondFeatures struct {
	Second int     `json:"second"`
	RMS    float64 `json:"rms"`
	ZCR    float64 `json:"zcr"`
	Peak   float64 `json:"peak"`
}

// ExtractFeatures decodes the file's audio (converting to WAV when needed)
// and computes per-second features. The trailing partial second is skipped.
func ExtractFeatures(path string) ([]SecondFeatures, error) {
	wavPath := path
	if strings.ToLower(filepath.Ext(path)) != ".wav" {
		var err error
		if wavPath, err = convertToWav(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(wavPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", wavPath)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.Errorf("%s is not a valid WAV file", wavPath)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", wavPath)
	}

	return featuresFromBuffer(buf, int(dec.BitDepth)), nil
}

func featuresFromBuffer(buf *audio.IntBuffer, bitDepth int) []SecondFeatures {
	if buf == nil || buf.Format == nil {
		return nil
	}
	return computeFeatures(buf.Data, buf.Format.SampleRate, bitDepth)
}

// convertToWav writes a mono 44.1kHz PCM rendition next to the input file.
func convertToWav(path string) (string, error) {
	wavPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"

	var diag bytes.Buffer
	err := ffmpeg.Input(path).Audio().
		Output(wavPath, ffmpeg.KwArgs{
			"acodec": "pcm_s16le",
			"ac":     1,
			"ar":     44100,
		}).
		GlobalArgs(effect.EncodeArgs...).
		OverWriteOutput().
		WithErrorOutput(&diag).
		Run()
	if err != nil {
		return "", errors.Wrapf(err, "wav conversion failed: %s", diag.String())
	}
	return wavPath, nil
}

// computeFeatures chops samples into one-second chunks and measures RMS,
// zero-cross rate, and peak amplitude, all normalized to [-1, 1] sample
// range.
func computeFeatures(samples []int, sampleRate, bitDepth int) []SecondFeatures {
	if sampleRate <= 0 || len(samples) < sampleRate {
		return nil
	}

	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	features := make([]SecondFeatures, 0, len(samples)/sampleRate)
	for start := 0; start+sampleRate <= len(samples); start += sampleRate {
		chunk := samples[start : start+sampleRate]

		var sumSquares, peak float64
		crossings := 0
		for i, s := range chunk {
			v := float64(s) / scale
			sumSquares += v * v
			if a := math.Abs(v); a > peak {
				peak = a
			}
			if i > 0 && (chunk[i-1] >= 0) != (s >= 0) {
				crossings++
			}
		}

		features = append(features, SecondFeatures{
			Second: start / sampleRate,
			RMS:    math.Sqrt(sumSquares / float64(len(chunk))),
			ZCR:    float64(crossings) / float64(len(chunk)),
			Peak:   peak,
		})
	}
	return features
}
