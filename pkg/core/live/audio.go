package live

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vango-go/vai-studio/pkg/core"
)

// InputMIMEType tags uplink blobs: 16-bit little-endian PCM at 16 kHz.
var InputMIMEType = fmt.Sprintf("audio/pcm;rate=%d", InputSampleRate)

// AudioChunk is one block of normalized samples in [-1, 1] at SampleRate.
type AudioChunk struct {
	Samples    []float32
	SampleRate int
}

// Blob is an encoded audio payload ready for the wire.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Resample converts samples from inRate to outRate by nearest-neighbour
// selection. Equal rates return the input slice unchanged.
func Resample(samples []float32, inRate, outRate int) []float32 {
	if inRate == outRate || inRate <= 0 || outRate <= 0 {
		return samples
	}
	if len(samples) == 0 {
		return []float32{}
	}

	ratio := float64(inRate) / float64(outRate)
	n := int(math.Round(float64(len(samples)) / ratio))
	out := make([]float32, n)
	last := len(samples) - 1
	for i := range out {
		idx := int(math.Round(float64(i) * ratio))
		if idx > last {
			idx = last
		}
		out[i] = samples[idx]
	}
	return out
}

// EncodePCM16 converts float samples to 16-bit little-endian PCM.
// Samples outside [-1, 1] are clamped.
func EncodePCM16(samples []float32) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		var v int16
		if s < 0 {
			v = int16(s * 32768)
		} else {
			v = int16(s * 32767)
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

// DecodePCM16 converts 16-bit little-endian PCM to float samples.
func DecodePCM16(pcm []byte) ([]float32, error) {
	if len(pcm)%2 != 0 {
		return nil, core.NewDecodeError(fmt.Sprintf("pcm payload has odd length %d", len(pcm)))
	}
	out := make([]float32, len(pcm)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return out, nil
}

// EncodeBlob encodes 16 kHz samples into a wire blob.
func EncodeBlob(samples []float32) Blob {
	return Blob{
		MIMEType: InputMIMEType,
		Data:     base64.StdEncoding.EncodeToString(EncodePCM16(samples)),
	}
}
