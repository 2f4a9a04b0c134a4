package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Vectors are stored as little-endian IEEE 754 float32 blobs.
const floatSize = 4

func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	out := make([]byte, 0, len(v)*floatSize)
	for _, f := range v {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%floatSize != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of %d", len(blob), floatSize)
	}
	if len(blob) == 0 {
		return nil, nil
	}
	v := make([]float32, len(blob)/floatSize)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*floatSize:]))
	}
	return v, nil
}
