package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeVector packs float32 components as little-endian bytes.
// Matches the layout vector-capable Redis modules expect, so the
// stored value stays reusable if an index is added later.
func encodeVector(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return string(buf)
}

func decodeVector(s string) ([]float32, error) {
	if len(s)%4 != 0 {
		return nil, fmt.Errorf("vector payload length %d is not a multiple of 4", len(s))
	}
	if len(s) == 0 {
		return nil, nil
	}
	buf := []byte(s)
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
