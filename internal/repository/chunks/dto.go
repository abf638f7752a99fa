package chunks

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/profscope/profscope/internal/domain"
)

// buildHashFields converts a chunk into a flat map[string]string for HSET.
func buildHashFields(c *domain.DocumentChunk) map[string]string {
	return map[string]string{
		"__content":   c.Text,
		"__vector":    vectorToBytes(c.Vector),
		"source_url":  c.SourceURL,
		"entity":      c.EntityName,
		"chunk_index": strconv.Itoa(c.ChunkIndex),
	}
}

// vectorToBytes serializes []float32 to the little-endian binary string
// RediSearch expects for vector fields.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
