package database

import (
	"strconv"
	"strings"
)

// VectorLiteral renders a pgvector input literal, e.g. "[0.1,0.2]".
// Queries pass it as a text parameter with a ::vector cast.
func VectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
