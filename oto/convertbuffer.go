package oto

// Int16BufferToLE converts an int16 PCM buffer to little-endian bytes,
// appending to recycled to avoid reallocating on every write.
func Int16BufferToLE(buffer []int16, recycled []byte) []byte {
	for _, v := range buffer {
		recycled = append(recycled, byte(v), byte(v>>8))
	}
	return recycled
}
