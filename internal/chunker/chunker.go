// Package chunker splits extracted page text into bounded-size segments
// suitable for embedding. Splitting is rune-based and ignores word and
// sentence boundaries; segments are contiguous and concatenate back to
// the input.
package chunker

// Split cuts text into consecutive segments of at most size runes; the
// final segment may be shorter. Empty input or a non-positive size yields
// no segments.
func Split(text string, size int) []string {
	if text == "" || size <= 0 {
		return nil
	}

	runes := []rune(text)
	segments := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments
}
