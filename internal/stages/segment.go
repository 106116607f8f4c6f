package stages

import "strings"

// SplitSegments divides the article into count contiguous transcript
// segments, preserving paragraph order. When the article has fewer
// paragraphs than count, each paragraph becomes its own segment.
func SplitSegments(article string, count int) []string {
	paragraphs := splitParagraphs(article)
	if len(paragraphs) == 0 {
		return nil
	}
	if count <= 0 || count > len(paragraphs) {
		count = len(paragraphs)
	}

	segments := make([]string, 0, count)
	perSegment := len(paragraphs) / count
	remainder := len(paragraphs) % count
	start := 0
	for i := 0; i < count; i++ {
		size := perSegment
		if i < remainder {
			size++
		}
		segments = append(segments, strings.Join(paragraphs[start:start+size], "\n\n"))
		start += size
	}
	return segments
}

// decideSegmentCount resolves the number of segments: an explicit request
// wins, otherwise the paragraph count clamped to the configured range.
func decideSegmentCount(article string, requested, min, max int) int {
	if requested > 0 {
		return requested
	}
	count := len(splitParagraphs(article))
	if min > 0 && count < min {
		count = min
	}
	if max > 0 && count > max {
		count = max
	}
	if count <= 0 {
		count = 1
	}
	return count
}

func splitParagraphs(article string) []string {
	var paragraphs []string
	for _, block := range strings.Split(article, "\n\n") {
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
