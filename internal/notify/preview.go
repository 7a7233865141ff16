package notify

// Preview bounds text for a notification body, marking truncation with an
// ellipsis. The bound applies to runes so multibyte text is never split.
func Preview(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
