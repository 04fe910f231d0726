package log

// defaultMaxLoggedStrLen limits preview string length so that bearer
// credentials and large payloads are never written to logs in full.
const defaultMaxLoggedStrLen = 12

// Preview returns a log-safe preview of str.
//
// maxLen is optional and defaults to defaultMaxLoggedStrLen.
// Returns:
//   - Original string if len <= effective max length
//   - Truncated string with an ellipsis if len > effective max length
func Preview(str string, maxLen ...int) string {
	l := defaultMaxLoggedStrLen
	if len(maxLen) > 0 {
		l = maxLen[0]
	}
	return previewWithLengthAndEllipsis(str, l)
}

func previewWithLengthAndEllipsis(str string, maxLen int) string {
	if len(str) <= maxLen {
		return str
	}
	if maxLen <= 3 {
		return str[:maxLen]
	}
	return str[:maxLen-3] + "..."
}
