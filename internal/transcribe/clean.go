package transcribe

import (
	"strings"
)

// CleanResponse strips the wrapping models like to add around a transcription:
// code fences and a leading sentence such as "Here is the text:". The menu
// lines themselves are returned untouched apart from trailing whitespace.
func CleanResponse(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		if len(out) == 0 && (trimmed == "" || isPreamble(trimmed)) {
			continue
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isPreamble(line string) bool {
	for _, p := range []string{"Here", "I see", "Based on", "Sure"} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
