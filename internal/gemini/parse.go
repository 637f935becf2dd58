package gemini

import (
	"regexp"
	"strings"
)

// Models often wrap JSON answers in a markdown code fence even when
// asked not to.
var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// ExtractJSON returns the fenced JSON object from a model answer, or
// the trimmed answer itself when there is no fence.
func ExtractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}
