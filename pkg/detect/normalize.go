package detect

import (
	"regexp"
	"strings"
)

var (
	htmlComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	zeroWidth      = strings.NewReplacer("​", "", "‌", "", "‍", "", "\uFEFF", "")
)

// NormalizeText prepares model output for detection without altering
// semantic content: line endings are unified, HTML comments and
// zero-width characters are removed, and runs of blank lines collapse.
// Code fences are left intact; the structured-block strategy needs them.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = zeroWidth.Replace(text)
	text = htmlComment.ReplaceAllString(text, "")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
