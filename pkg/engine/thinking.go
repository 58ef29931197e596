package engine

import (
	"regexp"
	"strings"
)

// Models emit internal reasoning inside delimited blocks. The content
// is kept for diagnostics but never shown to the detector or the user.
var (
	thinkingBlock   = regexp.MustCompile(`(?is)<think(?:ing)?>(.*?)</think(?:ing)?>`)
	thinkingDangler = regexp.MustCompile(`(?is)<think(?:ing)?>(.*)$`)
)

// ExtractThinking removes reasoning blocks from a model reply and
// returns the cleaned text plus the collected reasoning. An opening
// tag without a closing tag swallows the rest of the reply.
func ExtractThinking(text string) (clean, thinking string) {
	var parts []string

	clean = thinkingBlock.ReplaceAllStringFunc(text, func(match string) string {
		sub := thinkingBlock.FindStringSubmatch(match)
		if inner := strings.TrimSpace(sub[1]); inner != "" {
			parts = append(parts, inner)
		}
		return ""
	})

	clean = thinkingDangler.ReplaceAllStringFunc(clean, func(match string) string {
		sub := thinkingDangler.FindStringSubmatch(match)
		if inner := strings.TrimSpace(sub[1]); inner != "" {
			parts = append(parts, inner)
		}
		return ""
	})

	return strings.TrimSpace(clean), strings.Join(parts, "\n\n")
}
