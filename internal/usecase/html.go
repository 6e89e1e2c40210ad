package usecase

import (
	"regexp"
	"strings"
)

// Telegram renders only <b>, <i>, <u>, <s>, <code>, <pre> and <a>. The
// engine tends to return richer markup; everything else is rewritten or
// stripped before the post reaches the chat.
var (
	reParagraphOpen  = regexp.MustCompile(`<p>`)
	reParagraphClose = regexp.MustCompile(`</p>`)
	reUnsupportedTag = regexp.MustCompile(`</?(?:div|span|h[1-6]|ul|ol|li|br)[^>]*>`)
	reExtraNewlines  = regexp.MustCompile(`\n{3,}`)
)

func sanitizeHTML(content string) string {
	content = reParagraphOpen.ReplaceAllString(content, "")
	content = reParagraphClose.ReplaceAllString(content, "\n\n")
	content = strings.ReplaceAll(content, "<strong>", "<b>")
	content = strings.ReplaceAll(content, "</strong>", "</b>")
	content = strings.ReplaceAll(content, "<em>", "<i>")
	content = strings.ReplaceAll(content, "</em>", "</i>")
	content = reUnsupportedTag.ReplaceAllString(content, "")
	content = reExtraNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
