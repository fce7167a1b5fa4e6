package mail

import (
	"strings"

	"github.com/k3a/html2text"
)

// htmlToText renders an HTML body as plain text, for messages that carry
// no text/plain alternative. Tags are stripped, entities decoded, and runs
// of blank lines collapsed so the result reads like a plain text body.
func htmlToText(body string) string {
	if body == "" {
		return ""
	}
	return collapseBlankLines(html2text.HTML2Text(body))
}

// collapseBlankLines trims the text and caps consecutive blank lines at two
func collapseBlankLines(text string) string {
	var (
		out    []string
		blanks int
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks > 2 {
				continue
			}
			out = append(out, "")
			continue
		}
		blanks = 0
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
