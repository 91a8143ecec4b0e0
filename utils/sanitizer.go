package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// ContentPolicy sanitizes rich message bodies.
var ContentPolicy *bluemonday.Policy

func init() {
	ContentPolicy = bluemonday.UGCPolicy()

	// Message bodies may carry basic formatting and quoted threads
	ContentPolicy.AllowElements("p", "br", "div", "span", "h1", "h2", "h3")
	ContentPolicy.AllowElements("strong", "em", "u", "s", "code", "pre")
	ContentPolicy.AllowElements("ul", "ol", "li", "blockquote")
	ContentPolicy.AllowElements("a")

	ContentPolicy.AllowAttrs("href").OnElements("a")
	ContentPolicy.RequireParseableURLs(true)
	ContentPolicy.AllowURLSchemes("http", "https", "mailto")
}

// SanitizeContent sanitizes a message body before it is stored or re-served.
func SanitizeContent(content string) string {
	return ContentPolicy.Sanitize(content)
}

// PlainText extracts the text of an HTML fragment using a real tokenizer, so
// previews do not choke on malformed markup.
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.WriteString(string(z.Text()))
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// Preview normalizes whitespace and trims content to a short list preview,
// breaking at a word boundary where possible.
func Preview(content string, max int) string {
	text := strings.Join(strings.Fields(PlainText(content)), " ")
	if len(text) <= max {
		return text
	}
	if idx := strings.LastIndex(text[:max], " "); idx > 0 {
		return text[:idx] + "..."
	}
	return text[:max] + "..."
}
