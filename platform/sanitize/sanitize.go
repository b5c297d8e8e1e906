// Package sanitize converts rich-text fragments from the content backend
// into plain text suitable for cards and listings.
package sanitize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const ellipsis = "..."

// StripHTML removes all markup from s, decodes entities and collapses whitespace.
// Text inside script and style elements is dropped.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; either way the text so far is all we get.
			return collapseSpace(b.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isSkipped(name) {
				skipDepth++
			}
			if isBlock(name) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isSkipped(name) && skipDepth > 0 {
				skipDepth--
			}
			if isBlock(name) {
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

// Truncate shortens s to at most limit runes, cutting at the last word
// boundary when one exists and appending an ellipsis.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	cut := string(runes[:limit])
	if idx := strings.LastIndexByte(cut, ' '); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.;:-") + ellipsis
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isSkipped(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func isBlock(name []byte) bool {
	switch string(name) {
	case "p", "div", "br", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6", "section", "article", "blockquote":
		return true
	}
	return false
}
