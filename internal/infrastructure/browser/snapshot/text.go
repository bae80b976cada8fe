package snapshot

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedTags hold no text a task could care about.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "svg": true,
	"iframe": true, "link": true, "meta": true, "head": true,
	"title": true, "template": true,
}

// interactiveTags are reported as elements by the snapshotter, so
// their text would show up twice.
var interactiveTags = map[string]bool{
	"a": true, "button": true, "input": true, "textarea": true,
	"select": true, "option": true, "label": true,
}

// ExtractText pulls the visible static text lines out of raw HTML,
// capped at maxLines. Unparseable HTML degrades to no text rather
// than failing: the element snapshot still carries the page.
func ExtractText(rawHTML string, maxLines int) []string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var lines []string
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (skippedTags[n.Data] || interactiveTags[n.Data]) {
			return
		}
		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" && !seen[text] && len(lines) < maxLines {
				seen[text] = true
				lines = append(lines, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if len(lines) >= maxLines {
				return
			}
			walk(c)
		}
	}
	walk(doc)

	return lines
}
