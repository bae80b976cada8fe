package snapshot

import (
	"fmt"
	"strings"
)

// Element is one interactive node of a page snapshot, identified by
// the numeric id the model refers to in its actions.
type Element struct {
	ID       int
	Role     string
	Name     string
	Focused  bool
	Selector string
}

// Snapshot is an accessibility-tree-like view of the page: the
// interactive elements with stable ids for this observation, plus
// the visible static text.
type Snapshot struct {
	Elements []Element
	Text     []string
}

// Render produces the observation text shown to the model, element
// lines first, e.g.:
//
//	[164] textbox 'Search' focused: True
//	[171] button 'Go'
func (s *Snapshot) Render() string {
	var b strings.Builder
	for _, el := range s.Elements {
		fmt.Fprintf(&b, "[%d] %s '%s'", el.ID, el.Role, el.Name)
		if el.Focused {
			b.WriteString(" focused: True")
		}
		b.WriteString("\n")
	}
	for _, line := range s.Text {
		fmt.Fprintf(&b, "StaticText '%s'\n", line)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Lookup resolves a model-issued element id to its selector.
func (s *Snapshot) Lookup(id int) (Element, bool) {
	for _, el := range s.Elements {
		if el.ID == id {
			return el, true
		}
	}
	return Element{}, false
}
