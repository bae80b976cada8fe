package entity

import (
	"fmt"
	"strings"
)

type ActionKind string

const (
	ActionClick     ActionKind = "click"
	ActionType      ActionKind = "type"
	ActionHover     ActionKind = "hover"
	ActionPress     ActionKind = "press"
	ActionScroll    ActionKind = "scroll"
	ActionNewTab    ActionKind = "new_tab"
	ActionTabFocus  ActionKind = "tab_focus"
	ActionCloseTab  ActionKind = "close_tab"
	ActionGoto      ActionKind = "goto"
	ActionGoBack    ActionKind = "go_back"
	ActionGoForward ActionKind = "go_forward"
	ActionStop      ActionKind = "stop"
)

// Action is one structured command parsed from a model reply.
// Target holds the element id, URL, key combination, scroll direction,
// tab index or stop answer depending on the kind; Text and PressEnter
// are only set for type actions.
type Action struct {
	Kind       ActionKind
	Target     string
	Text       string
	PressEnter bool
}

// String renders the action back into the prompt grammar, e.g.
// "type [164] [restaurants near CMU] [1]".
func (a Action) String() string {
	switch a.Kind {
	case ActionNewTab, ActionCloseTab, ActionGoBack, ActionGoForward:
		return string(a.Kind)
	case ActionType:
		enter := "0"
		if a.PressEnter {
			enter = "1"
		}
		return fmt.Sprintf("%s [%s] [%s] [%s]", a.Kind, a.Target, a.Text, enter)
	default:
		return fmt.Sprintf("%s [%s]", a.Kind, a.Target)
	}
}

// IsStop reports whether the action terminates the episode.
func (a Action) IsStop() bool {
	return a.Kind == ActionStop
}

var actionKinds = map[ActionKind]bool{
	ActionClick:     true,
	ActionType:      true,
	ActionHover:     true,
	ActionPress:     true,
	ActionScroll:    true,
	ActionNewTab:    true,
	ActionTabFocus:  true,
	ActionCloseTab:  true,
	ActionGoto:      true,
	ActionGoBack:    true,
	ActionGoForward: true,
	ActionStop:      true,
}

// KnownActionKind reports whether s names a supported action kind.
func KnownActionKind(s string) bool {
	return actionKinds[ActionKind(strings.TrimSpace(s))]
}
