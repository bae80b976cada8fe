package service

import (
	"strconv"
	"strings"

	"webtask-agent/internal/domain/entity"
)

const DefaultActionSplitter = "`"

// ParsedReply is the structured form of one model reply: the optional
// self-summary note, the reasoning segment and the single action.
type ParsedReply struct {
	Summary string
	Thought string
	Action  entity.Action
}

// ActionParser extracts a structured action from free-form model
// output following the "Observation Summary: ... Thought: ...
// Action: `kind [arg] ...`" convention. The splitter pair wrapping
// the action and the URL rewriting are prompt policy, so both are
// injected rather than hard-coded.
type ActionParser struct {
	splitter string
	urls     *URLMap
}

func NewActionParser(splitter string, urls *URLMap) *ActionParser {
	if splitter == "" {
		splitter = DefaultActionSplitter
	}
	return &ActionParser{splitter: splitter, urls: urls}
}

// Splitter reports the configured action delimiter, for corrective
// re-prompts that quote the expected format.
func (p *ActionParser) Splitter() string {
	return p.splitter
}

// Parse splits the reply into its segments and parses the action
// between the first splitter pair. Navigation targets are mapped back
// to their local counterparts before validation.
func (p *ActionParser) Parse(reply string) (*ParsedReply, error) {
	raw, err := p.extractActionText(reply)
	if err != nil {
		return nil, err
	}

	action, err := parseAction(raw)
	if err != nil {
		return nil, err
	}

	if action.Kind == entity.ActionGoto && p.urls != nil {
		action.Target = p.urls.ToLocal(action.Target)
	}

	return &ParsedReply{
		Summary: segment(reply, "Observation Summary:", "Thought:"),
		Thought: segment(reply, "Thought:", "Action:"),
		Action:  action,
	}, nil
}

func (p *ActionParser) extractActionText(reply string) (string, error) {
	start := strings.Index(reply, p.splitter)
	if start < 0 {
		return "", &entity.ParseError{Reason: entity.ParseReasonMissingMarker, Detail: "no " + p.splitter + " pair in reply"}
	}
	rest := reply[start+len(p.splitter):]
	end := strings.Index(rest, p.splitter)
	if end < 0 {
		return "", &entity.ParseError{Reason: entity.ParseReasonMissingMarker, Detail: "unclosed " + p.splitter}
	}
	return strings.TrimSpace(rest[:end]), nil
}

// segment returns the trimmed text between the first occurrence of
// from and the following occurrence of to (or the end of s).
func segment(s, from, to string) string {
	i := strings.Index(s, from)
	if i < 0 {
		return ""
	}
	s = s[i+len(from):]
	if j := strings.Index(s, to); j >= 0 {
		s = s[:j]
	}
	return strings.TrimSpace(s)
}

func parseAction(raw string) (entity.Action, error) {
	if raw == "" {
		return entity.Action{}, &entity.ParseError{Reason: entity.ParseReasonMissingMarker, Detail: "empty action"}
	}

	kind := raw
	argText := ""
	if i := strings.IndexAny(raw, " \t["); i >= 0 {
		kind = strings.TrimSpace(raw[:i])
		argText = strings.TrimSpace(raw[i:])
	}
	if !entity.KnownActionKind(kind) {
		return entity.Action{}, &entity.ParseError{Reason: entity.ParseReasonUnknownKind, Detail: kind}
	}

	args, err := splitArgs(argText)
	if err != nil {
		return entity.Action{}, err
	}

	return buildAction(entity.ActionKind(kind), args)
}

// splitArgs collects the bracketed segments of an action body. The
// grammar does not nest: each argument runs from '[' to the next ']',
// so argument text cannot itself contain a closing bracket.
func splitArgs(s string) ([]string, error) {
	var args []string
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '[':
			j := strings.IndexByte(s[i+1:], ']')
			if j < 0 {
				return nil, &entity.ParseError{Reason: entity.ParseReasonMalformedArg, Detail: "unclosed bracket"}
			}
			args = append(args, s[i+1:i+1+j])
			i += j + 1
		case s[i] == ' ' || s[i] == '\t' || s[i] == '\n':
			// ignore
		default:
			return nil, &entity.ParseError{Reason: entity.ParseReasonMalformedArg, Detail: "unexpected text: " + s[i:]}
		}
	}
	return args, nil
}

func buildAction(kind entity.ActionKind, args []string) (entity.Action, error) {
	malformed := func(detail string) (entity.Action, error) {
		return entity.Action{}, &entity.ParseError{Reason: entity.ParseReasonMalformedArg, Detail: string(kind) + ": " + detail}
	}

	switch kind {
	case entity.ActionClick, entity.ActionHover:
		if len(args) != 1 || !isIntToken(args[0]) {
			return malformed("want one element id")
		}
		return entity.Action{Kind: kind, Target: strings.TrimSpace(args[0])}, nil

	case entity.ActionType:
		if len(args) < 2 || len(args) > 3 || !isIntToken(args[0]) {
			return malformed("want [id] [text] [press_enter_after]")
		}
		pressEnter := true
		if len(args) == 3 {
			switch strings.TrimSpace(args[2]) {
			case "0":
				pressEnter = false
			case "1":
				pressEnter = true
			default:
				return malformed("press_enter_after must be 0 or 1")
			}
		}
		return entity.Action{Kind: kind, Target: strings.TrimSpace(args[0]), Text: args[1], PressEnter: pressEnter}, nil

	case entity.ActionPress:
		if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
			return malformed("want one key combination")
		}
		return entity.Action{Kind: kind, Target: strings.TrimSpace(args[0])}, nil

	case entity.ActionScroll:
		if len(args) != 1 {
			return malformed("want one direction")
		}
		dir := strings.ToLower(strings.TrimSpace(args[0]))
		dir = strings.TrimPrefix(dir, "direction=")
		if dir != "up" && dir != "down" {
			return malformed("direction must be up or down")
		}
		return entity.Action{Kind: kind, Target: dir}, nil

	case entity.ActionTabFocus:
		if len(args) != 1 || !isIntToken(args[0]) {
			return malformed("want one tab index")
		}
		return entity.Action{Kind: kind, Target: strings.TrimSpace(args[0])}, nil

	case entity.ActionGoto:
		if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
			return malformed("want one url")
		}
		return entity.Action{Kind: kind, Target: strings.TrimSpace(args[0])}, nil

	case entity.ActionStop:
		if len(args) > 1 {
			return malformed("want at most one answer")
		}
		target := ""
		if len(args) == 1 {
			target = strings.TrimSpace(args[0])
		}
		return entity.Action{Kind: kind, Target: target}, nil

	case entity.ActionNewTab, entity.ActionCloseTab, entity.ActionGoBack, entity.ActionGoForward:
		if len(args) != 0 {
			return malformed("takes no argument")
		}
		return entity.Action{Kind: kind}, nil
	}

	return entity.Action{}, &entity.ParseError{Reason: entity.ParseReasonUnknownKind, Detail: string(kind)}
}

func isIntToken(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}
