package service

import (
	"net/url"
	"strings"

	"webtask-agent/internal/domain/entity"
)

// Whitelist is the set of hosts a goto action may navigate to.
// Built once at episode start and read-only afterwards, so it is safe
// to share across parallel episodes. An empty whitelist permits
// everything.
type Whitelist struct {
	hosts []string
}

func NewWhitelist(hosts []string) *Whitelist {
	w := &Whitelist{}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		h = strings.TrimPrefix(h, "http://")
		h = strings.TrimPrefix(h, "https://")
		if i := strings.IndexByte(h, '/'); i >= 0 {
			h = h[:i]
		}
		if h != "" {
			w.hosts = append(w.hosts, h)
		}
	}
	return w
}

// Allows reports whether rawURL points at a permitted host. A host is
// permitted when it equals a whitelisted entry or is a subdomain of
// one.
func (w *Whitelist) Allows(rawURL string) bool {
	if len(w.hosts) == 0 {
		return true
	}

	host := hostOf(rawURL)
	if host == "" {
		return false
	}

	for _, allowed := range w.hosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// Validate enforces the navigation policy on one action. Only goto
// carries a navigation target; everything else passes through.
func (w *Whitelist) Validate(action entity.Action) error {
	if action.Kind != entity.ActionGoto {
		return nil
	}
	if w.Allows(action.Target) {
		return nil
	}
	return &entity.ValidationError{
		Reason: entity.ValidationReasonNotPermitted,
		Detail: action.Target,
	}
}

func hostOf(rawURL string) string {
	s := rawURL
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
