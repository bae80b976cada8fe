package service

import (
	"sort"
	"strings"
)

// URLMap rewrites URLs between the local benchmark hosts the
// environment serves and the real-world hosts the model knows.
// Prompts show real URLs; parsed goto targets are mapped back before
// validation and execution. Pairs are applied in sorted order so the
// rewrite is deterministic.
type URLMap struct {
	pairs []urlPair
}

type urlPair struct {
	local string
	real  string
}

func NewURLMap(localToReal map[string]string) *URLMap {
	m := &URLMap{}
	for local, real := range localToReal {
		m.pairs = append(m.pairs, urlPair{local: local, real: real})
	}
	sort.Slice(m.pairs, func(i, j int) bool {
		return m.pairs[i].local < m.pairs[j].local
	})
	return m
}

// ToReal substitutes every known local fragment with its real
// counterpart.
func (m *URLMap) ToReal(url string) string {
	if m == nil {
		return url
	}
	for _, p := range m.pairs {
		if strings.Contains(url, p.local) {
			url = strings.ReplaceAll(url, p.local, p.real)
		}
	}
	return url
}

// ToLocal is the inverse rewrite applied to model-proposed targets.
func (m *URLMap) ToLocal(url string) string {
	if m == nil {
		return url
	}
	for _, p := range m.pairs {
		if strings.Contains(url, p.real) {
			url = strings.ReplaceAll(url, p.real, p.local)
		}
	}
	return url
}
