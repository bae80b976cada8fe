package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLMap_RoundTrip(t *testing.T) {
	m := NewURLMap(map[string]string{
		"http://shop.local:7770":  "http://onestopmarket.com",
		"http://maps.local:3000":  "http://openstreetmap.org",
	})

	real := m.ToReal("http://shop.local:7770/office-products")
	assert.Equal(t, "http://onestopmarket.com/office-products", real)

	local := m.ToLocal(real)
	assert.Equal(t, "http://shop.local:7770/office-products", local)
}

func TestURLMap_UnknownURLUntouched(t *testing.T) {
	m := NewURLMap(map[string]string{"http://a.local": "http://a.com"})

	assert.Equal(t, "http://b.com/x", m.ToReal("http://b.com/x"))
	assert.Equal(t, "http://b.com/x", m.ToLocal("http://b.com/x"))
}

func TestURLMap_NilSafe(t *testing.T) {
	var m *URLMap
	assert.Equal(t, "http://x.com", m.ToReal("http://x.com"))
	assert.Equal(t, "http://x.com", m.ToLocal("http://x.com"))
}
