package urlgate

import (
	"testing"

	"github.com/dtnitsch/fxlens/models"
	"github.com/stretchr/testify/assert"
)

func allowlist(patterns ...string) models.FilterConfig {
	return models.FilterConfig{URLFilterMode: models.FilterAllowlist, AllowlistURLs: patterns}
}

func blocklist(patterns ...string) models.FilterConfig {
	return models.FilterConfig{URLFilterMode: models.FilterBlocklist, BlocklistURLs: patterns}
}

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.FilterConfig
		url  string
		want bool
	}{
		{"disabled allows everything", models.FilterConfig{}, "https://anything.example", true},
		{"disabled ignores lists", models.FilterConfig{BlocklistURLs: []string{"ebay.com"}}, "https://ebay.com", true},

		{"allowlist subdomain", allowlist("ebay.com"), "https://www.ebay.com/x", true},
		{"allowlist exact", allowlist("ebay.com"), "https://ebay.com", true},
		{"allowlist other domain", allowlist("ebay.com"), "https://other.com", false},
		{"allowlist suffix is not subdomain", allowlist("ebay.com"), "https://notebay.com", false},
		{"allowlist empty is open", allowlist(), "https://whatever.example/path", true},
		{"allowlist of blanks is closed", allowlist("  "), "https://other.com", false},
		{"allowlist case insensitive", allowlist("EBay.COM"), "https://WWW.EBAY.com/", true},
		{"allowlist port ignored", allowlist("localhost"), "http://localhost:8080/cart", true},
		{"allowlist star glob", allowlist("shop.*.jp"), "https://shop.rakuten.jp/item", true},
		{"allowlist leading star subdomain", allowlist("*.amazon.com"), "https://smile.amazon.com", true},
		{"allowlist leading star deep subdomain", allowlist("*.amazon.com"), "https://a.b.amazon.com", true},
		{"allowlist dot is literal", allowlist("ebay.com"), "https://ebayxcom", false},
		{"allowlist scheme prefix", allowlist("https://shop.example/cart"), "https://SHOP.example/cart/42", true},
		{"allowlist scheme prefix mismatch", allowlist("https://shop.example/cart"), "https://shop.example/home", false},

		{"blocklist scheme prefix", blocklist("chrome://", "chrome-extension://"), "chrome://settings", false},
		{"blocklist domain", blocklist("ads.example"), "https://cdn.ads.example/frame", false},
		{"blocklist no match", blocklist("ads.example"), "https://shop.example", true},
		{"blocklist empty", blocklist(), "https://shop.example", true},

		{"malformed url uses raw string", allowlist("not a url"), "not a url", true},
		{"malformed url no match", allowlist("ebay.com"), "://bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowed(tt.url, tt.cfg))
		})
	}
}

func TestGate_MetaCharactersAreLiteral(t *testing.T) {
	// Only '*' is a wildcard; a bracket is matched as itself.
	g := New(blocklist("[shop.example"), nil)
	assert.True(t, g.Allowed("https://shop.example"))

	g = New(allowlist("[shop.example"), nil)
	assert.False(t, g.Allowed("https://shop.example"), "bracket is not a character class")
}

func TestDomain(t *testing.T) {
	tests := map[string]string{
		"https://www.Example.com:8443/a?b=c": "www.example.com",
		"http://localhost":                   "localhost",
		"Example.com/path":                   "example.com/path",
		"":                                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Domain(in), in)
	}
}
