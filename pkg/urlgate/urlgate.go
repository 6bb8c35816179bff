// Package urlgate decides whether a page URL is eligible for conversion.
package urlgate

import (
	"net/url"
	"strings"

	"github.com/dtnitsch/fxlens/models"
	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

// Gate is a compiled URL filter. It's immutable and safe to share.
type Gate struct {
	mode      models.FilterMode
	allowlist []pattern
	blocklist []pattern
	hasAllow  bool // raw allowlist was non-empty, even if nothing compiled
}

// pattern is either a literal URL prefix or a domain glob pair.
type pattern struct {
	raw    string
	prefix string    // set when the pattern carries a scheme
	exact  glob.Glob // whole-domain match
	sub    glob.Glob // "*." + pattern with any leading "*." removed
}

// New compiles the URL half of cfg. Patterns that fail to compile are
// logged and never match.
func New(cfg models.FilterConfig, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		mode:      cfg.URLFilterMode,
		allowlist: compileAll(cfg.AllowlistURLs, logger),
		blocklist: compileAll(cfg.BlocklistURLs, logger),
		hasAllow:  len(cfg.AllowlistURLs) > 0,
	}
}

// IsAllowed reports whether currentURL passes the URL filter in cfg.
func IsAllowed(currentURL string, cfg models.FilterConfig) bool {
	return New(cfg, nil).Allowed(currentURL)
}

// Allowed reports whether currentURL passes the filter.
func (g *Gate) Allowed(currentURL string) bool {
	switch g.mode {
	case models.FilterAllowlist:
		if !g.hasAllow {
			return true
		}
		return matchAny(g.allowlist, currentURL)
	case models.FilterBlocklist:
		return !matchAny(g.blocklist, currentURL)
	default:
		return true
	}
}

// Mode returns the filter mode the gate was compiled with.
func (g *Gate) Mode() models.FilterMode {
	return g.mode
}

// Domain returns the lowercased host of rawURL without its port, or the
// lowercased raw string when no host can be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Hostname())
}

func matchAny(patterns []pattern, currentURL string) bool {
	lowerURL := strings.ToLower(currentURL)
	domain := Domain(currentURL)
	for _, p := range patterns {
		if p.prefix != "" {
			if strings.HasPrefix(lowerURL, p.prefix) {
				return true
			}
			continue
		}
		if p.exact.Match(domain) || p.sub.Match(domain) {
			return true
		}
	}
	return false
}

func compileAll(raw []string, logger *zap.Logger) []pattern {
	var out []pattern
	for _, r := range raw {
		p, ok := compile(r, logger)
		if ok {
			out = append(out, p)
		}
	}
	return out
}

func compile(raw string, logger *zap.Logger) (pattern, bool) {
	p := strings.ToLower(strings.TrimSpace(raw))
	if p == "" {
		return pattern{}, false
	}
	if strings.Contains(p, "://") {
		return pattern{raw: raw, prefix: p}, true
	}

	exact, err := glob.Compile(quoteDomain(p))
	if err != nil {
		logger.Warn("invalid url pattern", zap.String("pattern", raw), zap.Error(err))
		return pattern{}, false
	}
	base := strings.TrimPrefix(p, "*.")
	sub, err := glob.Compile("*." + quoteDomain(base))
	if err != nil {
		logger.Warn("invalid url pattern", zap.String("pattern", raw), zap.Error(err))
		return pattern{}, false
	}
	return pattern{raw: raw, exact: exact, sub: sub}, true
}

// quoteDomain escapes every glob meta character except '*', so '.' and
// friends stay literal.
func quoteDomain(p string) string {
	return strings.ReplaceAll(glob.QuoteMeta(p), `\*`, "*")
}
