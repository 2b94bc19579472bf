package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/net/publicsuffix"
)

// ScopeGuard decides whether a URL is inside the session's allowed-domain
// scope. Patterns are host globs ("*.example.com", "docs.example.com"); a
// bare registrable domain ("example.com") also admits every host under it.
// An empty pattern list admits everything.
type ScopeGuard struct {
	patterns []string
	globs    []glob.Glob
}

// NewScopeGuard compiles the given host patterns.
func NewScopeGuard(patterns []string) (*ScopeGuard, error) {
	guard := &ScopeGuard{patterns: patterns}
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid domain pattern %q: %w", pattern, err)
		}
		guard.globs = append(guard.globs, g)
	}
	return guard, nil
}

// Allows reports whether rawURL's host falls inside the scope. Unparseable
// URLs and non-http(s) schemes are out of scope.
func (g *ScopeGuard) Allows(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if len(g.patterns) == 0 {
		return true
	}

	host := strings.ToLower(u.Hostname())
	for i, compiled := range g.globs {
		if compiled.Match(host) {
			return true
		}
		if sameRegistrableDomain(host, strings.ToLower(g.patterns[i])) {
			return true
		}
	}
	return false
}

// sameRegistrableDomain reports whether host and pattern share an eTLD+1,
// so "example.com" admits "shop.example.com" without requiring a glob.
func sameRegistrableDomain(host, pattern string) bool {
	if strings.ContainsAny(pattern, "*?[") {
		return false
	}
	hostBase, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	patternBase, err := publicsuffix.EffectiveTLDPlusOne(pattern)
	if err != nil {
		return false
	}
	return hostBase == patternBase
}
