// Package gate redirects requests for protected path prefixes to a login page
// when the advisory session marker cookie is absent.
//
// The marker is a routing hint only. The gate never authorizes anything and
// never looks at roles; handlers behind it still verify the session.
package gate

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/rahal-app/rahal-backend/internal/config"
)

// Gate matches request paths against protected prefixes.
type Gate struct {
	marker string
	rules  []config.GateRule
}

// New builds a gate. Rules are tried longest prefix first.
func New(rules config.GateRules) *Gate {
	sorted := append([]config.GateRule(nil), rules.Rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Gate{marker: rules.MarkerCookie, rules: sorted}
}

// Match returns the rule protecting path, if any. Prefixes match whole path
// segments, so /app covers /app and /app/x but not /apple.
func (g *Gate) Match(path string) (config.GateRule, bool) {
	for _, r := range g.rules {
		if !hasSegmentPrefix(path, r.Prefix) {
			continue
		}
		for _, ex := range r.Exclude {
			if path == ex || hasSegmentPrefix(path, ex) {
				return config.GateRule{}, false
			}
		}
		return r, true
	}
	return config.GateRule{}, false
}

// RedirectTarget is the login URL for a request to path?rawQuery.
func RedirectTarget(rule config.GateRule, path, rawQuery string) string {
	next := path
	if rawQuery != "" {
		next += "?" + rawQuery
	}
	return rule.Login + "?" + url.Values{"next": {next}}.Encode()
}

// Middleware answers 307 for protected paths without the marker cookie and
// passes everything else through untouched.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, ok := g.Match(r.URL.Path)
		if !ok || g.hasMarker(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, RedirectTarget(rule, r.URL.Path, r.URL.RawQuery), http.StatusTemporaryRedirect)
	})
}

func (g *Gate) hasMarker(r *http.Request) bool {
	c, err := r.Cookie(g.marker)
	return err == nil && c.Value != ""
}

func hasSegmentPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
