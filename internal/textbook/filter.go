package textbook

import (
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// FilterLinks keeps absolute http(s) links that pass the domain lists,
// deduplicated in first-seen order. A non-empty whitelist overrides the
// blacklist. Fragments are dropped so anchors into one page fetch once.
func FilterLinks(links, whitelist, blacklist []string) []string {
	normalized := lo.FilterMap(links, func(link string, _ int) (string, bool) {
		u, err := url.Parse(strings.TrimSpace(link))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", false
		}
		u.Fragment = ""
		return u.String(), true
	})

	allowed := lo.Filter(normalized, func(link string, _ int) bool {
		host := hostOf(link)
		if len(whitelist) > 0 {
			return matchesAnyDomain(host, whitelist)
		}
		return !matchesAnyDomain(host, blacklist)
	})

	return lo.Uniq(allowed)
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// matchesAnyDomain reports whether host is one of domains or a subdomain
// of one.
func matchesAnyDomain(host string, domains []string) bool {
	return lo.SomeBy(domains, func(d string) bool {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "."))
		return d != "" && (host == d || strings.HasSuffix(host, "."+d))
	})
}
