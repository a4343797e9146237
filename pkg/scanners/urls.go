package scanners

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// platformDomains are the registrable domains a packaged component should
// never address directly.
var platformDomains = map[string]bool{
	"cloudforce.com":       true,
	"database.com":         true,
	"documentforce.com":    true,
	"force.com":            true,
	"salesforce-sites.com": true,
	"salesforce.com":       true,
	"site.com":             true,
	"visualforce.com":      true,
}

var urlPattern = regexp.MustCompile(`(?i)\bhttps?://[a-z0-9][a-z0-9.-]*[a-z0-9](?::[0-9]+)?`)

// platformHosts returns the host of every hard-coded URL in text that lies
// under a platform domain, one entry per occurrence.
func platformHosts(text []byte) []string {
	var out []string
	for _, m := range urlPattern.FindAll(text, -1) {
		host, ok := platformHost(string(m))
		if ok {
			out = append(out, host)
		}
	}
	return out
}

func platformHost(literal string) (string, bool) {
	u, err := url.Parse(literal)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, ".") {
		return "", false
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return "", false
	}
	return host, underPlatform(domain)
}

// underPlatform also accepts platform subdomains the suffix list registers
// as suffixes of their own, such as my.salesforce.com.
func underPlatform(domain string) bool {
	for {
		if platformDomains[domain] {
			return true
		}
		i := strings.IndexByte(domain, '.')
		if i < 0 {
			return false
		}
		domain = domain[i+1:]
	}
}
