package urlutil

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// Private and reserved ranges outbound fetches must never reach.
var blockedRanges = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// Cloud metadata endpoints blocked by name before resolution.
var blockedHosts = map[string]struct{}{
	"metadata.google.internal": {},
	"169.254.169.254":          {},
}

// ValidateExternal checks that a URL is safe to fetch from this process:
// http or https only, no metadata endpoints, and no hostname resolving to a
// private or reserved address.
func ValidateExternal(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &SSRFError{URL: rawURL, Reason: "unparseable"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &SSRFError{URL: rawURL, Reason: fmt.Sprintf("scheme %q not allowed, only http/https", u.Scheme)}
	}
	host := u.Hostname()
	if host == "" {
		return &SSRFError{URL: rawURL, Reason: "no hostname"}
	}
	if _, ok := blockedHosts[strings.ToLower(host)]; ok {
		return &SSRFError{URL: rawURL, Reason: fmt.Sprintf("host %q is a blocked metadata endpoint", host)}
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return &SSRFError{URL: rawURL, Reason: fmt.Sprintf("cannot resolve hostname %q", host)}
	}
	for _, addr := range addrs {
		ip, ok := netip.AddrFromSlice(addr.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		for _, blocked := range blockedRanges {
			if blocked.Contains(ip) {
				return &SSRFError{URL: rawURL, Reason: fmt.Sprintf("resolves to private/reserved address %s", ip)}
			}
		}
	}
	return nil
}
