package client

import "strings"

// ResolveResultURL makes a server-relative result URL absolute. Empty input
// stays empty and URLs that already carry an http(s) scheme are unchanged.
func ResolveResultURL(origin, u string) string {
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(u, "/")
}
