package web

import (
	"net"
	"net/http"

	"github.com/JonMunkholm/visadir/internal/core"
)

// clientIP returns the IP resolved by TrustedRealIP, or the connection
// address when the middleware did not run.
func clientIP(r *http.Request) string {
	if ip := core.GetIPAddressFromContext(r.Context()); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
