package httputil

import (
	"net"
	"net/http"
)

// ClientIP returns the caller address without its port. chi's RealIP
// middleware has already folded proxy headers into RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
