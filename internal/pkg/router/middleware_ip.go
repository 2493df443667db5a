package router

import (
	"net"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// middlewareIP replaces RemoteAddr with the client address reported by the proxy, if valid.
func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := clientIP(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	forwarded, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	ip := strings.TrimSpace(lo.CoalesceOrEmpty(
		r.Header.Get("True-Client-IP"),
		r.Header.Get("X-Real-IP"),
		forwarded,
	))
	if net.ParseIP(ip) != nil {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return ""
}
