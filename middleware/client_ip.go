package middleware

import (
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the request's client address. Forwarding headers are only
// honored when trustForwarded is set.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if candidate := normalizeAddr(strings.TrimSpace(first)); candidate != "" {
				return candidate
			}
		}
		if realIP := normalizeAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); realIP != "" {
			return realIP
		}
	}

	hostPort := strings.TrimSpace(r.RemoteAddr)
	if hostPort == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(hostPort); err == nil {
		return addr.Addr().Unmap().String()
	}
	if addr := normalizeAddr(hostPort); addr != "" {
		return addr
	}
	return hostPort
}

func normalizeAddr(s string) string {
	if s == "" {
		return ""
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.Unmap().String()
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap().String()
	}
	return ""
}
