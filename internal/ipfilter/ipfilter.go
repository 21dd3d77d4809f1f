// Package ipfilter restricts HTTP access to configured networks
package ipfilter

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Filter holds the allowed networks and the proxies whose forwarding headers
// are honored. An empty filter allows everyone.
type Filter struct {
	prefixes []netip.Prefix
	proxies  []netip.Prefix
	logger   *slog.Logger
}

// New builds a filter from single addresses and CIDRs; invalid entries are
// logged and skipped
func New(allowed []string, logger *slog.Logger) *Filter {
	return &Filter{
		prefixes: parsePrefixes(allowed, "allowed_ips", logger),
		logger:   logger,
	}
}

// TrustProxies sets the peers allowed to report the client address through
// X-Forwarded-For or X-Real-IP. Without it those headers are ignored.
func (f *Filter) TrustProxies(proxies []string) *Filter {
	f.proxies = parsePrefixes(proxies, "trusted_proxies", f.logger)
	return f
}

func parsePrefixes(entries []string, field string, logger *slog.Logger) []netip.Prefix {
	var out []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				logger.Warn("invalid CIDR in "+field, "cidr", entry, "error", err)
				continue
			}
			out = append(out, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			logger.Warn("invalid IP in "+field, "ip", entry, "error", err)
			continue
		}
		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return out
}

func (f *Filter) Enabled() bool {
	return len(f.prefixes) > 0
}

func (f *Filter) Count() int {
	return len(f.prefixes)
}

// TrustsProxies reports whether any forwarding proxy is configured
func (f *Filter) TrustsProxies() bool {
	return len(f.proxies) > 0
}

// Allows reports whether addr may pass
func (f *Filter) Allows(addr netip.Addr) bool {
	if !f.Enabled() {
		return true
	}
	return contains(f.prefixes, addr)
}

func contains(prefixes []netip.Prefix, addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the connection address. When the peer is a trusted proxy
// the nearest untrusted X-Forwarded-For hop wins, then X-Real-IP.
func (f *Filter) ClientIP(r *http.Request) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	if !contains(f.proxies, peer) {
		return peer, true
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		client := peer
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			client = addr
			if !contains(f.proxies, addr) {
				break
			}
		}
		return client, true
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr, true
		}
	}
	return peer, true
}

// RealIP rewrites RemoteAddr to the forwarded client address for requests
// relayed by a trusted proxy
func (f *Filter) RealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if addr, ok := f.ClientIP(r); ok {
			r.RemoteAddr = addr.String()
		}
		next.ServeHTTP(w, r)
	})
}

// Middleware rejects requests from addresses outside the filter with 403
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		addr, ok := f.ClientIP(r)
		if !ok {
			f.logger.Warn("could not parse client IP", "remote_addr", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if !f.Allows(addr) {
			f.logger.Warn("access denied by IP filter", "ip", addr.String(), "path", r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
