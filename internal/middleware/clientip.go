package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// =============================================================================
// Client IP Resolution
// =============================================================================

// TrustedProxies resolves the client address of a request.
//
// Forwarding headers are honored only when the direct peer is one of the
// configured proxies. A nil *TrustedProxies trusts nobody and always uses
// r.RemoteAddr.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// NewTrustedProxies parses proxy addresses and CIDR ranges
// (e.g. "10.0.0.1", "172.16.0.0/12"). Blank entries are skipped.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	tp := &TrustedProxies{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			tp.prefixes = append(tp.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		tp.prefixes = append(tp.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return tp, nil
}

// Trusts reports whether ip belongs to a configured proxy.
func (tp *TrustedProxies) Trusts(ip string) bool {
	if tp == nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range tp.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the address that rate limits and lockouts are keyed on.
//
// With an untrusted peer this is the peer itself. Behind a trusted proxy the
// X-Forwarded-For chain is walked from the right and the first hop that is
// not a trusted proxy wins; X-Real-IP is used when there is no chain.
func (tp *TrustedProxies) ClientIP(r *http.Request) string {
	peer := remoteIP(r)
	if !tp.Trusts(peer) {
		return peer
	}

	var hops []string
	for _, value := range r.Header.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(value, ",")...)
	}
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			// A malformed hop cannot be attributed; stop at the last good one.
			return peer
		}
		peer = addr.Unmap().String()
		if !tp.Trusts(peer) {
			return peer
		}
	}
	if len(hops) > 0 {
		return peer
	}

	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}
	return peer
}

// remoteIP returns the host part of r.RemoteAddr.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		host = r.RemoteAddr
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap().String()
	}
	return host
}
