package urlservice

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"net/url"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/service"
)

var (
	// ErrUnsupportedScheme is returned for anything other than http(s)
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrBlockedHost is returned when the host is private, unresolvable or empty
	ErrBlockedHost = errors.New("blocked host")
)

var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

// Guard implements service.HostGuard. It fails closed: a host that cannot
// be resolved is treated as blocked.
type Guard struct {
	resolver service.HostResolver
}

// NewGuard creates a guard resolving names through resolver
func NewGuard(resolver service.HostResolver) *Guard {
	return &Guard{resolver: resolver}
}

// Check implements service.HostGuard
func (g *Guard) Check(ctx context.Context, rawURL string) error {
	if !IsHTTPURL(rawURL) {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	if g.IsBlockedHost(ctx, rawURL) {
		return fmt.Errorf("%w: %q", ErrBlockedHost, rawURL)
	}
	return nil
}

// IsBlockedHost reports whether the URL's host is empty, unresolvable, or
// resolves into a private or link-local range
func (g *Guard) IsBlockedHost(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	host := u.Hostname()
	if host == "" {
		return true
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return IsBlockedAddr(addr)
	}

	if g.resolver == nil {
		return true
	}
	ips, err := g.resolver.Resolve(ctx, host)
	if err != nil || len(ips) == 0 {
		return true
	}
	for _, ip := range ips {
		addr, err := netip.ParseAddr(ip)
		if err != nil || IsBlockedAddr(addr) {
			return true
		}
	}
	return false
}

// IsBlockedAddr reports whether addr falls in a blocked range
func IsBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.Is6() {
		return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
	}
	for _, prefix := range blockedPrefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
