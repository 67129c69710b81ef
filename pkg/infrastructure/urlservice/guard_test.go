package urlservice

import (
	"context"
	"errors"
	"net/netip"
	"testing"
)

type stubResolver struct {
	ips   map[string][]string
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, host string) ([]string, error) {
	s.calls++
	ips, ok := s.ips[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return ips, nil
}

func TestGuard_IsBlockedHost(t *testing.T) {
	resolver := &stubResolver{ips: map[string][]string{
		"public.example":   {"93.184.216.34"},
		"internal.example": {"10.1.2.3"},
		"mixed.example":    {"93.184.216.34", "192.168.1.1"},
		"empty.example":    {},
	}}
	guard := NewGuard(resolver)

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"public name", "https://public.example/", false},
		{"private name", "https://internal.example/", true},
		{"any private address", "https://mixed.example/", true},
		{"no addresses", "https://empty.example/", true},
		{"resolution failure", "https://unknown.example/", true},
		{"loopback literal", "http://127.0.0.1:8080/", true},
		{"link local literal", "http://169.254.169.254/latest/meta-data", true},
		{"rfc1918 172 literal", "http://172.20.0.5/", true},
		{"outside 172.16/12", "http://172.32.0.1/", false},
		{"public literal", "http://8.8.8.8/", false},
		{"ipv6 loopback", "http://[::1]/", true},
		{"empty host", "http:///path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := guard.IsBlockedHost(context.Background(), tt.url); got != tt.expected {
				t.Errorf("IsBlockedHost(%s) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestGuard_LiteralSkipsResolver(t *testing.T) {
	resolver := &stubResolver{}
	guard := NewGuard(resolver)

	guard.IsBlockedHost(context.Background(), "http://192.168.0.10/")
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times for an IP literal, want 0", resolver.calls)
	}
}

func TestGuard_Check(t *testing.T) {
	guard := NewGuard(&stubResolver{ips: map[string][]string{"example.com": {"93.184.216.34"}}})

	if err := guard.Check(context.Background(), "https://example.com"); err != nil {
		t.Errorf("Check(public) = %v, want nil", err)
	}
	if err := guard.Check(context.Background(), "ftp://example.com"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("Check(ftp) = %v, want ErrUnsupportedScheme", err)
	}
	if err := guard.Check(context.Background(), "http://10.0.0.1"); !errors.Is(err, ErrBlockedHost) {
		t.Errorf("Check(10.0.0.1) = %v, want ErrBlockedHost", err)
	}
}

func TestIsBlockedAddr_Mapped(t *testing.T) {
	addr := netip.MustParseAddr("::ffff:127.0.0.1")
	if !IsBlockedAddr(addr) {
		t.Error("IPv4-mapped loopback should be blocked")
	}
}
