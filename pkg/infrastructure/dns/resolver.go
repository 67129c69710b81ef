package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// ErrNoAddresses is returned when a name resolves to nothing
var ErrNoAddresses = errors.New("no addresses found")

// Resolver implements service.HostResolver against explicit DNS servers
type Resolver struct {
	servers []string
	timeout time.Duration
	client  *dns.Client
}

// Config holds DNS resolver configuration
type Config struct {
	Servers []string
	Timeout time.Duration
}

// NewResolver creates a new DNS resolver
func NewResolver(config Config) *Resolver {
	if len(config.Servers) == 0 {
		config.Servers = []string{
			"8.8.8.8:53",
			"1.1.1.1:53",
		}
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &Resolver{
		servers: config.Servers,
		timeout: config.Timeout,
		client: &dns.Client{
			Timeout: config.Timeout,
		},
	}
}

// Resolve implements service.HostResolver. A and AAAA answers are both
// returned so the guard can inspect every address a name maps to.
func (r *Resolver) Resolve(ctx context.Context, host string) ([]string, error) {
	var ips []string
	var lastErr error
	answered := false

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		resp, err := r.exchange(ctx, host, qtype)
		if err != nil {
			lastErr = err
			continue
		}
		answered = true
		for _, answer := range resp.Answer {
			switch rr := answer.(type) {
			case *dns.A:
				ips = append(ips, rr.A.String())
			case *dns.AAAA:
				ips = append(ips, rr.AAAA.String())
			}
		}
	}

	if !answered {
		return nil, lastErr
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoAddresses, host)
	}
	return ips, nil
}

func (r *Resolver) exchange(ctx context.Context, host string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		queryCtx, cancel := context.WithTimeout(ctx, r.timeout)
		resp, _, err := r.client.ExchangeContext(queryCtx, msg, server)
		cancel()

		if err == nil && resp != nil {
			if resp.Rcode == dns.RcodeNameError {
				return nil, fmt.Errorf("%s: %s", host, dns.RcodeToString[resp.Rcode])
			}
			return resp, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no response from any DNS server")
	}
	return nil, lastErr
}

// SystemResolver implements service.HostResolver with the platform resolver
type SystemResolver struct {
	resolver *net.Resolver
}

// NewSystemResolver creates a resolver backed by net.DefaultResolver
func NewSystemResolver() *SystemResolver {
	return &SystemResolver{resolver: net.DefaultResolver}
}

// Resolve implements service.HostResolver
func (r *SystemResolver) Resolve(ctx context.Context, host string) ([]string, error) {
	ips, err := r.resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoAddresses, host)
	}
	return ips, nil
}
