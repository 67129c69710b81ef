package domainservice

import (
	"errors"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrNoRegistrableDomain is returned for IP literals and bare suffixes
var ErrNoRegistrableDomain = errors.New("host has no registrable domain")

// Calculator implements service.DomainCalculator
type Calculator struct{}

// NewCalculator creates a new domain calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// GetRoot extracts the root domain (eTLD+1) of a host, ignoring any port
func (c *Calculator) GetRoot(host string) (string, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "" || net.ParseIP(host) != nil {
		return "", ErrNoRegistrableDomain
	}
	return publicsuffix.EffectiveTLDPlusOne(host)
}
