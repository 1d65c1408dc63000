package registry

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// txtPrefix is the label prefix for ticker claim TXT records:
	// _ticker.{domain} TXT "ticker={symbol}".
	txtPrefix = "_ticker."

	// txtKey is the key part of a ticker claim TXT record.
	txtKey = "ticker="

	// defaultUpstream is the default recursive resolver for
	// authenticated lookups.
	defaultUpstream = "8.8.8.8:53"

	// lookupTimeout is the timeout for authenticated DNS queries.
	lookupTimeout = 10 * time.Second

	// edns0BufSize is the EDNS0 UDP buffer size.
	edns0BufSize = 4096
)

// TXTResolver defines the interface for TXT record lookups.
// This allows tests to mock DNS resolution.
type TXTResolver interface {
	// LookupTXT looks up TXT records for the given name.
	LookupTXT(name string) ([]string, error)
}

// defaultTXTResolver wraps the standard net package DNS functions.
type defaultTXTResolver struct{}

func (d *defaultTXTResolver) LookupTXT(name string) ([]string, error) {
	return net.LookupTXT(name)
}

// DefaultResolver is the production TXT resolver using the net package.
var DefaultResolver TXTResolver = &defaultTXTResolver{}

// AuthenticatedResolver implements TXTResolver with DNSSEC validation.
// It relies on the upstream recursive resolver to validate DNSSEC and
// checks the AD (Authenticated Data) flag in responses.
type AuthenticatedResolver struct {
	// Upstream is the recursive resolver address (e.g., "8.8.8.8:53").
	Upstream string
}

// NewAuthenticatedResolver creates an AuthenticatedResolver.
// If upstream is empty, it defaults to "8.8.8.8:53".
func NewAuthenticatedResolver(upstream string) *AuthenticatedResolver {
	if upstream == "" {
		upstream = defaultUpstream
	}
	return &AuthenticatedResolver{Upstream: upstream}
}

// LookupTXT looks up TXT records with DNSSEC validation.
func (r *AuthenticatedResolver) LookupTXT(name string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true
	msg.SetEdns0(edns0BufSize, true) // DO (DNSSEC OK) flag

	client := &dns.Client{Timeout: lookupTimeout}
	resp, _, err := client.Exchange(msg, r.Upstream)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s TXT: %w", ErrDNSLookupFailed, name, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: query %s TXT: rcode %s",
			ErrDNSLookupFailed, name, dns.RcodeToString[resp.Rcode])
	}
	if !resp.AuthenticatedData {
		return nil, fmt.Errorf("%w: AD flag not set for %s TXT", ErrDNSSECValidationFailed, name)
	}

	var records []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			records = append(records, strings.Join(txt.Txt, ""))
		}
	}
	return records, nil
}

// VerifyTargetDomain checks that the domain of a registration's target
// URL claims the ticker symbol: _ticker.{host} must publish a TXT
// record "ticker={symbol}" (symbol compared case-insensitively).
// Verification is advisory; no registry operation requires it.
func VerifyTargetDomain(reg *TickerRegistration, resolver TXTResolver) error {
	if resolver == nil {
		resolver = DefaultResolver
	}

	host, err := targetHost(reg.TargetURL)
	if err != nil {
		return err
	}

	records, err := resolver.LookupTXT(txtPrefix + host)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDNSLookupFailed, err)
	}

	for _, rec := range records {
		rec = strings.TrimSpace(rec)
		if !strings.HasPrefix(strings.ToLower(rec), txtKey) {
			continue
		}
		claimed := strings.TrimSpace(rec[len(txtKey):])
		if strings.EqualFold(claimed, reg.Ticker) {
			return nil
		}
	}
	return fmt.Errorf("%w: no TXT record for %q at %s%s", ErrDomainNotVerified, reg.Ticker, txtPrefix, host)
}

// targetHost extracts the hostname from a target URL. Bare hostnames
// without a scheme are accepted.
func targetHost(rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("%w: empty target URL", ErrInvalidTargetURL)
	}
	u, err := url.Parse(rawURL)
	if err == nil && u.Host != "" {
		return u.Hostname(), nil
	}
	// No scheme: treat the first path segment as the host.
	u, err = url.Parse("https://" + rawURL)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidTargetURL, rawURL)
	}
	return u.Hostname(), nil
}
