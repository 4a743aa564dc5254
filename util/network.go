package util

import (
	"context"
	"fmt"
	"net"
	"strconv"

	ircerr "fifoirc/internal/errors"
)

// ResolveIPv4 returns the first IPv4 address for host.  A literal IPv6
// address, or a name with no A record, fails with ErrNotIPv4; a name
// that cannot be resolved at all fails with a wrapped DNS error.
func ResolveIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("%s: %w", host, ircerr.ErrNotIPv4)
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, ircerr.Wrap("resolve", host, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", host, ircerr.ErrNotIPv4)
}

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
