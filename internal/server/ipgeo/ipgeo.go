// Package ipgeo tags request log lines with a coarse origin. Lookups go
// through a local MaxMind MMDB file so no request data leaves the host.
package ipgeo

import (
	"net/netip"

	"github.com/oschwald/maxminddb-golang/v2"
)

// Tailscale hands out addresses from the CGNAT block 100.64.0.0/10.
var tailscalePrefix = netip.MustParsePrefix("100.64.0.0/10")

// Checker maps client IPs to short origin labels for access logs.
type Checker struct {
	reader *maxminddb.Reader
}

// Open loads the MMDB database at dbPath.
func Open(dbPath string) (*Checker, error) {
	r, err := maxminddb.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Checker{reader: r}, nil
}

func (c *Checker) Close() error {
	return c.reader.Close()
}

// CountryCode labels an IP for logging. LAN, loopback and unspecified
// addresses come back as "local", the Tailscale CGNAT range as "tailscale",
// anything else resolves to its ISO 3166-1 alpha-2 code via the database.
// Unparseable input and failed lookups come back as "".
func (c *Checker) CountryCode(ipStr string) string {
	addr, err := netip.ParseAddr(ipStr)
	if err != nil {
		return ""
	}
	switch {
	case addr.IsLoopback(), addr.IsPrivate(), addr.IsUnspecified(), addr.IsLinkLocalUnicast():
		return "local"
	case tailscalePrefix.Contains(addr):
		return "tailscale"
	}
	var rec struct {
		Country struct {
			ISOCode string `maxminddb:"iso_code"`
		} `maxminddb:"country"`
	}
	if err := c.reader.Lookup(addr).Decode(&rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}
