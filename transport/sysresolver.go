package transport

import (
	"fmt"
	"net/netip"
	"runtime"

	"github.com/miekg/dns"
)

// resolvConfPath is the standard UNIX resolver configuration file.
const resolvConfPath = "/etc/resolv.conf"

// SystemResolvers returns the OS-configured nameserver addresses in
// configuration order.
func SystemResolvers() ([]netip.Addr, error) {
	if runtime.GOOS == "windows" {
		return nil, fmt.Errorf("system resolver discovery is not supported on %s; use @resolver", runtime.GOOS)
	}
	cfg, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", resolvConfPath, err)
	}
	var addrs []netip.Addr
	for _, s := range cfg.Servers {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			continue
		}
		addrs = append(addrs, addr)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no nameservers found in %s", resolvConfPath)
	}
	return addrs, nil
}
