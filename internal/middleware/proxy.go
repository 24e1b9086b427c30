package middleware

import (
	"fmt"
	"net"

	"github.com/labstack/echo/v4"
)

// DefaultTrustedProxies are the private ranges a container platform's
// reverse proxy usually connects from.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8",    // Localhost
	"10.0.0.0/8",     // Docker default bridge
	"172.16.0.0/12",  // Docker bridge (alternate range)
	"192.168.0.0/16", // Common LAN
	"fd00::/8",       // IPv6 private
}

// TrustedProxies configures Echo so c.RealIP() reads X-Forwarded-For only
// when the direct peer falls inside one of trustedCIDRs. Requests from any
// other peer report the peer address itself.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) error {
	opts := []echo.TrustOption{
		// Only the explicit ranges below are trusted.
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("parsing trusted proxy %q: %w", cidr, err)
		}
		opts = append(opts, echo.TrustIPRange(network))
	}

	e.IPExtractor = echo.ExtractIPFromXFFHeader(opts...)
	return nil
}
