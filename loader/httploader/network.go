package httploader

import (
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/cshum/filterkit"
)

// ErrUnauthorizedNetwork origin resolved to a blocked network
var ErrUnauthorizedNetwork = filterkit.NewError("unauthorized request", http.StatusForbidden)

// networkGuard rejects dialing addresses of blocked networks
type networkGuard struct {
	Loopback  bool
	Private   bool
	LinkLocal bool
	Networks  []*net.IPNet
}

func (g *networkGuard) enabled() bool {
	return g.Loopback || g.Private || g.LinkLocal || len(g.Networks) > 0
}

func (g *networkGuard) blocked(ip net.IP) bool {
	if g.Loopback && ip.IsLoopback() {
		return true
	}
	if g.Private && ip.IsPrivate() {
		return true
	}
	if g.LinkLocal && (ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()) {
		return true
	}
	for _, network := range g.Networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// control checks the resolved address right before connecting,
// so DNS rebinding cannot bypass the guard
func (g *networkGuard) control(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return errors.New("invalid ip address: " + host)
	}
	if g.blocked(ip) {
		return ErrUnauthorizedNetwork
	}
	return nil
}

func (g *networkGuard) transport(base http.RoundTripper) http.RoundTripper {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if t, ok := base.(*http.Transport); ok {
		transport = t.Clone()
	}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   g.control,
	}
	transport.DialContext = dialer.DialContext
	return transport
}
