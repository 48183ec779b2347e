package server

import (
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// carrier grade NAT, RFC 6598
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// IsPrivateIP reports whether address is a non public address:
// loopback, private, link local or shared address space
func IsPrivateIP(address string) (bool, error) {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return false, errors.New("address is not valid")
	}
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		sharedAddressSpace.Contains(addr), nil
}

// RealIP returns the first public address of X-Forwarded-For,
// else X-Real-Ip, else the host of the remote address
func RealIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	realIP := r.Header.Get("X-Real-Ip")
	for _, address := range strings.Split(forwarded, ",") {
		address = strings.TrimSpace(address)
		if private, err := IsPrivateIP(address); err == nil && !private {
			return address
		}
	}
	if realIP != "" || forwarded != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
