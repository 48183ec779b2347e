package config

import (
	"net"
	"strings"
)

// CIDRSliceFlag flag.Value of comma separated CIDR networks, e.g. 10.0.0.0/8,::1/128
type CIDRSliceFlag []*net.IPNet

// Set parses value, skipping blank entries
func (s *CIDRSliceFlag) Set(value string) error {
	networks := CIDRSliceFlag{}
	for _, cidr := range strings.Split(value, ",") {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			return err
		}
		networks = append(networks, n)
	}
	*s = networks
	return nil
}

func (s *CIDRSliceFlag) String() string {
	cidrs := make([]string, len(*s))
	for i, n := range *s {
		cidrs[i] = n.String()
	}
	return strings.Join(cidrs, ",")
}

// Get implements flag.Getter
func (s *CIDRSliceFlag) Get() any {
	return s
}
