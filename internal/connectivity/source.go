package connectivity

import (
	"context"
	"net"
)

// InterfaceSource samples the kernel's view of the network: the terminal is
// considered online when any non-loopback interface is up and holds a global
// unicast address. No packets are sent.
type InterfaceSource struct{}

// NewInterfaceSource builds the production source.
func NewInterfaceSource() *InterfaceSource {
	return &InterfaceSource{}
}

// Sample implements Source.
func (s *InterfaceSource) Sample(_ context.Context) bool {
	interfaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip != nil && ip.IsGlobalUnicast() {
				return true
			}
		}
	}
	return false
}
