package link

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/rs/zerolog"
	psnet "github.com/shirou/gopsutil/net"
)

// InterfaceLister returns the host's network interfaces.
type InterfaceLister func() ([]psnet.InterfaceStat, error)

// InterfaceLink watches a named network interface. The link is up when the
// interface is flagged up and carries at least one non link-local address.
type InterfaceLink struct {
	iface  string
	list   InterfaceLister
	logger zerolog.Logger
}

// NewInterfaceLink watches iface using the host interface table.
func NewInterfaceLink(iface string, logger zerolog.Logger) *InterfaceLink {
	return NewInterfaceLinkWithLister(iface, listInterfaces, logger)
}

func listInterfaces() ([]psnet.InterfaceStat, error) {
	return psnet.Interfaces()
}

// NewInterfaceLinkWithLister watches iface using list to enumerate interfaces.
func NewInterfaceLinkWithLister(iface string, list InterfaceLister, logger zerolog.Logger) *InterfaceLink {
	return &InterfaceLink{iface: iface, list: list, logger: logger}
}

// Name returns the interface name.
func (l *InterfaceLink) Name() string { return l.iface }

// Connected reports whether the interface is up with a usable address.
// Probe errors count as down.
func (l *InterfaceLink) Connected() bool {
	up, err := l.probe()
	if err != nil {
		l.logger.Debug().Err(err).Str("interface", l.iface).Msg("Link probe failed")
		return false
	}
	return up
}

// Attach re-probes the interface; the interface itself is brought up by the OS.
func (l *InterfaceLink) Attach(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	up, err := l.probe()
	if err != nil {
		return err
	}
	if !up {
		return fmt.Errorf("interface %s has no usable address", l.iface)
	}
	return nil
}

func (l *InterfaceLink) probe() (bool, error) {
	ifaces, err := l.list()
	if err != nil {
		return false, fmt.Errorf("list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Name != l.iface {
			continue
		}
		return isUp(iface) && hasRoutableAddr(iface), nil
	}
	return false, fmt.Errorf("interface %s not found", l.iface)
}

func isUp(iface psnet.InterfaceStat) bool {
	for _, flag := range iface.Flags {
		if flag == "up" {
			return true
		}
	}
	return false
}

func hasRoutableAddr(iface psnet.InterfaceStat) bool {
	for _, a := range iface.Addrs {
		prefix, err := netip.ParsePrefix(a.Addr)
		if err != nil {
			addr, aerr := netip.ParseAddr(strings.TrimSpace(a.Addr))
			if aerr != nil {
				continue
			}
			prefix = netip.PrefixFrom(addr, addr.BitLen())
		}
		addr := prefix.Addr()
		if addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsUnspecified() {
			continue
		}
		return true
	}
	return false
}
