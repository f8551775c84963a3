package link

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// mDNS service parameters.
const (
	ServiceType = "_voicetimer._tcp"
	Domain      = "local."
)

// TXT record keys.
const (
	TXTKeyVersion  = "ver"
	TXTKeyCapacity = "cap"
	TXTKeyName     = "name"
)

// ServiceInfo describes an advertised device.
type ServiceInfo struct {
	// Instance is the mDNS instance name.
	Instance string

	// Port is the link listener port.
	Port int

	// Capacity is the number of timer slots.
	Capacity int

	// Name is a human-readable device name.
	Name string

	// Version is the link protocol version.
	Version int
}

// ProtocolVersion is the link protocol version advertised in TXT records.
const ProtocolVersion = 1

// EncodeTXT returns the TXT strings for info.
func EncodeTXT(info ServiceInfo) []string {
	version := info.Version
	if version == 0 {
		version = ProtocolVersion
	}
	txt := []string{
		TXTKeyVersion + "=" + strconv.Itoa(version),
		TXTKeyCapacity + "=" + strconv.Itoa(info.Capacity),
	}
	if info.Name != "" {
		txt = append(txt, TXTKeyName+"="+info.Name)
	}
	return txt
}

// DecodeTXT fills the TXT-derived fields of info. Unknown keys and
// malformed numbers are ignored.
func DecodeTXT(txt []string, info *ServiceInfo) {
	for _, kv := range txt {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch key {
		case TXTKeyVersion:
			if n, err := strconv.Atoi(value); err == nil {
				info.Version = n
			}
		case TXTKeyCapacity:
			if n, err := strconv.Atoi(value); err == nil {
				info.Capacity = n
			}
		case TXTKeyName:
			info.Name = value
		}
	}
}

// Advertiser publishes a link listener over mDNS.
type Advertiser struct {
	// TTL overrides the record TTL when non-zero.
	TTL time.Duration

	// Interface restricts advertising to one interface; empty means all.
	Interface string

	mu     sync.Mutex
	server *zeroconf.Server
}

// Advertise starts advertising info, replacing any earlier registration.
func (a *Advertiser) Advertise(info ServiceInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	var opts []zeroconf.ServerOption
	if a.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		info.Instance,
		ServiceType,
		Domain,
		info.Port,
		EncodeTXT(info),
		interfaces(a.Interface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	a.server = server
	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

func interfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Service is a device found by Browse.
type Service struct {
	ServiceInfo

	// Addresses are dialable host:port strings.
	Addresses []string
}

// Browse searches for devices until ctx is done. Each instance is
// reported once; addresses seen on later answers are not re-reported.
func Browse(ctx context.Context) (<-chan Service, error) {
	out := make(chan Service)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)

		seen := make(map[string]bool)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if entry == nil || seen[entry.Instance] {
					continue
				}
				svc := entryToService(entry)
				if len(svc.Addresses) == 0 {
					continue
				}
				seen[entry.Instance] = true
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if ok && entry != nil {
					delete(seen, entry.Instance)
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed)
	}()

	return out, nil
}

// BrowseFirst returns the first device found before ctx is done.
func BrowseFirst(ctx context.Context) (Service, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	services, err := Browse(ctx)
	if err != nil {
		return Service{}, err
	}
	svc, ok := <-services
	if !ok {
		return Service{}, fmt.Errorf("no %s service found: %w", ServiceType, ctx.Err())
	}
	return svc, nil
}

func entryToService(entry *zeroconf.ServiceEntry) Service {
	svc := Service{ServiceInfo: ServiceInfo{Instance: entry.Instance, Port: entry.Port}}
	DecodeTXT(entry.Text, &svc.ServiceInfo)

	port := strconv.Itoa(entry.Port)
	for _, ip := range entry.AddrIPv4 {
		svc.Addresses = append(svc.Addresses, net.JoinHostPort(ip.String(), port))
	}
	for _, ip := range entry.AddrIPv6 {
		svc.Addresses = append(svc.Addresses, net.JoinHostPort(ip.String(), port))
	}
	sort.Strings(svc.Addresses)
	return svc
}
