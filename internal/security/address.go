package security

import "net/netip"

// AddressClass describes the reachability class of a peer address.
type AddressClass int

const (
	// ClassPublic is a globally routable unicast address.
	ClassPublic AddressClass = iota
	// ClassLoopback covers 127.0.0.0/8 and ::1.
	ClassLoopback
	// ClassPrivate covers RFC 1918 ranges and IPv6 unique local addresses.
	ClassPrivate
	// ClassLinkLocal covers 169.254.0.0/16 and fe80::/10.
	ClassLinkLocal
	// ClassReserved covers unspecified, broadcast, multicast and other
	// non-unicast addresses.
	ClassReserved
)

func (c AddressClass) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassLoopback:
		return "loopback"
	case ClassPrivate:
		return "private"
	case ClassLinkLocal:
		return "link-local"
	case ClassReserved:
		return "reserved"
	default:
		return "unknown"
	}
}

// IsPublic reports whether the class is routable on the public internet.
func (c AddressClass) IsPublic() bool {
	return c == ClassPublic
}

var (
	sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")
	thisNetwork        = netip.MustParsePrefix("0.0.0.0/8")
	limitedBroadcast   = netip.AddrFrom4([4]byte{255, 255, 255, 255})
)

// ClassifyAddress reports the class of addr. IPv4-mapped IPv6 addresses are
// classified as their IPv4 form. The zero Addr is Reserved.
func ClassifyAddress(addr netip.Addr) AddressClass {
	if !addr.IsValid() {
		return ClassReserved
	}
	addr = addr.Unmap()

	switch {
	case addr.IsLoopback():
		return ClassLoopback
	case addr.IsLinkLocalUnicast():
		return ClassLinkLocal
	case addr.IsPrivate():
		return ClassPrivate
	case addr.Is4() && sharedAddressSpace.Contains(addr):
		return ClassPrivate
	case addr.IsUnspecified(),
		addr.IsMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsLinkLocalMulticast(),
		addr == limitedBroadcast,
		addr.Is4() && thisNetwork.Contains(addr):
		return ClassReserved
	}
	return ClassPublic
}

// AddrFromUint32 decodes the DCC wire representation of an IPv4 address: a
// single unsigned decimal integer in network byte order.
func AddrFromUint32(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
