package security

import (
	"net/netip"
	"testing"
)

func TestClassifyAddress(t *testing.T) {
	tests := []struct {
		addr string
		want AddressClass
	}{
		{"8.8.8.8", ClassPublic},
		{"1.1.1.1", ClassPublic},
		{"172.32.0.1", ClassPublic},
		{"192.169.0.1", ClassPublic},
		{"127.0.0.1", ClassLoopback},
		{"127.255.255.254", ClassLoopback},
		{"10.0.0.1", ClassPrivate},
		{"10.255.255.255", ClassPrivate},
		{"172.16.0.1", ClassPrivate},
		{"172.31.255.255", ClassPrivate},
		{"192.168.1.5", ClassPrivate},
		{"100.64.0.1", ClassPrivate},
		{"169.254.0.1", ClassLinkLocal},
		{"169.254.255.255", ClassLinkLocal},
		{"0.0.0.0", ClassReserved},
		{"0.1.2.3", ClassReserved},
		{"255.255.255.255", ClassReserved},
		{"224.0.0.1", ClassReserved},
		{"::1", ClassLoopback},
		{"fe80::1", ClassLinkLocal},
		{"fd00::1", ClassPrivate},
		{"::ffff:192.168.0.1", ClassPrivate},
		{"::ffff:8.8.8.8", ClassPublic},
		{"2001:4860:4860::8888", ClassPublic},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got := ClassifyAddress(netip.MustParseAddr(tt.addr))
			if got != tt.want {
				t.Fatalf("ClassifyAddress(%s) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestClassifyAddress_LocalRangesNeverPublic(t *testing.T) {
	prefixes := []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
	}
	for _, p := range prefixes {
		prefix := netip.MustParsePrefix(p)
		first := prefix.Masked().Addr()
		// Walk a spread of addresses across the prefix, including both ends.
		span := uint32(1) << (32 - prefix.Bits())
		base := addrToUint32(first)
		for _, off := range []uint32{0, 1, span / 3, span / 2, span - 2, span - 1} {
			addr := AddrFromUint32(base + off)
			if !prefix.Contains(addr) {
				t.Fatalf("test setup: %s not in %s", addr, p)
			}
			if ClassifyAddress(addr).IsPublic() {
				t.Errorf("ClassifyAddress(%s) is public, want non-public (%s)", addr, p)
			}
		}
	}
}

func TestClassifyAddress_ZeroValue(t *testing.T) {
	if got := ClassifyAddress(netip.Addr{}); got != ClassReserved {
		t.Fatalf("ClassifyAddress(zero) = %v, want %v", got, ClassReserved)
	}
}

func TestAddrFromUint32(t *testing.T) {
	tests := []struct {
		v    uint32
		want string
	}{
		{134744072, "8.8.8.8"},
		{3232235781, "192.168.1.5"},
		{2130706433, "127.0.0.1"},
		{0, "0.0.0.0"},
		{4294967295, "255.255.255.255"},
	}
	for _, tt := range tests {
		if got := AddrFromUint32(tt.v).String(); got != tt.want {
			t.Errorf("AddrFromUint32(%d) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func addrToUint32(a netip.Addr) uint32 {
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
