package control

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/five82/parley/internal/security"
)

var (
	// ErrMalformedOffer is returned for DCC SEND payloads with missing or
	// unparsable fields.
	ErrMalformedOffer = errors.New("malformed DCC offer")
	// ErrUnsupportedDCC is returned for DCC kinds other than SEND and for
	// passive (port 0) offers.
	ErrUnsupportedDCC = errors.New("unsupported DCC request")
)

// Offer is a decoded DCC SEND request.
type Offer struct {
	Filename string
	Addr     netip.Addr
	Port     uint16
	Size     uint64
}

// ParseOffer decodes the argument string of a CTCP DCC message:
//
//	SEND <"quoted name"|name> <ip-as-uint32> <port> <size>
//
// The address is a decimal uint32 in network byte order. An IPv6 literal is
// accepted in its place.
func ParseOffer(args string) (Offer, error) {
	kind, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	if !strings.EqualFold(kind, "SEND") {
		return Offer{}, fmt.Errorf("%w: DCC %s", ErrUnsupportedDCC, strings.ToUpper(kind))
	}
	rest = strings.TrimLeft(rest, " ")

	var name string
	if strings.HasPrefix(rest, `"`) {
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return Offer{}, fmt.Errorf("%w: unterminated filename", ErrMalformedOffer)
		}
		name = rest[1 : end+1]
		rest = rest[end+2:]
	} else {
		name, rest, _ = strings.Cut(rest, " ")
	}
	if name == "" {
		return Offer{}, fmt.Errorf("%w: missing filename", ErrMalformedOffer)
	}

	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return Offer{}, fmt.Errorf("%w: want address, port and size", ErrMalformedOffer)
	}

	addr, err := parseOfferAddr(fields[0])
	if err != nil {
		return Offer{}, err
	}
	port, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return Offer{}, fmt.Errorf("%w: port %q", ErrMalformedOffer, fields[1])
	}
	if port == 0 {
		return Offer{}, fmt.Errorf("%w: passive DCC", ErrUnsupportedDCC)
	}
	size, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return Offer{}, fmt.Errorf("%w: size %q", ErrMalformedOffer, fields[2])
	}

	return Offer{Filename: name, Addr: addr, Port: uint16(port), Size: size}, nil
}

func parseOfferAddr(field string) (netip.Addr, error) {
	if strings.Contains(field, ":") {
		addr, err := netip.ParseAddr(field)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("%w: address %q", ErrMalformedOffer, field)
		}
		return addr, nil
	}
	v, err := strconv.ParseUint(field, 10, 32)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: address %q", ErrMalformedOffer, field)
	}
	return security.AddrFromUint32(uint32(v)), nil
}
