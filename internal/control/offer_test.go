package control

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOffer(t *testing.T) {
	tests := []struct {
		name string
		args string
		want Offer
	}{
		{
			name: "bare filename",
			args: "SEND report.txt 134744072 5000 10",
			want: Offer{Filename: "report.txt", Addr: netip.MustParseAddr("8.8.8.8"), Port: 5000, Size: 10},
		},
		{
			name: "quoted filename with spaces",
			args: `SEND "my holiday photos.zip" 3232235781 49152 1048576`,
			want: Offer{Filename: "my holiday photos.zip", Addr: netip.MustParseAddr("192.168.1.5"), Port: 49152, Size: 1048576},
		},
		{
			name: "traversal filename kept raw",
			args: `SEND "../../etc/passwd" 134744072 1024 10`,
			want: Offer{Filename: "../../etc/passwd", Addr: netip.MustParseAddr("8.8.8.8"), Port: 1024, Size: 10},
		},
		{
			name: "lower case kind and trailing token",
			args: "send a.bin 16843009 6000 42 token123",
			want: Offer{Filename: "a.bin", Addr: netip.MustParseAddr("1.1.1.1"), Port: 6000, Size: 42},
		},
		{
			name: "ipv6 literal",
			args: "SEND a.bin 2001:db8::1 6000 42",
			want: Offer{Filename: "a.bin", Addr: netip.MustParseAddr("2001:db8::1"), Port: 6000, Size: 42},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOffer(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOffer_Malformed(t *testing.T) {
	inputs := []string{
		"SEND",
		"SEND file.txt",
		"SEND file.txt 134744072 5000",
		"SEND file.txt notanumber 5000 10",
		"SEND file.txt 4294967296 5000 10",
		"SEND file.txt 134744072 70000 10",
		"SEND file.txt 134744072 5000 -1",
		"SEND file.txt 134744072 5000 ten",
		`SEND "unterminated 134744072 5000 10`,
		`SEND "" 134744072 5000 10`,
		"SEND file.txt ::zz 5000 10",
	}
	for _, in := range inputs {
		_, err := ParseOffer(in)
		assert.ErrorIs(t, err, ErrMalformedOffer, "input %q", in)
	}
}

func TestParseOffer_Unsupported(t *testing.T) {
	for _, in := range []string{"CHAT chat 134744072 5000", "RESUME f 5000 10", "SEND f 134744072 0 10 7"} {
		_, err := ParseOffer(in)
		assert.ErrorIs(t, err, ErrUnsupportedDCC, "input %q", in)
	}
}
