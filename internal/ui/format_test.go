package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/five82/parley/internal/state"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1024, "1.00 KiB"},
		{1024 * 1024, "1.00 MiB"},
		{3 * 1024 * 1024 * 1024 / 2, "1.50 GiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  short ", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate = %q, want abc...", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("truncate small limit = %q", got)
	}
}

func TestClampPercent(t *testing.T) {
	if clampPercent(-1) != 0 || clampPercent(150) != 100 || clampPercent(42) != 42 {
		t.Fatal("clampPercent out of range")
	}
}

func TestFormatMessage_Kinds(t *testing.T) {
	styles := GetTheme("Nightfox").Styles()
	at := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)

	cases := []struct {
		msg  state.Message
		want string
	}{
		{state.Message{Sender: "alice", Text: "hi", At: at}, "<alice>"},
		{state.Message{Sender: "bob", Text: "waves", Kind: state.KindAction, At: at}, "* bob"},
		{state.Message{Sender: "srv", Text: "note", Kind: state.KindNotice, At: at}, "-srv-"},
		{state.Message{Text: "Connecting", Kind: state.KindSystem, At: at}, "*** Connecting"},
		{state.Message{Text: "boom", Kind: state.KindError, At: at}, "!!! boom"},
	}
	for _, tc := range cases {
		got := formatMessage(tc.msg, "15:04", styles)
		if !strings.Contains(got, tc.want) {
			t.Errorf("formatMessage(%+v) = %q, want it to contain %q", tc.msg, got, tc.want)
		}
		if !strings.Contains(got, "09:05") {
			t.Errorf("formatMessage missing timestamp: %q", got)
		}
	}
}

func TestFormatMessage_FlattensNewlines(t *testing.T) {
	got := formatMessage(state.Message{Sender: "a", Text: "one\ntwo"}, "15:04", GetTheme("").Styles())
	if strings.Contains(got, "\n") {
		t.Fatalf("formatMessage kept a newline: %q", got)
	}
}

func TestBufferLabel(t *testing.T) {
	app := state.New()
	app.Servers = []state.ServerRecord{{ID: 1, Name: "libera"}}

	status := &state.Buffer{Key: state.StatusKey(1)}
	if got := bufferLabel(app, status); got != "libera" {
		t.Fatalf("status label = %q", got)
	}
	channel := &state.Buffer{Key: state.ChannelKey(1, "#Go"), Title: "#Go"}
	if got := bufferLabel(app, channel); got != "#Go" {
		t.Fatalf("channel label = %q", got)
	}
	if got := bufferLabel(app, app.Buffers[state.HighlightsKey]); got != "highlights" {
		t.Fatalf("highlights label = %q", got)
	}
}

func TestTransferName(t *testing.T) {
	rec := state.TransferRecord{Offered: "../evil.txt"}
	if got := transferName(rec); got != "../evil.txt" {
		t.Fatalf("pending name = %q", got)
	}
	rec.Filename = "evil.txt"
	if got := transferName(rec); got != "evil.txt" {
		t.Fatalf("admitted name = %q", got)
	}
}
