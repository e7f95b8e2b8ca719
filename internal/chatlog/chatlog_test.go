package chatlog

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/five82/parley/internal/state"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "zero reads nothing", maxLines: 0, expected: nil},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestFormatLine(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 5, 7, 0, time.UTC)
	tests := []struct {
		msg  state.Message
		want string
	}{
		{state.Message{Sender: "bob", Text: "hi", Kind: state.KindNormal, At: at}, "[09:05:07] <bob> hi"},
		{state.Message{Sender: "bob", Text: "waves", Kind: state.KindAction, At: at}, "[09:05:07] * bob waves"},
		{state.Message{Sender: "srv", Text: "note", Kind: state.KindNotice, At: at}, "[09:05:07] -srv- note"},
		{state.Message{Sender: "***", Text: "joined", Kind: state.KindSystem, At: at}, "[09:05:07] *** joined"},
		{state.Message{Sender: "bob", Text: "a\nb", Kind: state.KindNormal, At: at}, "[09:05:07] <bob> a b"},
	}
	for _, tt := range tests {
		if got := FormatLine(tt.msg); got != tt.want {
			t.Errorf("FormatLine() = %q, want %q", got, tt.want)
		}
	}
}

func TestFilePathSanitizesComponents(t *testing.T) {
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got := FilePath("/logs", "Libera", "../../evil", at)
	want := filepath.Join("/logs", "libera", "evil_2024-06-01.log")
	if got != want {
		t.Fatalf("FilePath() = %q, want %q", got, want)
	}
}

func TestWriterAndTail(t *testing.T) {
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()
	w := NewWriter(dir, 0, logger.WithField("test", t.Name()))

	day1 := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Minute)
	for i := 0; i < 3; i++ {
		if !w.Write("libera", "#Go", state.Message{Sender: "bob", Text: fmt.Sprintf("old %d", i), At: day1}) {
			t.Fatalf("write %d dropped", i)
		}
	}
	for i := 0; i < 2; i++ {
		w.Write("libera", "#go", state.Message{Sender: "bob", Text: fmt.Sprintf("new %d", i), At: day2})
	}
	w.Write("libera", "#other", state.Message{Sender: "bob", Text: "elsewhere", At: day2})
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != ErrClosed {
		t.Fatalf("second Close() = %v, want ErrClosed", err)
	}
	if w.Write("libera", "#go", state.Message{At: day2}) {
		t.Fatal("Write after Close reported success")
	}

	if _, err := os.Stat(FilePath(dir, "libera", "#go", day1)); err != nil {
		t.Fatalf("day one file missing: %v", err)
	}

	got, err := Tail(dir, "libera", "#GO", 4)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	want := []string{
		"[23:59:00] <bob> old 1",
		"[23:59:00] <bob> old 2",
		"[00:01:00] <bob> new 0",
		"[00:01:00] <bob> new 1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tail() = %q, want %q", got, want)
	}
}

func TestTailMissingServer(t *testing.T) {
	got, err := Tail(t.TempDir(), "nowhere", "#go", 10)
	if err != nil || len(got) != 0 {
		t.Fatalf("Tail() = %v, %v; want empty", got, err)
	}
}
