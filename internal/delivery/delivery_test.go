package delivery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"terabox-telegram-bot/internal/fault"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("payload"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSend_Document_RemovesTempFile(t *testing.T) {
	sender := &fakeSender{}
	path := tempFile(t, "archive.zip")

	if err := New(sender, nil).Send(1, path, "archive.zip", "archive.zip"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages", len(sender.sent))
	}
	if _, ok := sender.sent[0].(tgbotapi.DocumentConfig); !ok {
		t.Fatalf("sent %T, want DocumentConfig", sender.sent[0])
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("temp file survived a successful delivery")
	}
}

func TestSend_Video(t *testing.T) {
	sender := &fakeSender{}
	path := tempFile(t, "movie.mp4")

	if err := New(sender, nil).Send(1, path, "movie.mp4", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, ok := sender.sent[0].(tgbotapi.VideoConfig); !ok {
		t.Fatalf("sent %T, want VideoConfig", sender.sent[0])
	}
}

func TestSend_UploadFailure_StillRemovesTempFile(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram is down")}
	path := tempFile(t, "file.bin")

	err := New(sender, nil).Send(1, path, "file.bin", "")
	if err == nil {
		t.Fatal("expected upload error")
	}
	if fault.ReasonOf(err) != fault.UploadError {
		t.Fatalf("reason = %q, want UploadError", fault.ReasonOf(err))
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("temp file survived a failed delivery")
	}
}

func TestIsVideoName(t *testing.T) {
	cases := map[string]bool{
		"a.mp4": true, "A.MKV": true, "b.webm": true, "c.m4v": true,
		"a.zip": false, "noext": false, "a.mp4.txt": false,
	}
	for name, want := range cases {
		if got := IsVideoName(name); got != want {
			t.Errorf("IsVideoName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSafeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"movie (2024).mp4", "movie _2024_.mp4"},
		{"a/b\\c.bin", "a_b_c.bin"},
		{"  ", "file.bin"},
		{"plain.txt", "plain.txt"},
	}
	for _, tc := range cases {
		if got := SafeName(tc.in); got != tc.want {
			t.Errorf("SafeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
