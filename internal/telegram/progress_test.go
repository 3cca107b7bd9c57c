package telegram

import (
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type captureSender struct {
	texts []string
}

func (c *captureSender) Send(m tgbotapi.Chattable) (tgbotapi.Message, error) {
	if edit, ok := m.(tgbotapi.EditMessageTextConfig); ok {
		c.texts = append(c.texts, edit.Text)
	}
	return tgbotapi.Message{}, nil
}

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0.00 B"},
		{512, "512.00 B"},
		{1024, "1.00 KB"},
		{10 << 20, "10.00 MB"},
		{3 << 30, "3.00 GB"},
	}
	for _, tc := range cases {
		if got := HumanBytes(tc.in); got != tc.want {
			t.Errorf("HumanBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProgressEditor_Throttles(t *testing.T) {
	sender := &captureSender{}
	p := NewProgressEditor(sender, nil, 1, 2)
	p.MinInterval = time.Hour

	p.Update("file.bin", 100, 1000)
	p.Update("file.bin", 200, 1000)
	p.Update("file.bin", 300, 1000)

	if len(sender.texts) != 1 {
		t.Fatalf("throttle failed: %d edits", len(sender.texts))
	}
}

func TestProgressEditor_UpdateIncludesPercent(t *testing.T) {
	sender := &captureSender{}
	p := NewProgressEditor(sender, nil, 1, 2)
	p.MinInterval = 0

	p.Update("file.bin", 512<<10, 1<<20)
	if len(sender.texts) != 1 {
		t.Fatalf("edits = %d", len(sender.texts))
	}
	got := sender.texts[0]
	if want := "(50.0%)"; !strings.Contains(got, want) {
		t.Fatalf("text %q missing %q", got, want)
	}
}

func TestProgressEditor_SetBypassesThrottle(t *testing.T) {
	sender := &captureSender{}
	p := NewProgressEditor(sender, nil, 1, 2)
	p.MinInterval = time.Hour

	p.Update("file.bin", 1, 10)
	p.Set("✅ Done.")
	if len(sender.texts) != 2 {
		t.Fatalf("Set should bypass throttle: %d edits", len(sender.texts))
	}
	if sender.texts[1] != "✅ Done." {
		t.Fatalf("last text = %q", sender.texts[1])
	}
}
