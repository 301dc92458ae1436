package shell

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveThemeFallbacks(t *testing.T) {
	got := ResolveTheme(ThemeParams{})
	assert.Equal(t, Theme{
		BgColor:         "#0a0a0a",
		TextColor:       "#ffffff",
		HintColor:       "#6b7280",
		LinkColor:       "#06b6d4",
		ButtonColor:     "#3b82f6",
		ButtonTextColor: "#ffffff",
	}, got)

	got = ResolveTheme(ThemeParams{BgColor: "#123456", ButtonColor: " "})
	assert.Equal(t, "#123456", got.BgColor)
	assert.Equal(t, DefaultButtonColor, got.ButtonColor)
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "User", User{}.DisplayName())
	assert.Equal(t, "Ada", User{FirstName: "Ada"}.DisplayName())
}

func TestBroadcasterFansOut(t *testing.T) {
	b := NewBroadcaster(nil)
	first, cancelFirst := b.Subscribe(4)
	second, cancelSecond := b.Subscribe(4)
	defer cancelSecond()
	assert.Equal(t, 2, b.Subscribers())

	b.Impact(ImpactHeavy)
	b.SendData(map[string]string{"action": "tasks_updated"})

	for _, ch := range []<-chan Event{first, second} {
		ev := <-ch
		assert.Equal(t, EventHaptic, ev.Name)
		assert.Equal(t, Haptic{Kind: "impact", Style: "heavy"}, ev.Data)
		ev = <-ch
		assert.Equal(t, EventData, ev.Name)
	}

	cancelFirst()
	cancelFirst()
	_, open := <-first
	assert.False(t, open)
	assert.Equal(t, 1, b.Subscribers())
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	b := NewBroadcaster(nil)
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Selection()
	b.Notify(NotifyWarning)

	ev := <-ch
	assert.Equal(t, Haptic{Kind: "selection"}, ev.Data)
	select {
	case ev := <-ch:
		t.Fatalf("expected dropped event, got %v", ev)
	default:
	}
}

func TestBroadcasterCloseEndsSubscriptions(t *testing.T) {
	b := NewBroadcaster(nil)
	ch, cancel := b.Subscribe(4)

	b.Close()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers())
	cancel()

	late, lateCancel := b.Subscribe(4)
	defer lateCancel()
	_, open = <-late
	assert.False(t, open)

	b.Ready()
	assert.Equal(t, 0, b.Subscribers())
}

func TestLoggerAndTee(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b := NewBroadcaster(nil)
	ch, cancel := b.Subscribe(8)
	defer cancel()

	var s Shell = Tee{Noop{}, NewLogger(logger), b}
	s.Ready()
	s.Expand()
	s.Notify(NotifySuccess)

	out := buf.String()
	assert.Contains(t, out, "shell ready")
	assert.Contains(t, out, "shell expand")
	assert.Contains(t, out, "type=success")

	require.Len(t, ch, 3)
}
