package feedview

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/heatchat/internal/core"
)

func message(id, login, text string) core.Message {
	return core.Message{ID: id, Text: text, User: core.User{ID: "u-" + login, Login: login}}
}

func TestViewRendersWindow(t *testing.T) {
	w := core.NewWindow(3).Replace([]core.Message{
		message("m2", "hubot", "second"),
		message("m1", "octocat", "first"),
	})
	view := New(w, nil, "octocat").View()

	for _, want := range []string{"octocat", "hubot", "second", "first"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Index(view, "second") > strings.Index(view, "first") {
		t.Fatalf("expected newest message first:\n%s", view)
	}
}

func TestViewEmpty(t *testing.T) {
	view := New(core.NewWindow(3), nil, "").View()
	if !strings.Contains(view, "No messages yet.") {
		t.Fatalf("expected empty notice:\n%s", view)
	}
}

func TestUpdateConsumesSnapshots(t *testing.T) {
	updates := make(chan core.Window, 1)
	m := New(core.NewWindow(3), updates, "")

	next := core.NewWindow(3).Push(message("m1", "octocat", "hello"))
	updates <- next

	cmd := m.Init()
	if cmd == nil {
		t.Fatalf("expected a wait command")
	}
	msg := cmd()
	got, ok := msg.(WindowMsg)
	if !ok {
		t.Fatalf("expected WindowMsg, got %T", msg)
	}

	model, cmd := m.Update(got)
	if cmd == nil {
		t.Fatalf("expected to keep waiting for updates")
	}
	if model.(Model).Window().Len() != 1 {
		t.Fatalf("expected window with one message")
	}

	close(updates)
	if _, ok := cmd().(ClosedMsg); !ok {
		t.Fatalf("expected ClosedMsg after close")
	}
}

func TestQuitKeys(t *testing.T) {
	m := New(core.NewWindow(3), nil, "")
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("expected quit command for %q", key.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("expected QuitMsg for %q", key.String())
		}
	}
}

func TestString(t *testing.T) {
	w := core.NewWindow(3).Push(message("m1", "octocat", "hello"))
	if got := String(w); got != "octocat: hello\n" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFollowStopsOnCancel(t *testing.T) {
	updates := make(chan core.Window, 1)
	updates <- core.NewWindow(3).Push(message("m1", "octocat", "hello"))

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		Follow(ctx, &out, updates)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(updates) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("snapshot not consumed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// updates is never closed; only ctx ends the loop.
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Follow did not return after cancel")
	}
	if got := out.String(); got != "octocat: hello\n---\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
