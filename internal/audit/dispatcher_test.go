package audit

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "ignored"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("expected zero drops on nil dispatcher")
	}
}

func TestDispatcherDeliversAndStamps(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	d.Emit(context.Background(), Event{EventType: "login_success", UserID: "u1", Success: true})

	select {
	case ev := <-sink.Events():
		if ev.EventType != "login_success" || ev.UserID != "u1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.ID == "" {
			t.Fatal("expected dispatcher to assign an id")
		}
		if ev.Timestamp.IsZero() {
			t.Fatal("expected dispatcher to assign a timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	d.Close()
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)
	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{EventType: "e"})
	}
	d.Close()

	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected 50 delivered events after close, got %d", got)
	}
}

func TestBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Emit(context.Background(), Event{EventType: "e2"})

	start := time.Now()
	d.Emit(context.Background(), Event{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Emit(context.Background(), Event{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		d.Emit(context.Background(), Event{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Close()
	d.Close()
	d.Emit(context.Background(), Event{EventType: "e2"})
}

func TestJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{
		Timestamp: time.Now().UTC(),
		EventType: "login_success",
		UserID:    "u1",
		IP:        "127.0.0.1",
		Success:   true,
	})
	sink.Emit(context.Background(), Event{EventType: "logout_session"})

	out := buf.String()
	if !strings.Contains(out, `"event_type":"login_success"`) {
		t.Fatalf("expected event type in output, got %q", out)
	}
	if !strings.Contains(out, `"user_id":"u1"`) {
		t.Fatalf("expected user id in output, got %q", out)
	}
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Fatalf("expected 2 lines, got %d", lines)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(logger)

	sink.Emit(context.Background(), Event{ID: "a1", EventType: "login_failure", Error: "invalid_credentials"})
	sink.Emit(context.Background(), Event{ID: "a2", EventType: "login_success", Success: true, Metadata: map[string]string{"method": "password"}})

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "error=invalid_credentials") {
		t.Fatalf("expected failure at warn level, got %q", out)
	}
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "meta_method=password") {
		t.Fatalf("expected success at info level with metadata, got %q", out)
	}
}
