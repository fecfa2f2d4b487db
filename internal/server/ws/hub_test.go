package ws

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"betpool/internal/domain"
)

// stubBus hands out in-memory subscription channels keyed by the pattern
// the hub subscribed with.
type stubBus struct {
	subs map[string]chan domain.Signal
}

func newStubBus() *stubBus {
	return &stubBus{subs: make(map[string]chan domain.Signal)}
}

func (b *stubBus) Publish(context.Context, string, []byte) error { return nil }

func (b *stubBus) Subscribe(_ context.Context, channel string) (<-chan domain.Signal, error) {
	ch := make(chan domain.Signal, 8)
	b.subs[channel] = ch
	return ch, nil
}

func (b *stubBus) StreamAppend(context.Context, string, []byte) error { return nil }

func (b *stubBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// A message arriving through the wildcard market subscription must reach a
// client that subscribed to the one concrete market channel.
func TestHubRoutesWildcardDeliveryByConcreteChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newStubBus()
	hub := NewHub(bus, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{Mode: "serve"})
	go hub.Run(ctx)

	waitFor(t, func() bool { return bus.subs["records:market:*"] != nil })

	c := &client{
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
		subs: map[string]bool{"records:market:5": true},
	}
	hub.register <- c
	waitFor(t, func() bool { return hub.clientCount() == 1 })

	payload := []byte(`{"type":"bet_placed","market_id":5}`)
	bus.subs["records:market:*"] <- domain.Signal{
		Channel: "records:market:5",
		Payload: payload,
	}

	select {
	case got := <-c.send:
		if string(got) != string(payload) {
			t.Errorf("payload = %s, want %s", got, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client subscribed to the concrete market channel never received the message")
	}
}

// A client subscribed to a different market must not see the message.
func TestHubSkipsUnsubscribedMarket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newStubBus()
	hub := NewHub(bus, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{Mode: "serve"})
	go hub.Run(ctx)

	waitFor(t, func() bool { return bus.subs["records:market:*"] != nil })

	other := &client{
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
		subs: map[string]bool{"records:market:9": true},
	}
	hub.register <- other
	waitFor(t, func() bool { return hub.clientCount() == 1 })

	bus.subs["records:market:*"] <- domain.Signal{
		Channel: "records:market:5",
		Payload: []byte(`{}`),
	}

	select {
	case got := <-other.send:
		t.Errorf("client for market 9 received message for market 5: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClientWildcardSubscriptionMatches(t *testing.T) {
	c := &client{subs: map[string]bool{"records:market:*": true}}
	if !c.isSubscribed("records:market:42") {
		t.Error("wildcard subscription did not match a concrete market channel")
	}
	if c.isSubscribed("records") {
		t.Error("wildcard subscription matched an unrelated channel")
	}
}
