package pubsub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/carrec/platform/config"
	infrapubsub "github.com/carrec/platform/infra/pubsub"
	"github.com/carrec/platform/infra/pubsub/factory"
	"github.com/carrec/platform/internal/domain/model"
)

func newMemoryProvider(t *testing.T) infrapubsub.Provider {
	t.Helper()
	cfg := &config.Config{Bus: config.BusConfig{Driver: "memory"}}
	p, err := infrapubsub.NewProvider(cfg, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestBridge_PublishSubscribe(t *testing.T) {
	bridge := NewBridge(newMemoryProvider(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := bridge.Subscribe(ctx, "comments_channel")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	ev := model.CommentEvent{EventID: "ev-1", PostID: 7, AuthorID: 3, Text: "nice car", Origin: "node-a"}
	if err := bridge.Publish(ctx, "comments_channel", ev); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-msgs:
		defer msg.Ack()
		if msg.UUID != "ev-1" {
			t.Errorf("UUID = %q, want ev-1", msg.UUID)
		}
		if got := msg.Metadata.Get(MetadataOrigin); got != "node-a" {
			t.Errorf("origin = %q", got)
		}
		if msg.Metadata.Get(MetadataTraceID) == "" {
			t.Error("trace id not set")
		}
		got, err := DecodeCommentEvent(msg.Payload)
		if err != nil {
			t.Fatalf("DecodeCommentEvent() error = %v", err)
		}
		if got != ev {
			t.Errorf("decoded = %+v, want %+v", got, ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestBridge_SubscribeClosesWithContext(t *testing.T) {
	bridge := NewBridge(newMemoryProvider(t))
	ctx, cancel := context.WithCancel(context.Background())

	msgs, err := bridge.Subscribe(ctx, "comments_channel")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	cancel()

	select {
	case _, ok := <-msgs:
		if ok {
			t.Error("unexpected message")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not torn down")
	}
}

type brokenProvider struct{}

func (brokenProvider) GetFactory() factory.Factory { return nil }
func (brokenProvider) Publisher() (message.Publisher, error) {
	return nil, errors.New("connection refused")
}
func (brokenProvider) Subscriber() (message.Subscriber, error) {
	return nil, errors.New("connection refused")
}
func (brokenProvider) Close() error { return nil }

func TestBridge_PublishFailureIsDeliveryError(t *testing.T) {
	bridge := NewBridge(brokenProvider{})
	err := bridge.Publish(context.Background(), "comments_channel", model.CommentEvent{PostID: 7, AuthorID: 3, Text: "x"})
	if !errors.Is(err, model.ErrDelivery) {
		t.Errorf("Publish() error = %v, want ErrDelivery", err)
	}
}

func TestDecodeCommentEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"post_id":7,"author_id":3,"text":"nice car"}`, false},
		{"empty", ``, true},
		{"not json", `New comment: hi by user 3`, true},
		{"missing author", `{"post_id":7,"text":"hi"}`, true},
		{"missing text", `{"post_id":7,"author_id":3}`, true},
		{"wrong type", `{"post_id":"seven","author_id":3,"text":"hi"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCommentEvent([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeCommentEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
