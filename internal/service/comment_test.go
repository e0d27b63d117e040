package service

import (
	"context"
	"errors"
	"testing"

	"github.com/carrec/platform/internal/domain/event"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/domain/registry"
	"go.opentelemetry.io/otel/trace/noop"
)

type ingestFixture struct {
	svc    *CommentService
	store  *memStore
	bridge *recordingBridge
	hub    *registry.Hub
}

func newIngestFixture() *ingestFixture {
	store := newMemStore()
	bridge := &recordingBridge{}
	hub := registry.NewHub(registry.WithLogger(discardLogger()))
	svc := NewCommentService(testConfig(), store, hub, bridge, discardLogger(), noop.NewTracerProvider().Tracer("test"))
	return &ingestFixture{svc: svc, store: store, bridge: bridge, hub: hub}
}

func (f *ingestFixture) listen(key model.StreamKey) registry.Connector {
	c := f.hub.NewConnector(context.Background(), key)
	f.hub.Register(c)
	return c
}

func queued(c registry.Connector) []event.Eventer {
	var out []event.Eventer
	for {
		select {
		case ev := <-c.Recv():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestIngest_StoresBroadcastsAndPublishes(t *testing.T) {
	f := newIngestFixture()
	post7 := f.listen(model.PostStreamKey(7))
	post8 := f.listen(model.PostStreamKey(8))
	global := f.listen(model.GlobalStreamKey)

	c, err := f.svc.Ingest(context.Background(), model.PostStreamKey(7), []byte(`{"post_id":7,"author_id":3,"text":"nice car"}`))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if c.ID == 0 || c.PostID != 7 || c.AuthorID != 3 || c.Text != "nice car" {
		t.Errorf("Ingest() = %+v", c)
	}

	frames := queued(post7)
	if len(frames) != 1 {
		t.Fatalf("post=7 frames = %d, want 1", len(frames))
	}
	if len(queued(global)) != 1 {
		t.Error("global listener missed the comment")
	}
	if len(queued(post8)) != 0 {
		t.Error("post=8 listener received a post=7 comment")
	}

	if f.bridge.count() != 1 {
		t.Fatalf("published %d events, want 1", f.bridge.count())
	}
	pub := f.bridge.published[0]
	if pub.EventID == "" || pub.EventID != frames[0].GetID() {
		t.Errorf("published event id %q, broadcast id %q", pub.EventID, frames[0].GetID())
	}
	if pub.Origin != "node-a" || pub.CommentID != c.ID {
		t.Errorf("published = %+v", pub)
	}
}

func TestIngest_RejectsInvalidSubmissions(t *testing.T) {
	tests := []struct {
		name string
		key  model.StreamKey
		raw  string
	}{
		{"missing author", model.PostStreamKey(7), `{"post_id":7,"text":"hi"}`},
		{"malformed json", model.PostStreamKey(7), `{"post_id":7,`},
		{"blank text", model.PostStreamKey(7), `{"author_id":3,"text":"  "}`},
		{"wrong post", model.PostStreamKey(7), `{"post_id":8,"author_id":3,"text":"hi"}`},
		{"global without post", model.GlobalStreamKey, `{"author_id":3,"text":"hi"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestFixture()
			listener := f.listen(tt.key)

			_, err := f.svc.Ingest(context.Background(), tt.key, []byte(tt.raw))
			if !model.IsValidation(err) {
				t.Fatalf("Ingest() error = %v, want validation error", err)
			}
			if f.store.commentCalls != 0 {
				t.Error("store was called for an invalid submission")
			}
			if f.bridge.count() != 0 {
				t.Error("invalid submission was published")
			}
			if len(queued(listener)) != 0 {
				t.Error("invalid submission was broadcast")
			}
		})
	}
}

func TestIngest_PublishFailureStillDeliversLocally(t *testing.T) {
	f := newIngestFixture()
	f.bridge.fail = errors.New("broker down")
	listener := f.listen(model.PostStreamKey(7))

	c, err := f.svc.Ingest(context.Background(), model.PostStreamKey(7), []byte(`{"author_id":3,"text":"still here"}`))
	if err != nil {
		t.Fatalf("Ingest() error = %v, want nil", err)
	}
	if c == nil || len(f.store.comments) != 1 {
		t.Fatal("comment not stored")
	}
	if got := len(queued(listener)); got != 1 {
		t.Errorf("local listener frames = %d, want 1", got)
	}
}

func TestIngest_StorageFailureAborts(t *testing.T) {
	f := newIngestFixture()
	f.store.failComments = errors.New("disk I/O error")
	listener := f.listen(model.PostStreamKey(7))

	_, err := f.svc.Ingest(context.Background(), model.PostStreamKey(7), []byte(`{"author_id":3,"text":"lost"}`))
	if !errors.Is(err, model.ErrStorage) {
		t.Fatalf("Ingest() error = %v, want ErrStorage", err)
	}
	if model.IsValidation(err) {
		t.Error("storage failure reported as validation")
	}
	if f.bridge.count() != 0 || len(queued(listener)) != 0 {
		t.Error("failed comment was distributed")
	}
}

func TestDeliveryService_SubscribeUnsubscribe(t *testing.T) {
	hub := registry.NewHub(registry.WithLogger(discardLogger()))
	d := NewDeliveryService(hub)

	if _, err := d.Subscribe(context.Background(), ""); !errors.Is(err, ErrEmptyStreamKey) {
		t.Errorf("Subscribe(empty) error = %v", err)
	}

	conn, err := d.Subscribe(context.Background(), model.PostStreamKey(7))
	if err != nil {
		t.Fatal(err)
	}
	if !hub.IsConnected(model.PostStreamKey(7)) {
		t.Error("connection not registered")
	}
	d.Unsubscribe(conn)
	d.Unsubscribe(conn)
	if hub.IsConnected(model.PostStreamKey(7)) {
		t.Error("connection still registered")
	}
}
