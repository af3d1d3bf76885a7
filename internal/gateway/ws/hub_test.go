package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/dohr-michael/dayplanner/internal/events"
)

type fakeHandler struct {
	mu      sync.Mutex
	calls   []string
	sources []events.EventSource
}

func (f *fakeHandler) record(ctx context.Context, call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.sources = append(f.sources, events.SourceFromContext(ctx, ""))
}

func (f *fakeHandler) List(ctx context.Context, p ListParams) (any, error) {
	f.record(ctx, "list:"+p.Status+":"+p.Day)
	return []string{"task_1"}, nil
}

func (f *fakeHandler) Complete(ctx context.Context, id string) (any, error) {
	f.record(ctx, "complete:"+id)
	return map[string]string{"id": id}, nil
}

func (f *fakeHandler) Reopen(ctx context.Context, id string) (any, error) {
	f.record(ctx, "reopen:"+id)
	return map[string]string{"id": id}, nil
}

func (f *fakeHandler) Move(ctx context.Context, id, day string) (any, error) {
	f.record(ctx, "move:"+id+":"+day)
	return map[string]string{"id": id}, nil
}

func (f *fakeHandler) Delete(ctx context.Context, id string) (any, error) {
	f.record(ctx, "delete:"+id)
	return nil, errors.New("task not found: " + id)
}

func dialHub(t *testing.T, h TaskHandler) (*websocket.Conn, *events.Bus, *Hub) {
	t.Helper()
	bus := events.NewBus(16)
	hub := NewHub(bus, h)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
		bus.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn, bus, hub
}

func roundTrip(t *testing.T, conn *websocket.Conn, id string, method Method, params any) Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := NewRequestFrame(id, method, params)
	if err != nil {
		t.Fatalf("NewRequestFrame: %v", err)
	}
	data, _ := MarshalFrame(req)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	return readFrame(t, ctx, conn, FrameTypeResponse)
}

// readFrame reads until a frame of the wanted type arrives.
func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, want FrameType) Frame {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		f, err := UnmarshalFrame(data)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if f.Type == want {
			return f
		}
	}
}

func TestHubDispatchesRequests(t *testing.T) {
	h := &fakeHandler{}
	conn, _, _ := dialHub(t, h)

	res := roundTrip(t, conn, "1", MethodListTasks, ListParams{Status: "pending", Day: "today"})
	if res.ID != "1" || res.OK == nil || !*res.OK {
		t.Fatalf("list: unexpected response %+v", res)
	}
	var ids []string
	if err := json.Unmarshal(res.Payload, &ids); err != nil || len(ids) != 1 {
		t.Fatalf("list payload: %s (%v)", res.Payload, err)
	}

	roundTrip(t, conn, "2", MethodCompleteTask, TaskParams{ID: "task_1"})
	roundTrip(t, conn, "3", MethodMoveTask, TaskParams{ID: "task_1", Day: "2026-10-13"})

	res = roundTrip(t, conn, "4", MethodDeleteTask, TaskParams{ID: "task_9"})
	if res.OK == nil || *res.OK || !strings.Contains(res.Error, "task_9") {
		t.Fatalf("delete: expected error response, got %+v", res)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	want := []string{"list:pending:today", "complete:task_1", "move:task_1:2026-10-13", "delete:task_9"}
	if strings.Join(h.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls: got %v, want %v", h.calls, want)
	}
	for _, src := range h.sources {
		if src != events.SourceWS {
			t.Fatalf("expected ws source in context, got %q", src)
		}
	}
}

func TestHubRejectsBadRequests(t *testing.T) {
	conn, _, _ := dialHub(t, &fakeHandler{})

	res := roundTrip(t, conn, "1", Method("send_message"), nil)
	if res.OK == nil || *res.OK || !strings.Contains(res.Error, "unknown method") {
		t.Fatalf("unknown method: got %+v", res)
	}

	res = roundTrip(t, conn, "2", MethodReopenTask, TaskParams{})
	if res.OK == nil || *res.OK || !strings.Contains(res.Error, "id is required") {
		t.Fatalf("missing id: got %+v", res)
	}
}

func TestHubBroadcastsBusEvents(t *testing.T) {
	conn, bus, hub := dialHub(t, &fakeHandler{})

	// A round trip guarantees the client is registered.
	roundTrip(t, conn, "1", MethodListTasks, nil)
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount: got %d, want 1", hub.ClientCount())
	}

	bus.Publish(events.NewTypedEvent(events.SourceGateway, events.TaskDeletedPayload{
		TaskSnapshot: events.TaskSnapshot{TaskID: "task_1", Title: "Review"},
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := readFrame(t, ctx, conn, FrameTypeEvent)
	if f.Event != string(events.EventTaskDeleted) {
		t.Fatalf("event: got %q", f.Event)
	}
	var e events.Event
	if err := json.Unmarshal(f.Payload, &e); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if events.TaskID(e) != "task_1" || e.Source != events.SourceGateway {
		t.Fatalf("unexpected event %+v", e)
	}
}
