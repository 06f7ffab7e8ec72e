package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"threedays/internal/model"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

// attach registers a bare session, bypassing the websocket layer.
// The register channel is unbuffered, so the session is in the room maps
// once the send returns.
func attach(hub *Hub, userID int) *session {
	s := newSession(userID)
	hub.register <- s
	return s
}

func receive(t *testing.T, s *session) Event {
	t.Helper()
	select {
	case data := <-s.send:
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertSilent(t *testing.T, s *session) {
	t.Helper()
	select {
	case data := <-s.send:
		t.Fatalf("unexpected event delivered: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifyUserReachesOnlyThatUsersSessions(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	alice1 := attach(hub, 1)
	alice2 := attach(hub, 1)
	bob := attach(hub, 2)

	hub.NotifyUser(1, TaskEvent(EventTaskCreated, &model.Task{ID: 7, UserID: 1, Title: "hi"}))

	for _, s := range []*session{alice1, alice2} {
		ev := receive(t, s)
		assert.Equal(t, EventTaskCreated, ev.Type)
		require.NotNil(t, ev.Task)
		assert.Equal(t, 7, ev.Task.ID)
	}
	assertSilent(t, bob)
}

func TestBroadcastReachesEveryone(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	alice := attach(hub, 1)
	bob := attach(hub, 2)

	hub.Broadcast(RefreshEvent())

	assert.Equal(t, EventRefresh, receive(t, alice).Type)
	assert.Equal(t, EventRefresh, receive(t, bob).Type)
}

func TestDeletedEventCarriesTaskID(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	s := attach(hub, 3)
	hub.NotifyUser(3, DeletedEvent(42))

	ev := receive(t, s)
	assert.Equal(t, EventTaskDeleted, ev.Type)
	assert.Equal(t, 42, ev.TaskID)
	assert.Nil(t, ev.Task)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	s := attach(hub, 1)
	hub.unregister <- s

	// Closed send channel marks the session dropped.
	select {
	case _, ok := <-s.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed on unregister")
	}
	assert.Equal(t, 0, hub.SessionCount())
}

func TestFullSessionBufferDoesNotBlockHub(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	stuck := attach(hub, 1)
	healthy := attach(hub, 1)

	// Saturate the stuck session's buffer.
	for i := 0; i < cap(stuck.send)+8; i++ {
		hub.NotifyUser(1, RefreshEvent())
	}

	// The healthy session still gets events; the hub never blocked.
	hub.NotifyUser(1, RefreshEvent())
	drained := 0
	for i := 0; i < cap(healthy.send); i++ {
		select {
		case <-healthy.send:
			drained++
		case <-time.After(time.Second):
		}
	}
	assert.Greater(t, drained, 0)
}

func TestShutdownClosesAllSessions(t *testing.T) {
	hub, cancel := startHub(t)

	a := attach(hub, 1)
	b := attach(hub, 2)
	cancel()

	for _, s := range []*session{a, b} {
		select {
		case _, ok := <-s.send:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("send channel not closed on shutdown")
		}
	}
}
