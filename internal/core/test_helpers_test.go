package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

var fixedNow = time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...StoreOption) *RoomStore {
	t.Helper()

	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		seoul = time.FixedZone("KST", 9*60*60)
	}
	base := []StoreOption{
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(seoul),
		WithFooter("App. support by HealSE Co., Ltd."),
	}
	return NewRoomStore(append(base, opts...)...)
}

// newScenario builds room A1 administered by Kim with members Kim, Park and Lee.
func newScenario(t *testing.T) (*RoomStore, *RoomSession, *RoomSession) {
	t.Helper()

	s := newTestStore(t)
	room, _, err := s.CreateRoom("A1", "Kim", "Kim,Park,Lee")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	admin := s.Session(room, "Kim", RoleAdmin)

	joined, err := s.JoinRoom("A1", "Park")
	if err != nil {
		t.Fatalf("join as Park: %v", err)
	}
	return s, admin, s.Session(joined, "Park", RoleMember)
}
