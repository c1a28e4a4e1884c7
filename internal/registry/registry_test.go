package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/models"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/protocol"
)

// fakeOutbox records every frame the registry delivers to one participant.
type fakeOutbox struct {
	mu     sync.Mutex
	frames [][]byte
	reject bool
}

func (f *fakeOutbox) TrySend(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject {
		return false
	}
	f.frames = append(f.frames, data)
	return true
}

// received decodes everything delivered so far, in order.
func (f *fakeOutbox) received(t *testing.T) []protocol.Outbound {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := make([]protocol.Outbound, len(f.frames))
	for i, frame := range f.frames {
		msg, err := protocol.DecodeOutbound(frame)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		msgs[i] = msg
	}
	return msgs
}

func newTestRegistry(opts ...Option) *Registry {
	return New(zerolog.Nop(), opts...)
}

func rosterIDs(users []models.Participant) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func TestJoinCreatesRoomWithWelcomeDocument(t *testing.T) {
	reg := newTestRegistry()
	outbox := &fakeOutbox{}

	id := reg.Join("r1", "ada", "#fff", outbox)
	if id == "" {
		t.Fatal("expected a participant id")
	}
	if !reg.Has("r1") {
		t.Fatal("room should exist after join")
	}

	msgs := outbox.received(t)
	if len(msgs) != 1 {
		t.Fatalf("expected only init, got %d messages", len(msgs))
	}
	init, ok := msgs[0].(protocol.Init)
	if !ok {
		t.Fatalf("expected Init, got %T", msgs[0])
	}
	if init.Code != WelcomeDocument("r1") {
		t.Fatalf("expected welcome document, got %q", init.Code)
	}
	if init.UserID != id {
		t.Fatalf("init user id %q != allocated id %q", init.UserID, id)
	}
	if len(init.Users) != 1 || init.Users[0].ID != id {
		t.Fatalf("expected roster [self], got %+v", init.Users)
	}
}

func TestJoinNotifiesOthersNotSelf(t *testing.T) {
	reg := newTestRegistry()
	outA, outB := &fakeOutbox{}, &fakeOutbox{}

	idA := reg.Join("r1", "ada", "#f00", outA)
	idB := reg.Join("r1", "bob", "#00f", outB)

	// A sees B's arrival with the full roster in join order.
	msgsA := outA.received(t)
	if len(msgsA) != 2 {
		t.Fatalf("A expected init + user-joined, got %d", len(msgsA))
	}
	joined, ok := msgsA[1].(protocol.UserJoined)
	if !ok {
		t.Fatalf("expected UserJoined, got %T", msgsA[1])
	}
	got := rosterIDs(joined.Users)
	if len(got) != 2 || got[0] != idA || got[1] != idB {
		t.Fatalf("expected roster [A,B], got %v", got)
	}

	// B only sees its own init; its join is never echoed back.
	msgsB := outB.received(t)
	if len(msgsB) != 1 {
		t.Fatalf("B expected only init, got %d", len(msgsB))
	}
	init := msgsB[0].(protocol.Init)
	if len(init.Users) != 2 {
		t.Fatalf("B's init roster should have 2 entries, got %d", len(init.Users))
	}
}

func TestBroadcastOrderMatchesMutationOrder(t *testing.T) {
	reg := newTestRegistry()
	outA, outB := &fakeOutbox{}, &fakeOutbox{}

	idA := reg.Join("r1", "ada", "#f00", outA)
	reg.Join("r1", "bob", "#00f", outB)

	edits := []string{"e1", "e2", "e3"}
	for _, code := range edits {
		reg.ApplyEdit("r1", idA, code)
	}

	var got []string
	for _, msg := range outB.received(t) {
		if u, ok := msg.(protocol.CodeUpdate); ok {
			got = append(got, u.Code)
		}
	}
	if len(got) != len(edits) {
		t.Fatalf("expected %d updates, got %d", len(edits), len(got))
	}
	for i := range edits {
		if got[i] != edits[i] {
			t.Fatalf("updates out of order: %v", got)
		}
	}
}

func TestLastWriteWins(t *testing.T) {
	reg := newTestRegistry()
	outA, outB, outC := &fakeOutbox{}, &fakeOutbox{}, &fakeOutbox{}

	idA := reg.Join("r1", "ada", "#f00", outA)
	idB := reg.Join("r1", "bob", "#00f", outB)

	reg.ApplyEdit("r1", idA, "x = 1")
	reg.ApplyEdit("r1", idB, "y = 2")

	// A observer sees both updates in the order they were applied.
	var updatesA []string
	for _, msg := range outA.received(t) {
		if u, ok := msg.(protocol.CodeUpdate); ok {
			updatesA = append(updatesA, u.Code)
		}
	}
	if len(updatesA) != 1 || updatesA[0] != "y = 2" {
		t.Fatalf("A should see only B's edit, got %v", updatesA)
	}

	var updatesB []string
	for _, msg := range outB.received(t) {
		if u, ok := msg.(protocol.CodeUpdate); ok {
			updatesB = append(updatesB, u.Code)
		}
	}
	if len(updatesB) != 1 || updatesB[0] != "x = 1" {
		t.Fatalf("B should see only A's edit, got %v", updatesB)
	}

	// The last processed write is authoritative: a later joiner gets E2,
	// never a merge.
	reg.Join("r1", "cee", "#0f0", outC)
	init := outC.received(t)[0].(protocol.Init)
	if init.Code != "y = 2" {
		t.Fatalf("expected last write to win, got %q", init.Code)
	}
}

func TestApplyEditReplaySendsOneNotificationPerCall(t *testing.T) {
	reg := newTestRegistry()
	outA, outB := &fakeOutbox{}, &fakeOutbox{}

	idA := reg.Join("r1", "ada", "#f00", outA)
	reg.Join("r1", "bob", "#00f", outB)

	reg.ApplyEdit("r1", idA, "same")
	reg.ApplyEdit("r1", idA, "same")

	updates := 0
	for _, msg := range outB.received(t) {
		if u, ok := msg.(protocol.CodeUpdate); ok {
			if u.Code != "same" {
				t.Fatalf("unexpected code %q", u.Code)
			}
			updates++
		}
	}
	if updates != 2 {
		t.Fatalf("expected exactly one notification per call, got %d", updates)
	}
}

func TestCursorUpdateTouchesNothingElse(t *testing.T) {
	reg := newTestRegistry()
	outA, outB := &fakeOutbox{}, &fakeOutbox{}

	idA := reg.Join("r1", "ada", "#f00", outA)
	reg.Join("r1", "bob", "#00f", outB)
	reg.ApplyEdit("r1", idA, "x = 1")

	reg.UpdateCursor("r1", idA, models.Cursor{LineNumber: 2, Column: 7})

	msgsB := outB.received(t)
	last, ok := msgsB[len(msgsB)-1].(protocol.CursorUpdate)
	if !ok {
		t.Fatalf("expected CursorUpdate, got %T", msgsB[len(msgsB)-1])
	}
	if last.UserID != idA || last.Cursor.LineNumber != 2 || last.Cursor.Column != 7 {
		t.Fatalf("unexpected cursor update: %+v", last)
	}

	// Document and roster unchanged.
	infos := reg.Rooms()
	if len(infos) != 1 || infos[0].Participants != 2 || infos[0].DocumentBytes != len("x = 1") {
		t.Fatalf("cursor update must not alter room state: %+v", infos)
	}

	// The mover hears nothing about its own cursor.
	for _, msg := range outA.received(t) {
		if _, ok := msg.(protocol.CursorUpdate); ok {
			t.Fatal("cursor update echoed to its originator")
		}
	}
}

func TestLeaveNotifiesRemainderThenDestroysRoom(t *testing.T) {
	reg := newTestRegistry()
	outA, outB := &fakeOutbox{}, &fakeOutbox{}

	idA := reg.Join("r1", "ada", "#f00", outA)
	idB := reg.Join("r1", "bob", "#00f", outB)

	reg.Leave("r1", idB)
	if !reg.Has("r1") {
		t.Fatal("room must survive while non-empty")
	}

	msgsA := outA.received(t)
	left, ok := msgsA[len(msgsA)-1].(protocol.UserLeft)
	if !ok {
		t.Fatalf("expected UserLeft, got %T", msgsA[len(msgsA)-1])
	}
	if left.UserID != idB {
		t.Fatalf("expected departing id %q, got %q", idB, left.UserID)
	}
	if ids := rosterIDs(left.Users); len(ids) != 1 || ids[0] != idA {
		t.Fatalf("expected remaining roster [A], got %v", ids)
	}

	reg.Leave("r1", idA)
	if reg.Has("r1") {
		t.Fatal("empty room must be removed from the registry")
	}
}

func TestJoinLeaveCyclesReturnRegistryToEmpty(t *testing.T) {
	reg := newTestRegistry()
	for i := 0; i < 5; i++ {
		id := reg.Join("r1", "ada", "#f00", &fakeOutbox{})
		reg.Leave("r1", id)
		if reg.Has("r1") {
			t.Fatalf("cycle %d: registry should be back to its pre-join state", i)
		}
	}
	if rooms, participants := reg.Counts(); rooms != 0 || participants != 0 {
		t.Fatalf("expected empty registry, got %d rooms / %d participants", rooms, participants)
	}
}

func TestStaleReferencesAreSilentNoops(t *testing.T) {
	reg := newTestRegistry()
	outA := &fakeOutbox{}
	idA := reg.Join("r1", "ada", "#f00", outA)
	reg.Leave("r1", idA)

	// Room is gone: all of these lost a race and must change nothing.
	reg.ApplyEdit("r1", idA, "late edit")
	reg.UpdateCursor("r1", idA, models.Cursor{LineNumber: 1, Column: 1})
	reg.Leave("r1", idA)
	if reg.Has("r1") {
		t.Fatal("stale operations must not resurrect the room")
	}

	// Participant gone but room alive: same rule.
	outB := &fakeOutbox{}
	idB := reg.Join("r2", "bob", "#00f", outB)
	reg.ApplyEdit("r2", "no-such-participant", "x")
	msgs := outB.received(t)
	for _, msg := range msgs {
		if _, ok := msg.(protocol.CodeUpdate); ok {
			t.Fatal("edit from unknown participant must not broadcast")
		}
	}
	reg.Leave("r2", idB)
}

func TestBadRecipientDoesNotBlockOthers(t *testing.T) {
	reg := newTestRegistry()
	outA, outB, outC := &fakeOutbox{}, &fakeOutbox{reject: true}, &fakeOutbox{}

	idA := reg.Join("r1", "ada", "#f00", outA)
	reg.Join("r1", "bob", "#00f", outB)
	reg.Join("r1", "cee", "#0f0", outC)

	reg.ApplyEdit("r1", idA, "x = 1")

	found := false
	for _, msg := range outC.received(t) {
		if u, ok := msg.(protocol.CodeUpdate); ok && u.Code == "x = 1" {
			found = true
		}
	}
	if !found {
		t.Fatal("delivery to C must not be aborted by B's dead outbox")
	}
}

func TestSeedAndObserver(t *testing.T) {
	var observed []string
	var mu sync.Mutex

	reg := newTestRegistry(
		WithSeed(func(roomID string) (string, bool) {
			if roomID == "seeded" {
				return "restored content", true
			}
			return "", false
		}),
		WithObserver(func(roomID, code string) {
			mu.Lock()
			observed = append(observed, code)
			mu.Unlock()
		}),
	)

	outbox := &fakeOutbox{}
	id := reg.Join("seeded", "ada", "#f00", outbox)
	init := outbox.received(t)[0].(protocol.Init)
	if init.Code != "restored content" {
		t.Fatalf("expected seeded document, got %q", init.Code)
	}

	reg.ApplyEdit("seeded", id, "v2")
	reg.Leave("seeded", id)

	mu.Lock()
	defer mu.Unlock()
	if len(observed) != 2 || observed[0] != "v2" || observed[1] != "v2" {
		t.Fatalf("expected edit + teardown observations, got %v", observed)
	}
}

func TestUnseededRoomFallsBackToWelcome(t *testing.T) {
	reg := newTestRegistry(WithSeed(func(string) (string, bool) { return "", false }))
	outbox := &fakeOutbox{}
	reg.Join("r1", "ada", "#f00", outbox)
	if code := outbox.received(t)[0].(protocol.Init).Code; code != WelcomeDocument("r1") {
		t.Fatalf("expected welcome document, got %q", code)
	}
}

func TestConcurrentRoomsAndRacingJoinLeave(t *testing.T) {
	reg := newTestRegistry()

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			room := fmt.Sprintf("room-%d", worker%3)
			for i := 0; i < 50; i++ {
				id := reg.Join(room, "w", "#fff", &fakeOutbox{})
				reg.ApplyEdit(room, id, "content")
				reg.UpdateCursor(room, id, models.Cursor{LineNumber: i, Column: worker})
				reg.Leave(room, id)
			}
		}(worker)
	}
	wg.Wait()

	if rooms, participants := reg.Counts(); rooms != 0 || participants != 0 {
		t.Fatalf("all workers left, expected empty registry, got %d rooms / %d participants", rooms, participants)
	}
}
