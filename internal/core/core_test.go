package core

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okvee/parley/internal/domain"
)

func TestCreateSessionIDsAreUnique(t *testing.T) {
	sessions, _ := New()
	seen := make(map[domain.SessionID]bool)
	for i := 0; i < 100; i++ {
		id := sessions.Create()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestQueueFIFOOnePerDequeue(t *testing.T) {
	sessions, _ := New()
	id := sessions.Create()

	for i := 0; i < 5; i++ {
		require.True(t, sessions.Enqueue(id, fmt.Sprintf("packet-%d", i)))
	}
	for i := 0; i < 5; i++ {
		pkt, ok, err := sessions.DequeueOne(id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("packet-%d", i), pkt)
	}
	_, ok, err := sessions.DequeueOne(id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnqueueToVanishedSessionIsBestEffort(t *testing.T) {
	sessions, _ := New()
	assert.False(t, sessions.Enqueue("nobody", "p"))
}

func TestDequeueUnknownSession(t *testing.T) {
	sessions, _ := New()
	_, _, err := sessions.DequeueOne("nobody")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMarkEstablished(t *testing.T) {
	sessions, _ := New()
	id := sessions.Create()

	was, err := sessions.MarkEstablished(id)
	require.NoError(t, err)
	assert.False(t, was)

	was, err = sessions.MarkEstablished(id)
	require.NoError(t, err)
	assert.True(t, was)

	_, err = sessions.MarkEstablished("nobody")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// roomID on the session and membership in the room must always agree.
func requireConsistent(t *testing.T, sessions *SessionRegistry, rooms *RoomRegistry, sid domain.SessionID) {
	t.Helper()
	roomID, err := sessions.RoomOf(sid)
	require.NoError(t, err)
	if roomID == "" {
		return
	}
	view, err := rooms.Get(roomID)
	require.NoError(t, err)
	assert.Contains(t, view.Members, sid)
}

func TestRoomMembershipConsistency(t *testing.T) {
	sessions, rooms := New()
	host := sessions.Create()
	guest := sessions.Create()

	view, err := rooms.Create(host)
	require.NoError(t, err)
	requireConsistent(t, sessions, rooms, host)

	_, err = rooms.Join(view.ID, guest)
	require.NoError(t, err)
	requireConsistent(t, sessions, rooms, guest)

	_, err = rooms.Leave(guest)
	require.NoError(t, err)
	roomID, err := sessions.RoomOf(guest)
	require.NoError(t, err)
	assert.Empty(t, roomID)
	requireConsistent(t, sessions, rooms, host)
}

func TestJoinIsIdempotent(t *testing.T) {
	sessions, rooms := New()
	host := sessions.Create()
	guest := sessions.Create()

	view, err := rooms.Create(host)
	require.NoError(t, err)

	res, err := rooms.Join(view.ID, guest)
	require.NoError(t, err)
	assert.False(t, res.AlreadyMember)
	assert.Len(t, res.Room.Members, 2)

	res, err = rooms.Join(view.ID, guest)
	require.NoError(t, err)
	assert.True(t, res.AlreadyMember)
	assert.Len(t, res.Room.Members, 2)
}

func TestJoinUnknownRoom(t *testing.T) {
	sessions, rooms := New()
	sid := sessions.Create()
	_, err := rooms.Join("NOROOM", sid)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestEmptyRoomIsDeleted(t *testing.T) {
	sessions, rooms := New()
	host := sessions.Create()

	view, err := rooms.Create(host)
	require.NoError(t, err)

	res, err := rooms.Leave(host)
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Equal(t, view.ID, res.RoomID)

	_, err = rooms.Get(view.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLeaveReportsRemainingMembers(t *testing.T) {
	sessions, rooms := New()
	host := sessions.Create()
	guest := sessions.Create()

	view, err := rooms.Create(host)
	require.NoError(t, err)
	_, err = rooms.Join(view.ID, guest)
	require.NoError(t, err)

	res, err := rooms.Leave(guest)
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, []domain.SessionID{host}, res.Remaining)
}

func TestCreateWhileInRoomLeavesOldRoom(t *testing.T) {
	sessions, rooms := New()
	host := sessions.Create()

	first, err := rooms.Create(host)
	require.NoError(t, err)
	second, err := rooms.Create(host)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// the first room emptied out and is gone
	_, err = rooms.Get(first.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	requireConsistent(t, sessions, rooms, host)
}

func TestReservedCodePromotedOnFirstJoin(t *testing.T) {
	sessions, rooms := New()
	code := rooms.Reserve()

	_, err := rooms.Get(code)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	sid := sessions.Create()
	res, err := rooms.Join(code, sid)
	require.NoError(t, err)
	assert.True(t, res.BecameHost)
	assert.Equal(t, sid, res.Room.HostID)

	view, err := rooms.Get(code)
	require.NoError(t, err)
	assert.Equal(t, []domain.SessionID{sid}, view.Members)
}

func TestSweepExpiredEvictsIdleSessionsAndRooms(t *testing.T) {
	sessions, rooms := New()
	idle := sessions.Create()
	fresh := sessions.Create()

	view, err := rooms.Create(idle)
	require.NoError(t, err)

	// age the idle session past the ttl
	sessions.mu.Lock()
	sessions.sessions[idle].LastActivity = time.Now().Add(-time.Hour)
	sessions.mu.Unlock()

	evicted := rooms.SweepExpired(time.Minute)
	require.Len(t, evicted, 1)
	assert.Equal(t, idle, evicted[0].SessionID)
	assert.Equal(t, view.ID, evicted[0].RoomID)
	assert.Empty(t, evicted[0].Remaining)
	assert.False(t, sessions.Exists(idle))
	assert.True(t, sessions.Exists(fresh))
	_, err = rooms.Get(view.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSweepExpiredReportsSurvivors(t *testing.T) {
	sessions, rooms := New()
	idle := sessions.Create()
	survivor := sessions.Create()

	view, err := rooms.Create(idle)
	require.NoError(t, err)
	_, err = rooms.Join(view.ID, survivor)
	require.NoError(t, err)

	sessions.mu.Lock()
	sessions.sessions[idle].LastActivity = time.Now().Add(-time.Hour)
	sessions.mu.Unlock()

	evicted := rooms.SweepExpired(time.Minute)
	require.Len(t, evicted, 1)
	assert.Equal(t, []domain.SessionID{survivor}, evicted[0].Remaining)
	requireConsistent(t, sessions, rooms, survivor)
}

func TestConcurrentJoinLeaveKeepsRegistriesConsistent(t *testing.T) {
	sessions, rooms := New()
	host := sessions.Create()
	view, err := rooms.Create(host)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		sid := sessions.Create()
		wg.Add(1)
		go func(sid domain.SessionID) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := rooms.Join(view.ID, sid); err != nil {
					return
				}
				if _, err := rooms.Leave(sid); err != nil {
					return
				}
			}
		}(sid)
	}
	wg.Wait()

	got, err := rooms.Get(view.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.SessionID{host}, got.Members)
	requireConsistent(t, sessions, rooms, host)
}
