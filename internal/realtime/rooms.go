package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// roomSet maps rooms (profile ids) to their local connections. Sends to
// a client's channel only ever happen under the read lock and the
// channel is closed under the write lock, so a send can never race the
// close.
type roomSet struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Client]bool
}

func newRoomSet() roomSet {
	return roomSet{rooms: make(map[uuid.UUID]map[*Client]bool)}
}

func (rs *roomSet) add(room uuid.UUID, client *Client) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, ok := rs.rooms[room]; !ok {
		rs.rooms[room] = make(map[*Client]bool)
	}
	rs.rooms[room][client] = true
}

func (rs *roomSet) remove(room uuid.UUID, client *Client) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if clients, ok := rs.rooms[room]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send) // Signal the write pump to stop.
			if len(clients) == 0 {
				delete(rs.rooms, room)
			}
		}
	}
}

func (rs *roomSet) contains(room uuid.UUID, client *Client) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.rooms[room][client]
}

// each runs fn for every member of the room while holding the read
// lock.
func (rs *roomSet) each(room uuid.UUID, fn func(*Client)) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	for client := range rs.rooms[room] {
		fn(client)
	}
}

// ifMember runs fn while holding the read lock, only if the client is
// still registered.
func (rs *roomSet) ifMember(client *Client, fn func()) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	if rs.rooms[client.ProfileID()][client] {
		fn()
	}
}
