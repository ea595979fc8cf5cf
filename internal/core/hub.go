package core

import "context"

// Hub fans room events out to the clients watching each room code. All
// bookkeeping happens on the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	publish    chan *Event
	done       chan struct{}
	rooms      map[string]map[*Client]struct{}
}

// NewHub creates a hub; call Run to start it.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan *Event, 64),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
	}
}

// Run processes registrations and events until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.rooms {
				for c := range clients {
					close(c.Events)
				}
			}
			h.rooms = make(map[string]map[*Client]struct{})
			return
		case c := <-h.register:
			clients, ok := h.rooms[c.Room]
			if !ok {
				clients = make(map[*Client]struct{})
				h.rooms[c.Room] = clients
			}
			clients[c] = struct{}{}
		case c := <-h.unregister:
			h.remove(c)
		case ev := <-h.publish:
			h.broadcast(ev)
		}
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.rooms[c.Room]
	if !ok {
		return
	}
	if _, exists := clients[c]; !exists {
		return
	}
	delete(clients, c)
	close(c.Events)
	if len(clients) == 0 {
		delete(h.rooms, c.Room)
	}
}

// broadcast never blocks on a slow client. Events only tell a viewer to re-read
// the room, so an undelivered event is replaced by the newer one.
func (h *Hub) broadcast(ev *Event) {
	for c := range h.rooms[ev.Room] {
		select {
		case c.Events <- ev:
			continue
		default:
		}
		// The hub is the only sender, so after draining the slot the send succeeds.
		select {
		case <-c.Events:
		default:
		}
		c.Events <- ev
	}
}

// RegisterClient subscribes c to events of c.Room.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient unsubscribes c and closes its event channel.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues ev for every client watching ev.Room.
func (h *Hub) Publish(ev *Event) {
	select {
	case h.publish <- ev:
	case <-h.done:
	}
}
