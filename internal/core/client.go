package core

// Client is a live viewer of one room as seen by the core layer.
type Client struct {
	ID     string
	Name   string
	Room   string
	Events chan *Event
}

// NewClient constructs a client. Events holds at most one pending notification.
func NewClient(id, name, room string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:     id,
		Name:   name,
		Room:   room,
		Events: make(chan *Event, 1),
	}
}
