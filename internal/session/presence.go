package session

// roster tracks a room's clients in join order. It belongs to the room
// goroutine and is not locked.
type roster struct {
	order   []string
	clients map[string]*Client // clientID -> client
}

func newRoster() *roster {
	return &roster{clients: make(map[string]*Client)}
}

func (r *roster) add(c *Client) {
	if _, ok := r.clients[c.ClientID]; !ok {
		r.order = append(r.order, c.ClientID)
	}
	r.clients[c.ClientID] = c
}

func (r *roster) remove(c *Client) bool {
	if r.clients[c.ClientID] != c {
		return false
	}
	delete(r.clients, c.ClientID)
	for i, id := range r.order {
		if id == c.ClientID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *roster) len() int { return len(r.order) }

// each visits clients in join order.
func (r *roster) each(fn func(*Client)) {
	for _, id := range r.order {
		fn(r.clients[id])
	}
}

func (r *roster) participants() []Participant {
	out := make([]Participant, 0, len(r.order))
	r.each(func(c *Client) {
		out = append(out, Participant{
			ClientID:    c.ClientID,
			UserID:      c.UserID,
			DisplayName: c.DisplayName,
			Tool:        string(c.state.Tool),
		})
	})
	return out
}

func (r *roster) broadcast(typ string, v any, excludeClientID string) {
	r.each(func(c *Client) {
		if c.ClientID != excludeClientID {
			c.sendPayload(typ, v)
		}
	})
}
