package collection

// EventKind names the kind of change a Store applied
type EventKind string

const (
	EventReplaced         EventKind = "replaced"
	EventHostAdded        EventKind = "host_added"
	EventHostDeleted      EventKind = "host_deleted"
	EventHostUpdated      EventKind = "host_updated"
	EventHeadersChanged   EventKind = "headers_changed"
	EventEndpointAdded    EventKind = "endpoint_added"
	EventEndpointDeleted  EventKind = "endpoint_deleted"
	EventQueryChanged     EventKind = "query_changed"
	EventResponseRecorded EventKind = "response_recorded"
	EventResponsesCleared EventKind = "responses_cleared"
	EventSelectionChanged EventKind = "selection_changed"
)

// Event describes one applied change. Path is empty for host-level changes.
type Event struct {
	Kind EventKind
	Host string
	Path string
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn to be called after every applied change, after the
// subscribers registered before it. No-op operations do not notify.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Event)) func() {
	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(ev Event) {
	for _, sub := range s.subscribers {
		sub.fn(ev)
	}
}
