package collection

import "github.com/vedsharma/reqbook/internal/model"

// Selection is the host and endpoint the user is currently looking at.
// It is never persisted.
type Selection struct {
	Host     *model.Host
	Endpoint *model.Endpoint
}

// SelectHost marks the host as selected and clears any endpoint selection
// that belongs to a different host
func (s *Store) SelectHost(address string) bool {
	if _, ok := s.hosts[address]; !ok {
		return false
	}
	s.selectedHost = address
	if s.selectedEndpoint != nil && s.selectedEndpoint.Host != address {
		s.selectedEndpoint = nil
	}
	s.notify(Event{Kind: EventSelectionChanged, Host: address})
	return true
}

// SelectEndpoint marks the endpoint and its host as selected
func (s *Store) SelectEndpoint(ref EndpointRef) bool {
	if _, ok := s.endpoint(ref); !ok {
		return false
	}
	s.selectedHost = ref.Host
	s.selectedEndpoint = &ref
	s.notify(Event{Kind: EventSelectionChanged, Host: ref.Host, Path: ref.Path})
	return true
}

// ClearSelection deselects host and endpoint
func (s *Store) ClearSelection() {
	if s.selectedHost == "" && s.selectedEndpoint == nil {
		return
	}
	s.selectedHost = ""
	s.selectedEndpoint = nil
	s.notify(Event{Kind: EventSelectionChanged})
}

// Selection returns copies of the selected host and endpoint, if any
func (s *Store) Selection() Selection {
	var sel Selection
	if h, ok := s.Host(s.selectedHost); ok {
		sel.Host = &h
	}
	if s.selectedEndpoint != nil {
		if ep, ok := s.endpoint(*s.selectedEndpoint); ok {
			c := ep.Clone()
			sel.Endpoint = &c
		}
	}
	return sel
}
