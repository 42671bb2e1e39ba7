// Package collection holds the in-memory host collection and every mutation
// that can be applied to it.
//
// Entities are kept in an arena keyed by host address and endpoint path.
// Callers never see the stored values directly: every read returns a copy
// and every change goes through a Store method. A Store is owned by a single
// goroutine and is not safe for concurrent use.
package collection

import (
	"sort"

	"github.com/vedsharma/reqbook/internal/model"
)

// EndpointRef addresses one endpoint by host address and path/method identity
type EndpointRef struct {
	Host   string
	Path   string
	Method model.HTTPMethod
}

// RefOf builds the reference for an endpoint that lives under host
func RefOf(host string, ep model.Endpoint) EndpointRef {
	return EndpointRef{Host: host, Path: ep.Path, Method: ep.HTTPMethod}
}

type hostRecord struct {
	address   string
	label     string
	headers   []model.HeaderItem
	order     []string
	endpoints map[string]*model.Endpoint
}

// Store is the ordered list of hosts plus transient selection state
type Store struct {
	order []string
	hosts map[string]*hostRecord

	selectedHost     string
	selectedEndpoint *EndpointRef

	revision    uint64
	nextSubID   int
	subscribers []subscriber
}

// New creates a store holding a copy of hosts. Duplicate addresses and
// duplicate endpoint paths are dropped, keeping the first occurrence.
func New(hosts []model.Host) *Store {
	s := &Store{}
	s.fill(hosts)
	return s
}

// Replace discards the current contents and selection and loads hosts
func (s *Store) Replace(hosts []model.Host) {
	s.fill(hosts)
	s.selectedHost = ""
	s.selectedEndpoint = nil
	s.changed(Event{Kind: EventReplaced})
}

func (s *Store) fill(hosts []model.Host) {
	s.order = make([]string, 0, len(hosts))
	s.hosts = make(map[string]*hostRecord, len(hosts))
	for _, h := range hosts {
		if _, exists := s.hosts[h.Address]; exists {
			continue
		}
		rec := &hostRecord{
			address:   h.Address,
			label:     h.Label,
			headers:   append([]model.HeaderItem{}, h.DefaultHeaders...),
			endpoints: make(map[string]*model.Endpoint, len(h.Endpoints)),
		}
		for _, e := range h.Endpoints {
			if _, exists := rec.endpoints[e.Path]; exists {
				continue
			}
			ep := e.Clone()
			sortResponses(ep.Responses)
			rec.order = append(rec.order, e.Path)
			rec.endpoints[e.Path] = &ep
		}
		s.order = append(s.order, h.Address)
		s.hosts[h.Address] = rec
	}
}

// Revision increases by one for every applied mutation
func (s *Store) Revision() uint64 {
	return s.revision
}

// Len returns the number of hosts
func (s *Store) Len() int {
	return len(s.order)
}

// Snapshot returns a deep copy of every host in order
func (s *Store) Snapshot() []model.Host {
	hosts := make([]model.Host, 0, len(s.order))
	for _, addr := range s.order {
		hosts = append(hosts, s.build(s.hosts[addr]))
	}
	return hosts
}

// Host returns a copy of the host with the given address
func (s *Store) Host(address string) (model.Host, bool) {
	rec, ok := s.hosts[address]
	if !ok {
		return model.Host{}, false
	}
	return s.build(rec), true
}

// FindHost resolves either an address or a host label to a host, preferring
// an exact address match
func (s *Store) FindHost(addressOrLabel string) (model.Host, bool) {
	if h, ok := s.Host(addressOrLabel); ok {
		return h, true
	}
	for _, addr := range s.order {
		rec := s.hosts[addr]
		if rec.label != "" && rec.label == addressOrLabel {
			return s.build(rec), true
		}
	}
	return model.Host{}, false
}

// Endpoint returns a copy of the endpoint with the given path under host
func (s *Store) Endpoint(host, path string) (model.Endpoint, bool) {
	rec, ok := s.hosts[host]
	if !ok {
		return model.Endpoint{}, false
	}
	ep, ok := rec.endpoints[path]
	if !ok {
		return model.Endpoint{}, false
	}
	return ep.Clone(), true
}

func (s *Store) build(rec *hostRecord) model.Host {
	h := model.NewHost(rec.address, rec.label)
	h.DefaultHeaders = append(h.DefaultHeaders, rec.headers...)
	for _, path := range rec.order {
		h.Endpoints = append(h.Endpoints, rec.endpoints[path].Clone())
	}
	return h
}

func (s *Store) endpoint(ref EndpointRef) (*model.Endpoint, bool) {
	rec, ok := s.hosts[ref.Host]
	if !ok {
		return nil, false
	}
	ep, ok := rec.endpoints[ref.Path]
	if !ok || ep.HTTPMethod != ref.Method {
		return nil, false
	}
	return ep, true
}

// AddHost appends a new empty host. It is a no-op when the address exists.
func (s *Store) AddHost(address, label string) bool {
	if _, exists := s.hosts[address]; exists {
		return false
	}
	s.hosts[address] = &hostRecord{
		address:   address,
		label:     label,
		headers:   []model.HeaderItem{},
		endpoints: make(map[string]*model.Endpoint),
	}
	s.order = append(s.order, address)
	s.changed(Event{Kind: EventHostAdded, Host: address})
	return true
}

// DeleteHost removes the host and everything it owns
func (s *Store) DeleteHost(address string) bool {
	if _, exists := s.hosts[address]; !exists {
		return false
	}
	delete(s.hosts, address)
	s.order = removeString(s.order, address)
	if s.selectedHost == address {
		s.selectedHost = ""
	}
	if s.selectedEndpoint != nil && s.selectedEndpoint.Host == address {
		s.selectedEndpoint = nil
	}
	s.changed(Event{Kind: EventHostDeleted, Host: address})
	return true
}

// SetHostLabel replaces the host's label; an empty label clears it
func (s *Store) SetHostLabel(address, label string) bool {
	rec, ok := s.hosts[address]
	if !ok || rec.label == label {
		return false
	}
	rec.label = label
	s.changed(Event{Kind: EventHostUpdated, Host: address})
	return true
}

// AddHeader appends an enabled default header. Adding a key/value pair that is
// already present is a no-op.
func (s *Store) AddHeader(address, key, value string) bool {
	rec, ok := s.hosts[address]
	if !ok {
		return false
	}
	item := model.HeaderItem{Key: key, Value: value}
	if indexOfHeader(rec.headers, item) >= 0 {
		return false
	}
	rec.headers = append(rec.headers, item)
	s.changed(Event{Kind: EventHeadersChanged, Host: address})
	return true
}

// UpdateHeader replaces the header matching old's key/value in place.
// An update onto the key/value of another header is a no-op.
func (s *Store) UpdateHeader(address string, old, updated model.HeaderItem) bool {
	rec, ok := s.hosts[address]
	if !ok {
		return false
	}
	i := indexOfHeader(rec.headers, old)
	if i < 0 || rec.headers[i] == updated {
		return false
	}
	if j := indexOfHeader(rec.headers, updated); j >= 0 && j != i {
		return false
	}
	rec.headers[i] = updated
	s.changed(Event{Kind: EventHeadersChanged, Host: address})
	return true
}

// DeleteHeader removes the header matching item's key/value
func (s *Store) DeleteHeader(address string, item model.HeaderItem) bool {
	rec, ok := s.hosts[address]
	if !ok {
		return false
	}
	i := indexOfHeader(rec.headers, item)
	if i < 0 {
		return false
	}
	rec.headers = append(rec.headers[:i], rec.headers[i+1:]...)
	s.changed(Event{Kind: EventHeadersChanged, Host: address})
	return true
}

// AddEndpoint appends a new endpoint. Paths are unique per host regardless of
// method, so adding POST /x next to GET /x is a no-op.
func (s *Store) AddEndpoint(address string, method model.HTTPMethod, path, label string) bool {
	rec, ok := s.hosts[address]
	if !ok {
		return false
	}
	if _, exists := rec.endpoints[path]; exists {
		return false
	}
	ep := model.NewEndpoint(method, path, label)
	rec.endpoints[path] = &ep
	rec.order = append(rec.order, path)
	s.changed(Event{Kind: EventEndpointAdded, Host: address, Path: path})
	return true
}

// DeleteEndpoint removes the endpoint with ref's path/method identity
func (s *Store) DeleteEndpoint(ref EndpointRef) bool {
	if _, ok := s.endpoint(ref); !ok {
		return false
	}
	rec := s.hosts[ref.Host]
	delete(rec.endpoints, ref.Path)
	rec.order = removeString(rec.order, ref.Path)
	if s.selectedEndpoint != nil && *s.selectedEndpoint == ref {
		s.selectedEndpoint = nil
	}
	s.changed(Event{Kind: EventEndpointDeleted, Host: ref.Host, Path: ref.Path})
	return true
}

// AddQueryItem appends an enabled query item, or when an item with the same
// name exists, replaces that item with the new value (enabled).
func (s *Store) AddQueryItem(ref EndpointRef, name, value string) bool {
	ep, ok := s.endpoint(ref)
	if !ok {
		return false
	}
	item := model.QueryItem{Name: name, Value: value}
	for _, existing := range ep.QueryItems {
		if existing.Name == name {
			return s.UpdateQueryItem(ref, existing, item)
		}
	}
	ep.QueryItems = append(ep.QueryItems, item)
	s.changed(Event{Kind: EventQueryChanged, Host: ref.Host, Path: ref.Path})
	return true
}

// UpdateQueryItem replaces the item matching old's name/value in place.
// An update onto the name/value of another item is a no-op.
func (s *Store) UpdateQueryItem(ref EndpointRef, old, updated model.QueryItem) bool {
	ep, ok := s.endpoint(ref)
	if !ok {
		return false
	}
	i := indexOfQuery(ep.QueryItems, old)
	if i < 0 || ep.QueryItems[i] == updated {
		return false
	}
	if j := indexOfQuery(ep.QueryItems, updated); j >= 0 && j != i {
		return false
	}
	ep.QueryItems[i] = updated
	s.changed(Event{Kind: EventQueryChanged, Host: ref.Host, Path: ref.Path})
	return true
}

// DeleteQueryItem removes the item matching item's name/value
func (s *Store) DeleteQueryItem(ref EndpointRef, item model.QueryItem) bool {
	ep, ok := s.endpoint(ref)
	if !ok {
		return false
	}
	i := indexOfQuery(ep.QueryItems, item)
	if i < 0 {
		return false
	}
	ep.QueryItems = append(ep.QueryItems[:i], ep.QueryItems[i+1:]...)
	s.changed(Event{Kind: EventQueryChanged, Host: ref.Host, Path: ref.Path})
	return true
}

// RecordResponse adds a response to the endpoint's history, newest first
func (s *Store) RecordResponse(ref EndpointRef, rec model.ResponseRecord) bool {
	ep, ok := s.endpoint(ref)
	if !ok {
		return false
	}
	rec.Payload = append([]byte{}, rec.Payload...)
	rec.ReceivedAt = rec.ReceivedAt.UTC()
	ep.Responses = append(ep.Responses, rec)
	sortResponses(ep.Responses)
	s.changed(Event{Kind: EventResponseRecorded, Host: ref.Host, Path: ref.Path})
	return true
}

// ClearResponses empties the endpoint's history
func (s *Store) ClearResponses(ref EndpointRef) bool {
	ep, ok := s.endpoint(ref)
	if !ok || len(ep.Responses) == 0 {
		return false
	}
	ep.Responses = []model.ResponseRecord{}
	s.changed(Event{Kind: EventResponsesCleared, Host: ref.Host, Path: ref.Path})
	return true
}

func (s *Store) changed(ev Event) {
	s.revision++
	s.notify(ev)
}

func sortResponses(responses []model.ResponseRecord) {
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].ReceivedAt.After(responses[j].ReceivedAt)
	})
}

func indexOfHeader(headers []model.HeaderItem, item model.HeaderItem) int {
	for i, h := range headers {
		if h.SameAs(item) {
			return i
		}
	}
	return -1
}

func indexOfQuery(items []model.QueryItem, item model.QueryItem) int {
	for i, q := range items {
		if q.SameAs(item) {
			return i
		}
	}
	return -1
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
