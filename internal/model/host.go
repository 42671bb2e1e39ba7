package model

// QueryItem is a query parameter attached to an endpoint.
// Two items with the same name and value are the same item.
type QueryItem struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

// SameAs compares the name/value identity, ignoring the disabled flag
func (q QueryItem) SameAs(other QueryItem) bool {
	return q.Name == other.Name && q.Value == other.Value
}

// HeaderItem is a default header attached to a host
type HeaderItem struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

// SameAs compares the key/value identity, ignoring the disabled flag
func (h HeaderItem) SameAs(other HeaderItem) bool {
	return h.Key == other.Key && h.Value == other.Value
}

// Endpoint is a path and method under a host
type Endpoint struct {
	Path       string           `json:"path"`
	HTTPMethod HTTPMethod       `json:"httpMethod"`
	Label      string           `json:"label,omitempty"`
	QueryItems []QueryItem      `json:"queryItems"`
	Responses  []ResponseRecord `json:"responses"`
}

// NewEndpoint creates an endpoint with empty query items and history
func NewEndpoint(method HTTPMethod, path, label string) Endpoint {
	return Endpoint{
		Path:       path,
		HTTPMethod: method,
		Label:      label,
		QueryItems: []QueryItem{},
		Responses:  []ResponseRecord{},
	}
}

// Is reports whether the endpoint has the given path/method identity
func (e Endpoint) Is(path string, method HTTPMethod) bool {
	return e.Path == path && e.HTTPMethod == method
}

// Clone returns a deep copy
func (e Endpoint) Clone() Endpoint {
	c := e
	c.QueryItems = append(make([]QueryItem, 0, len(e.QueryItems)), e.QueryItems...)
	c.Responses = make([]ResponseRecord, 0, len(e.Responses))
	for _, r := range e.Responses {
		c.Responses = append(c.Responses, r.clone())
	}
	return c
}

func (e *Endpoint) normalize() {
	if e.QueryItems == nil {
		e.QueryItems = []QueryItem{}
	}
	if e.Responses == nil {
		e.Responses = []ResponseRecord{}
	}
	for i := range e.Responses {
		e.Responses[i].ReceivedAt = e.Responses[i].ReceivedAt.UTC()
		if e.Responses[i].Payload == nil {
			e.Responses[i].Payload = []byte{}
		}
	}
}

// Host is a target address with its default headers and endpoints
type Host struct {
	Address        string       `json:"address"`
	Label          string       `json:"label,omitempty"`
	DefaultHeaders []HeaderItem `json:"defaultHeaders"`
	Endpoints      []Endpoint   `json:"endpoints"`
}

// NewHost creates a host with no headers or endpoints
func NewHost(address, label string) Host {
	return Host{
		Address:        address,
		Label:          label,
		DefaultHeaders: []HeaderItem{},
		Endpoints:      []Endpoint{},
	}
}

// Endpoint returns the endpoint with the given path
func (h Host) Endpoint(path string) (Endpoint, bool) {
	for _, e := range h.Endpoints {
		if e.Path == path {
			return e, true
		}
	}
	return Endpoint{}, false
}

// Clone returns a deep copy
func (h Host) Clone() Host {
	c := h
	c.DefaultHeaders = append(make([]HeaderItem, 0, len(h.DefaultHeaders)), h.DefaultHeaders...)
	c.Endpoints = make([]Endpoint, 0, len(h.Endpoints))
	for _, e := range h.Endpoints {
		c.Endpoints = append(c.Endpoints, e.Clone())
	}
	return c
}

// Snapshot is the persisted document: every host in store order
type Snapshot struct {
	Hosts []Host `json:"hosts"`
}

// Clone returns a deep copy
func (s Snapshot) Clone() Snapshot {
	c := Snapshot{Hosts: make([]Host, 0, len(s.Hosts))}
	for _, h := range s.Hosts {
		c.Hosts = append(c.Hosts, h.Clone())
	}
	return c
}

// Normalize replaces absent collections with empty ones so that a decoded
// snapshot compares equal to the one that was saved
func (s *Snapshot) Normalize() {
	if s.Hosts == nil {
		s.Hosts = []Host{}
	}
	for i := range s.Hosts {
		h := &s.Hosts[i]
		if h.DefaultHeaders == nil {
			h.DefaultHeaders = []HeaderItem{}
		}
		if h.Endpoints == nil {
			h.Endpoints = []Endpoint{}
		}
		for j := range h.Endpoints {
			h.Endpoints[j].normalize()
		}
	}
}
