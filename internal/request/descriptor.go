// Package request turns a host and one of its endpoints into a ready-to-send
// request descriptor. Nothing here touches the network or storage.
package request

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vedsharma/reqbook/internal/model"
)

// DefaultScheme is used when neither the host address nor the caller names one
const DefaultScheme = "https"

// QueryParam is an enabled name/value pair in send order
type QueryParam struct {
	Name  string
	Value string
}

// Descriptor is the fully merged representation of one request.
// Its accessors return copies, so a Descriptor never changes once assembled.
type Descriptor struct {
	targetHost  string
	path        string
	method      model.HTTPMethod
	headers     map[string]string
	queryParams []QueryParam
}

// Assemble merges the host's enabled default headers with the endpoint's
// enabled query items. Later headers win when keys repeat.
func Assemble(host model.Host, ep model.Endpoint) Descriptor {
	headers := make(map[string]string, len(host.DefaultHeaders))
	for _, h := range host.DefaultHeaders {
		if h.Disabled {
			continue
		}
		headers[h.Key] = h.Value
	}

	params := make([]QueryParam, 0, len(ep.QueryItems))
	for _, q := range ep.QueryItems {
		if q.Disabled {
			continue
		}
		params = append(params, QueryParam{Name: q.Name, Value: q.Value})
	}

	return Descriptor{
		targetHost:  host.Address,
		path:        ep.Path,
		method:      ep.HTTPMethod,
		headers:     headers,
		queryParams: params,
	}
}

func (d Descriptor) TargetHost() string       { return d.targetHost }
func (d Descriptor) Path() string             { return d.path }
func (d Descriptor) Method() model.HTTPMethod { return d.method }

// Headers returns a copy of the merged header map
func (d Descriptor) Headers() map[string]string {
	out := make(map[string]string, len(d.headers))
	for k, v := range d.headers {
		out[k] = v
	}
	return out
}

// QueryParams returns a copy of the enabled query parameters in order
func (d Descriptor) QueryParams() []QueryParam {
	return append([]QueryParam{}, d.queryParams...)
}

// URL builds the target URL. A scheme carried in the host address
// ("http://localhost:8080") takes precedence over scheme; an empty scheme
// means DefaultScheme. Query parameters are encoded in list order.
func (d Descriptor) URL(scheme string) (*url.URL, error) {
	if scheme == "" {
		scheme = DefaultScheme
	}

	host := d.targetHost
	if i := strings.Index(host, "://"); i >= 0 {
		scheme = host[:i]
		host = host[i+3:]
	}
	host = strings.TrimRight(host, "/")
	if host == "" {
		return nil, fmt.Errorf("host address is empty")
	}
	if strings.ContainsAny(host, "/?#") {
		return nil, fmt.Errorf("host address %q must not contain a path", d.targetHost)
	}

	path := d.path
	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := &url.URL{
		Scheme:   strings.ToLower(scheme),
		Host:     host,
		Path:     path,
		RawQuery: encodeQuery(d.queryParams),
	}
	return u, nil
}

// encodeQuery keeps list order, unlike url.Values.Encode which sorts by key
func encodeQuery(params []QueryParam) string {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}
