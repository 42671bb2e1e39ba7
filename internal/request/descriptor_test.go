package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/reqbook/internal/model"
)

func TestAssemble_DropsDisabledHeaders(t *testing.T) {
	host := model.NewHost("api.example.com", "")
	host.DefaultHeaders = []model.HeaderItem{
		{Key: "A", Value: "1"},
		{Key: "B", Value: "2", Disabled: true},
		{Key: "C", Value: "3"},
	}
	ep := model.NewEndpoint(model.MethodGet, "/", "")

	d := Assemble(host, ep)

	assert.Equal(t, map[string]string{"A": "1", "C": "3"}, d.Headers())
}

func TestAssemble_LastDuplicateHeaderWins(t *testing.T) {
	host := model.NewHost("api.example.com", "")
	host.DefaultHeaders = []model.HeaderItem{
		{Key: "Accept", Value: "text/plain"},
		{Key: "Accept", Value: "application/json"},
		{Key: "Accept", Value: "text/html", Disabled: true},
	}

	d := Assemble(host, model.NewEndpoint(model.MethodGet, "/", ""))

	assert.Equal(t, map[string]string{"Accept": "application/json"}, d.Headers())
}

func TestAssemble_FiltersQueryItemsInOrder(t *testing.T) {
	ep := model.NewEndpoint(model.MethodPost, "/search", "")
	ep.QueryItems = []model.QueryItem{
		{Name: "z", Value: "1"},
		{Name: "a", Value: "2", Disabled: true},
		{Name: "m", Value: "3"},
	}

	d := Assemble(model.NewHost("api.example.com", ""), ep)

	assert.Equal(t, []QueryParam{{Name: "z", Value: "1"}, {Name: "m", Value: "3"}}, d.QueryParams())
	assert.Equal(t, model.MethodPost, d.Method())
	assert.Equal(t, "/search", d.Path())
	assert.Equal(t, "api.example.com", d.TargetHost())
}

func TestAssemble_DoesNotAliasInputs(t *testing.T) {
	host := model.NewHost("api.example.com", "")
	host.DefaultHeaders = []model.HeaderItem{{Key: "A", Value: "1"}}
	d := Assemble(host, model.NewEndpoint(model.MethodGet, "/", ""))

	headers := d.Headers()
	headers["A"] = "changed"
	host.DefaultHeaders[0].Value = "changed"

	assert.Equal(t, "1", d.Headers()["A"])
}

func TestDescriptorURL(t *testing.T) {
	tests := []struct {
		name    string
		address string
		path    string
		scheme  string
		params  []model.QueryItem
		want    string
	}{
		{name: "default scheme", address: "icanhazdadjoke.com", path: "/", want: "https://icanhazdadjoke.com/"},
		{name: "configured scheme", address: "localhost:8080", path: "/x", scheme: "http", want: "http://localhost:8080/x"},
		{name: "address scheme wins", address: "http://127.0.0.1:9000", path: "/x", scheme: "https", want: "http://127.0.0.1:9000/x"},
		{name: "missing leading slash", address: "api.example.com", path: "users", want: "https://api.example.com/users"},
		{name: "empty path", address: "api.example.com", path: "", want: "https://api.example.com/"},
		{
			name:    "query kept in order and encoded",
			address: "api.example.com",
			path:    "/search",
			params:  []model.QueryItem{{Name: "term", Value: "dad jokes"}, {Name: "a&b", Value: "x=y"}},
			want:    "https://api.example.com/search?term=dad+jokes&a%26b=x%3Dy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := model.NewEndpoint(model.MethodGet, tt.path, "")
			ep.QueryItems = append(ep.QueryItems, tt.params...)
			d := Assemble(model.NewHost(tt.address, ""), ep)

			u, err := d.URL(tt.scheme)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestDescriptorURL_InvalidHost(t *testing.T) {
	for _, address := range []string{"", "api.example.com/v1"} {
		d := Assemble(model.NewHost(address, ""), model.NewEndpoint(model.MethodGet, "/", ""))
		_, err := d.URL("")
		assert.Error(t, err, address)
	}
}
