package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/vedsharma/reqbook/internal/collection"
	httpclient "github.com/vedsharma/reqbook/internal/http"
	"github.com/vedsharma/reqbook/internal/model"
	"github.com/vedsharma/reqbook/internal/request"
	"github.com/vedsharma/reqbook/internal/storage"
)

// fakeDispatcher answers from a queue of canned results and records what it was sent
type fakeDispatcher struct {
	sent    []request.Descriptor
	results []fakeResult
	clock   time.Time
}

type fakeResult struct {
	status int
	err    error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, d request.Descriptor) (model.ResponseRecord, error) {
	f.sent = append(f.sent, d)
	res := fakeResult{status: 200}
	if len(f.results) > 0 {
		res, f.results = f.results[0], f.results[1:]
	}
	if res.err != nil {
		return model.ResponseRecord{}, res.err
	}
	f.clock = f.clock.Add(time.Second)
	return model.ResponseRecord{
		ID:         d.Path() + "@" + f.clock.Format(time.RFC3339),
		Payload:    []byte(`{"ok":true}`),
		StatusCode: res.status,
		ReceivedAt: f.clock,
	}, nil
}

func newTestApp(t *testing.T, d Dispatcher) (*App, *storage.MemoryStorage) {
	t.Helper()
	gw := storage.NewMemoryStorage()
	return New(gw, d), gw
}

func TestLoad_FirstRunUsesSeed(t *testing.T) {
	a, _ := newTestApp(t, &fakeDispatcher{})

	src, err := a.Load()
	require.NoError(t, err)
	assert.Equal(t, FromSeed, src)
	assert.Equal(t, collection.SeedHosts(), a.Store.Snapshot())
	assert.True(t, a.Dirty())
}

func TestLoad_DecodeErrorIsNotFirstRun(t *testing.T) {
	a, gw := newTestApp(t, &fakeDispatcher{})
	gw.Put(storage.StoredHosts, []byte("{broken"))

	_, err := a.Load()
	var decErr *storage.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Zero(t, a.Store.Len())
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	a, gw := newTestApp(t, &fakeDispatcher{clock: time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)})
	_, err := a.Load()
	require.NoError(t, err)

	a.Store.AddHeader("icanhazdadjoke.com", "Accept", "application/json")
	a.Store.UpdateHeader("icanhazdadjoke.com",
		model.HeaderItem{Key: "Accept", Value: "application/json"},
		model.HeaderItem{Key: "Accept", Value: "application/json", Disabled: true})
	_, err = a.Send(context.Background(), "icanhazdadjoke.com", "/")
	require.NoError(t, err)

	saved, err := a.SaveIfChanged()
	require.NoError(t, err)
	assert.True(t, saved)
	assert.False(t, a.Dirty())

	reloaded := New(gw, &fakeDispatcher{})
	src, err := reloaded.Load()
	require.NoError(t, err)
	assert.Equal(t, FromSnapshot, src)
	assert.Equal(t, a.Store.Snapshot(), reloaded.Store.Snapshot())
	assert.False(t, reloaded.Dirty())
}

func TestSaveIfChanged_CleanStoreSkipsSave(t *testing.T) {
	a, gw := newTestApp(t, &fakeDispatcher{})
	require.NoError(t, gw.Save(storage.StoredHosts, model.Snapshot{Hosts: []model.Host{model.NewHost("a.com", "")}}))
	_, err := a.Load()
	require.NoError(t, err)

	saved, err := a.SaveIfChanged()
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestErase_ThenLoadFallsBackToSeed(t *testing.T) {
	a, gw := newTestApp(t, &fakeDispatcher{})
	require.NoError(t, gw.Save(storage.StoredHosts, model.Snapshot{Hosts: []model.Host{model.NewHost("a.com", "")}}))
	_, err := a.Load()
	require.NoError(t, err)

	require.NoError(t, a.Erase())
	saved, err := a.SaveIfChanged()
	require.NoError(t, err)
	assert.False(t, saved, "erase must not be undone by the exit save")

	_, err = gw.Load(storage.StoredHosts)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	fresh := New(gw, &fakeDispatcher{})
	src, err := fresh.Load()
	require.NoError(t, err)
	assert.Equal(t, FromSeed, src)
	assert.Equal(t, collection.SeedHosts(), fresh.Store.Snapshot())
}

func TestSend_AssemblesEnabledItemsAndRecords(t *testing.T) {
	d := &fakeDispatcher{clock: time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)}
	a, _ := newTestApp(t, d)
	_, err := a.Load()
	require.NoError(t, err)

	a.Store.AddQueryItem(collection.EndpointRef{Host: "icanhazdadjoke.com", Path: "/search", Method: model.MethodGet}, "limit", "2")
	a.Store.AddHeader("icanhazdadjoke.com", "Accept", "application/json")

	rec, err := a.Send(context.Background(), "icanhazdadjoke.com", "/search")
	require.NoError(t, err)

	require.Len(t, d.sent, 1)
	assert.Equal(t, map[string]string{"Accept": "application/json"}, d.sent[0].Headers())
	assert.Equal(t, []request.QueryParam{{Name: "term", Value: "teacher"}, {Name: "limit", Value: "2"}}, d.sent[0].QueryParams())

	ep, ok := a.Store.Endpoint("icanhazdadjoke.com", "/search")
	require.True(t, ok)
	require.Len(t, ep.Responses, 1)
	assert.Equal(t, rec, ep.Responses[0])
}

func TestSend_ErrorStatusIsRecorded(t *testing.T) {
	a, _ := newTestApp(t, &fakeDispatcher{results: []fakeResult{{status: 404}}})
	_, err := a.Load()
	require.NoError(t, err)

	rec, err := a.Send(context.Background(), "icanhazdadjoke.com", "/")
	require.NoError(t, err)
	assert.Equal(t, 404, rec.StatusCode)

	ep, _ := a.Store.Endpoint("icanhazdadjoke.com", "/")
	assert.Len(t, ep.Responses, 1)
}

func TestSend_NetworkErrorLeavesStoreUnchanged(t *testing.T) {
	// Real client against a port nobody listens on
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	a, _ := newTestApp(t, httpclient.NewClient(httpclient.WithScheme("http")))
	a.Store.AddHost(addr, "")
	a.Store.AddEndpoint(addr, model.MethodGet, "/", "")
	before := a.Store.Revision()

	_, err = a.Send(context.Background(), addr, "/")
	var netErr *httpclient.NetworkError
	require.ErrorAs(t, err, &netErr)

	ep, _ := a.Store.Endpoint(addr, "/")
	assert.Empty(t, ep.Responses)
	assert.Equal(t, before, a.Store.Revision())
}

func TestSend_AgainstHTTPServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(r.URL.RawQuery))
	}))
	defer server.Close()

	a, _ := newTestApp(t, httpclient.NewClient())
	a.Store.AddHost(server.URL, "local")
	ref := collection.EndpointRef{Host: server.URL, Path: "/items", Method: model.MethodPost}
	a.Store.AddEndpoint(server.URL, model.MethodPost, "/items", "")
	a.Store.AddQueryItem(ref, "a", "1 2")

	rec, err := a.Send(context.Background(), "local", "/items")
	require.NoError(t, err)
	assert.Equal(t, 201, rec.StatusCode)
	assert.Equal(t, "a=1+2", string(rec.Payload))
}

func TestSend_UnknownTargets(t *testing.T) {
	a, _ := newTestApp(t, &fakeDispatcher{})
	_, err := a.Load()
	require.NoError(t, err)

	_, err = a.Send(context.Background(), "nope.com", "/")
	assert.ErrorIs(t, err, ErrUnknownHost)

	_, err = a.Send(context.Background(), "apple.com", "/missing")
	assert.ErrorIs(t, err, ErrUnknownEndpoint)
}

func TestSendSelected(t *testing.T) {
	a, _ := newTestApp(t, &fakeDispatcher{})
	_, err := a.Load()
	require.NoError(t, err)

	_, err = a.SendSelected(context.Background())
	assert.ErrorIs(t, err, ErrNothingSelected)

	require.True(t, a.Store.SelectEndpoint(collection.EndpointRef{Host: "icanhazdadjoke.com", Path: "/", Method: model.MethodGet}))
	_, err = a.SendSelected(context.Background())
	require.NoError(t, err)

	ep, _ := a.Store.Endpoint("icanhazdadjoke.com", "/")
	assert.Len(t, ep.Responses, 1)
}

func TestSendAll_ContinuesPastFailures(t *testing.T) {
	d := &fakeDispatcher{results: []fakeResult{{err: &httpclient.NetworkError{Method: "GET", URL: "x", Err: errors.New("boom")}}, {status: 200}}}
	a, _ := newTestApp(t, d)
	_, err := a.Load()
	require.NoError(t, err)

	results, err := a.SendAll(context.Background(), "icanhazdadjoke.com", rate.NewLimiter(rate.Inf, 1))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.Equal(t, "/", results[0].Endpoint.Path)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 200, results[1].Record.StatusCode)

	first, _ := a.Store.Endpoint("icanhazdadjoke.com", "/")
	second, _ := a.Store.Endpoint("icanhazdadjoke.com", "/search")
	assert.Empty(t, first.Responses)
	assert.Len(t, second.Responses, 1)
}

func TestSendAll_CancelledContextStops(t *testing.T) {
	a, _ := newTestApp(t, &fakeDispatcher{})
	_, err := a.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := a.SendAll(ctx, "icanhazdadjoke.com", rate.NewLimiter(rate.Every(time.Hour), 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)

	ep, _ := a.Store.Endpoint("icanhazdadjoke.com", "/")
	assert.Empty(t, ep.Responses)
}

func TestURL(t *testing.T) {
	a, _ := newTestApp(t, &fakeDispatcher{})
	_, err := a.Load()
	require.NoError(t, err)

	u, err := a.URL("icanhazdadjoke.com", "/search")
	require.NoError(t, err)
	assert.Equal(t, "https://icanhazdadjoke.com/search?term=teacher", u)

	plain := New(storage.NewMemoryStorage(), &fakeDispatcher{}, WithScheme("http"))
	plain.Store.AddHost("localhost:8080", "")
	plain.Store.AddEndpoint("localhost:8080", model.MethodGet, "health", "")
	u, err = plain.URL("localhost:8080", "health")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/health", u)
}
