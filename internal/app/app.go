// Package app ties the collection store to the dispatcher and the storage
// gateway. An App is the single owner of its Store: network and storage I/O
// happen inside its methods and results are applied to the Store before they
// return.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/vedsharma/reqbook/internal/collection"
	"github.com/vedsharma/reqbook/internal/logging"
	"github.com/vedsharma/reqbook/internal/model"
	"github.com/vedsharma/reqbook/internal/request"
	"github.com/vedsharma/reqbook/internal/storage"
)

var (
	ErrUnknownHost     = errors.New("unknown host")
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrNothingSelected = errors.New("no endpoint selected")
)

// Dispatcher sends an assembled request
type Dispatcher interface {
	Dispatch(ctx context.Context, d request.Descriptor) (model.ResponseRecord, error)
}

// LoadSource tells where the store contents came from
type LoadSource int

const (
	FromSnapshot LoadSource = iota
	FromSeed
)

func (s LoadSource) String() string {
	if s == FromSeed {
		return "seed"
	}
	return "snapshot"
}

// App is the coordination context for one session
type App struct {
	Store *collection.Store

	dispatcher Dispatcher
	gateway    storage.Gateway
	logger     *slog.Logger
	location   storage.Location
	scheme     string

	savedRevision uint64
}

// Option configures an App
type Option func(*App)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithLocation overrides the snapshot location
func WithLocation(loc storage.Location) Option {
	return func(a *App) { a.location = loc }
}

// WithScheme sets the scheme used when rendering endpoint URLs
func WithScheme(scheme string) Option {
	return func(a *App) {
		if scheme != "" {
			a.scheme = scheme
		}
	}
}

// New creates an App with an empty store. Call Load to populate it.
func New(gateway storage.Gateway, dispatcher Dispatcher, opts ...Option) *App {
	a := &App{
		Store:      collection.New(nil),
		dispatcher: dispatcher,
		gateway:    gateway,
		logger:     logging.NewNopLogger(),
		location:   storage.StoredHosts,
		scheme:     request.DefaultScheme,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// =============================================================================
// Lifecycle
// =============================================================================

// Load fills the store from the stored snapshot, or from the seed dataset when
// nothing has been saved yet. Undecodable data is returned as an error and the
// store is left empty; it is never mistaken for a first run.
func (a *App) Load() (LoadSource, error) {
	snap, err := a.gateway.Load(a.location)
	switch {
	case err == nil:
		a.Store.Replace(snap.Hosts)
		a.savedRevision = a.Store.Revision()
		a.logger.Debug("store loaded",
			slog.String("location", string(a.location)),
			slog.Int("hosts", a.Store.Len()))
		return FromSnapshot, nil
	case errors.Is(err, storage.ErrNotFound):
		// Seed stays dirty so the first save writes it out
		a.Store.Replace(collection.SeedHosts())
		a.logger.Info("no snapshot found, using seed data",
			slog.String("location", string(a.location)))
		return FromSeed, nil
	default:
		a.logger.Error("failed to load store",
			slog.String("location", string(a.location)),
			slog.String("error", err.Error()))
		return FromSnapshot, err
	}
}

// Dirty reports whether the store changed since the last load or save
func (a *App) Dirty() bool {
	return a.Store.Revision() != a.savedRevision
}

// Save writes the whole store to the gateway
func (a *App) Save() error {
	rev := a.Store.Revision()
	snap := model.Snapshot{Hosts: a.Store.Snapshot()}
	if err := a.gateway.Save(a.location, snap); err != nil {
		return err
	}
	a.savedRevision = rev
	return nil
}

// SaveIfChanged saves only when the store is dirty
func (a *App) SaveIfChanged() (bool, error) {
	if !a.Dirty() {
		return false, nil
	}
	if err := a.Save(); err != nil {
		return false, err
	}
	return true, nil
}

// Erase removes the stored snapshot. The in-memory store is kept but counts as
// clean, so SaveIfChanged will not write it back.
func (a *App) Erase() error {
	if err := a.gateway.Erase(a.location); err != nil {
		return err
	}
	a.savedRevision = a.Store.Revision()
	a.logger.Info("snapshot erased", slog.String("location", string(a.location)))
	return nil
}

// Close releases the gateway
func (a *App) Close() error {
	return a.gateway.Close()
}

// =============================================================================
// Requests
// =============================================================================

// URL renders the URL an endpoint would be sent to
func (a *App) URL(host, path string) (string, error) {
	h, ep, err := a.lookup(host, path)
	if err != nil {
		return "", err
	}
	u, err := request.Assemble(h, ep).URL(a.scheme)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Send assembles and dispatches one endpoint and records the response. On a
// dispatch failure the store is not touched.
func (a *App) Send(ctx context.Context, host, path string) (model.ResponseRecord, error) {
	h, ep, err := a.lookup(host, path)
	if err != nil {
		return model.ResponseRecord{}, err
	}
	return a.send(ctx, h, ep)
}

// SendSelected sends the currently selected endpoint
func (a *App) SendSelected(ctx context.Context) (model.ResponseRecord, error) {
	sel := a.Store.Selection()
	if sel.Host == nil || sel.Endpoint == nil {
		return model.ResponseRecord{}, ErrNothingSelected
	}
	return a.send(ctx, *sel.Host, *sel.Endpoint)
}

func (a *App) send(ctx context.Context, h model.Host, ep model.Endpoint) (model.ResponseRecord, error) {
	rec, err := a.dispatcher.Dispatch(ctx, request.Assemble(h, ep))
	if err != nil {
		a.logger.Warn("request failed",
			slog.String("host", h.Address),
			slog.String("method", ep.HTTPMethod.String()),
			slog.String("path", ep.Path),
			slog.String("error", err.Error()))
		return model.ResponseRecord{}, err
	}

	a.Store.RecordResponse(collection.RefOf(h.Address, ep), rec)
	return rec, nil
}

// Result is the outcome of one endpoint in a batch
type Result struct {
	Endpoint model.Endpoint
	Record   model.ResponseRecord
	Err      error
}

// SendAll sends every endpoint of host in order. A failing endpoint is
// reported in its Result and the batch moves on. When limiter is non-nil each
// send waits for it; a cancelled context stops the batch.
func (a *App) SendAll(ctx context.Context, host string, limiter *rate.Limiter) ([]Result, error) {
	h, ok := a.Store.FindHost(host)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHost, host)
	}

	results := make([]Result, 0, len(h.Endpoints))
	for _, ep := range h.Endpoints {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return results, err
			}
		}
		rec, err := a.send(ctx, h, ep)
		results = append(results, Result{Endpoint: ep, Record: rec, Err: err})
	}

	a.logger.Info("batch finished",
		slog.String("host", h.Address),
		slog.Int("endpoints", len(results)))
	return results, nil
}

// lookup resolves a host (by address or label) and one of its paths
func (a *App) lookup(host, path string) (model.Host, model.Endpoint, error) {
	h, ok := a.Store.FindHost(host)
	if !ok {
		return model.Host{}, model.Endpoint{}, fmt.Errorf("%w: %s", ErrUnknownHost, host)
	}
	ep, ok := h.Endpoint(path)
	if !ok {
		return model.Host{}, model.Endpoint{}, fmt.Errorf("%w: %s on %s", ErrUnknownEndpoint, path, h.Address)
	}
	return h, ep, nil
}
