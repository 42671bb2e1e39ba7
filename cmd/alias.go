package cmd

import (
	"fmt"

	"github.com/vedsharma/reqbook/internal/app"
	"github.com/vedsharma/reqbook/internal/collection"
	"github.com/vedsharma/reqbook/internal/format"
	"github.com/vedsharma/reqbook/internal/model"
)

// resolveHost accepts either a host address or a host label.
// An exact address match wins over a label.
func resolveHost(a *app.App, arg string) (model.Host, error) {
	h, ok := a.Store.FindHost(arg)
	if !ok {
		return model.Host{}, fmt.Errorf("host '%s' not found", arg)
	}
	return h, nil
}

// resolveEndpoint finds path under the host named by hostArg
func resolveEndpoint(a *app.App, hostArg, path string) (model.Host, collection.EndpointRef, error) {
	h, err := resolveHost(a, hostArg)
	if err != nil {
		return model.Host{}, collection.EndpointRef{}, err
	}
	ep, ok := h.Endpoint(path)
	if !ok {
		return model.Host{}, collection.EndpointRef{}, fmt.Errorf("endpoint '%s' not found on %s", path, h.Address)
	}
	return h, collection.RefOf(h.Address, ep), nil
}

// report prints done when the store changed and unchanged otherwise.
// A mutation that changes nothing is not an error.
func report(changed bool, done, unchanged string) {
	if changed {
		format.PrintSuccess(done)
		return
	}
	format.PrintWarning(unchanged)
}
