package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqbook/internal/app"
	"github.com/vedsharma/reqbook/internal/format"
	"github.com/vedsharma/reqbook/internal/model"
)

var endpointLabel string

func init() {
	endpointCmd := &cobra.Command{
		Use:     "endpoint",
		Aliases: []string{"ep"},
		Short:   "Manage a host's endpoints",
	}

	addCmd := &cobra.Command{
		Use:   "add <host> <method> <path>",
		Short: "Add an endpoint",
		Long: `Add an endpoint. Paths are unique per host: adding a path that already
exists does nothing, even with a different method.

Example:
  reqbook endpoint add icanhazdadjoke.com GET /search --label "Search for Joke"`,
		Args: cobra.ExactArgs(3),
		Run:  withApp(runEndpointAdd),
	}
	addCmd.Flags().StringVarP(&endpointLabel, "label", "l", "", "Display label")

	deleteCmd := &cobra.Command{
		Use:   "delete <host> <path>",
		Short: "Delete an endpoint and its response history",
		Args:  cobra.ExactArgs(2),
		Run:   withApp(runEndpointDelete),
	}

	showCmd := &cobra.Command{
		Use:   "show <host> <path>",
		Short: "Show an endpoint's URL and query items",
		Args:  cobra.ExactArgs(2),
		Run:   withApp(runEndpointShow),
	}

	endpointCmd.AddCommand(addCmd, deleteCmd, showCmd)
	rootCmd.AddCommand(endpointCmd)
}

func runEndpointAdd(cmd *cobra.Command, args []string, a *app.App) error {
	h, err := resolveHost(a, args[0])
	if err != nil {
		return err
	}
	method, err := model.ParseMethod(args[1])
	if err != nil {
		return err
	}
	path := args[2]
	report(a.Store.AddEndpoint(h.Address, method, path, endpointLabel),
		fmt.Sprintf("Endpoint %s %s added to %s", method, path, h.Address),
		fmt.Sprintf("Path '%s' already exists on %s", path, h.Address))
	return nil
}

func runEndpointDelete(cmd *cobra.Command, args []string, a *app.App) error {
	h, ref, err := resolveEndpoint(a, args[0], args[1])
	if err != nil {
		return err
	}
	report(a.Store.DeleteEndpoint(ref),
		fmt.Sprintf("Endpoint %s %s deleted from %s", ref.Method, ref.Path, h.Address),
		fmt.Sprintf("Endpoint '%s' not found on %s", ref.Path, h.Address))
	return nil
}

func runEndpointShow(cmd *cobra.Command, args []string, a *app.App) error {
	h, ref, err := resolveEndpoint(a, args[0], args[1])
	if err != nil {
		return err
	}
	target, err := a.URL(h.Address, ref.Path)
	if err != nil {
		return err
	}
	a.Store.SelectEndpoint(ref)
	sel := a.Store.Selection()
	format.PrintEndpoint(*sel.Endpoint, target)
	return nil
}
