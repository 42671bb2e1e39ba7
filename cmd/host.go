package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/vedsharma/reqbook/internal/app"
	"github.com/vedsharma/reqbook/internal/format"
)

var (
	hostLabel   string
	showSecrets bool
	runRate     float64
)

func init() {
	hostCmd := &cobra.Command{
		Use:   "host",
		Short: "Manage hosts",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all hosts",
		Run:   withApp(runHostList),
	}

	addCmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Add a host",
		Long: `Add a host. The address may carry a scheme to override the default.

Examples:
  reqbook host add api.example.com
  reqbook host add http://localhost:8080 --label local`,
		Args: cobra.ExactArgs(1),
		Run:  withApp(runHostAdd),
	}
	addCmd.Flags().StringVarP(&hostLabel, "label", "l", "", "Display label, usable in place of the address")

	deleteCmd := &cobra.Command{
		Use:   "delete <host>",
		Short: "Delete a host with all its endpoints and headers",
		Args:  cobra.ExactArgs(1),
		Run:   withApp(runHostDelete),
	}

	labelCmd := &cobra.Command{
		Use:   "label <host> <label>",
		Short: "Set a host's label (empty string removes it)",
		Args:  cobra.ExactArgs(2),
		Run:   withApp(runHostLabel),
	}

	showCmd := &cobra.Command{
		Use:   "show <host>",
		Short: "Show a host's headers and endpoints",
		Args:  cobra.ExactArgs(1),
		Run:   withApp(runHostShow),
	}
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Show sensitive header values")

	runCmd := &cobra.Command{
		Use:   "run <host>",
		Short: "Send every endpoint of a host",
		Args:  cobra.ExactArgs(1),
		Run:   withApp(runHostRun),
	}
	runCmd.Flags().Float64Var(&runRate, "rate", 0, "Maximum requests per second (0 = no limit)")

	hostCmd.AddCommand(listCmd, addCmd, deleteCmd, labelCmd, showCmd, runCmd)
	rootCmd.AddCommand(hostCmd)
}

func runHostList(cmd *cobra.Command, args []string, a *app.App) error {
	format.PrintHosts(a.Store.Snapshot())
	return nil
}

func runHostAdd(cmd *cobra.Command, args []string, a *app.App) error {
	address := args[0]
	if address == "" {
		return fmt.Errorf("host address must not be empty")
	}
	report(a.Store.AddHost(address, hostLabel),
		fmt.Sprintf("Host '%s' added", address),
		fmt.Sprintf("Host '%s' already exists", address))
	return nil
}

func runHostDelete(cmd *cobra.Command, args []string, a *app.App) error {
	h, err := resolveHost(a, args[0])
	if err != nil {
		return err
	}
	report(a.Store.DeleteHost(h.Address),
		fmt.Sprintf("Host '%s' deleted", h.Address),
		fmt.Sprintf("Host '%s' not found", h.Address))
	return nil
}

func runHostLabel(cmd *cobra.Command, args []string, a *app.App) error {
	h, err := resolveHost(a, args[0])
	if err != nil {
		return err
	}
	report(a.Store.SetHostLabel(h.Address, args[1]),
		fmt.Sprintf("Host '%s' labeled '%s'", h.Address, args[1]),
		fmt.Sprintf("Host '%s' already has that label", h.Address))
	return nil
}

func runHostShow(cmd *cobra.Command, args []string, a *app.App) error {
	h, err := resolveHost(a, args[0])
	if err != nil {
		return err
	}
	a.Store.SelectHost(h.Address)
	format.PrintHost(h, showSecrets)
	return nil
}

func runHostRun(cmd *cobra.Command, args []string, a *app.App) error {
	h, err := resolveHost(a, args[0])
	if err != nil {
		return err
	}
	if len(h.Endpoints) == 0 {
		return fmt.Errorf("host '%s' has no endpoints", h.Address)
	}

	var limiter *rate.Limiter
	if runRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(runRate), 1)
	}

	fmt.Fprintf(format.Out, "Running %d endpoints on '%s'\n\n", len(h.Endpoints), h.Address)

	results, err := a.SendAll(cmd.Context(), h.Address, limiter)
	failed := 0
	for i, r := range results {
		fmt.Fprintf(format.Out, "[%d/%d] %s %s\n", i+1, len(h.Endpoints), r.Endpoint.HTTPMethod, r.Endpoint.Path)
		if r.Err != nil {
			failed++
			format.PrintError(fmt.Sprintf("Request failed: %v", r.Err))
			continue
		}
		fmt.Fprintf(format.Out, "  %s (%d bytes)\n", format.StatusLine(r.Record.StatusCode), r.Record.Size())
	}
	fmt.Fprintln(format.Out)
	if err != nil {
		return fmt.Errorf("run stopped: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(results))
	}
	format.PrintSuccess(fmt.Sprintf("Completed running '%s'", h.Address))
	return nil
}
