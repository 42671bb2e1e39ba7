package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqbook/internal/app"
	"github.com/vedsharma/reqbook/internal/collection"
	"github.com/vedsharma/reqbook/internal/model"
)

func init() {
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Manage an endpoint's query items",
	}

	addCmd := &cobra.Command{
		Use:   "add <host> <path> <name> <value>",
		Short: "Add a query item, replacing any item with the same name",
		Args:  cobra.ExactArgs(4),
		Run:   withApp(runQueryAdd),
	}

	updateCmd := &cobra.Command{
		Use:   "update <host> <path> <name> <value> <new-name> <new-value>",
		Short: "Replace a query item, keeping its enabled state",
		Args:  cobra.ExactArgs(6),
		Run:   withApp(runQueryUpdate),
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <host> <path> <name> <value>",
		Short: "Enable or disable a query item",
		Args:  cobra.ExactArgs(4),
		Run:   withApp(runQueryToggle),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <host> <path> <name> <value>",
		Short: "Delete a query item",
		Args:  cobra.ExactArgs(4),
		Run:   withApp(runQueryDelete),
	}

	queryCmd.AddCommand(addCmd, updateCmd, toggleCmd, deleteCmd)
	rootCmd.AddCommand(queryCmd)
}

// findQueryItem returns the stored item with the name/value identity
func findQueryItem(a *app.App, ref collection.EndpointRef, name, value string) (model.QueryItem, bool) {
	ep, ok := a.Store.Endpoint(ref.Host, ref.Path)
	if !ok {
		return model.QueryItem{}, false
	}
	probe := model.QueryItem{Name: name, Value: value}
	for _, item := range ep.QueryItems {
		if item.SameAs(probe) {
			return item, true
		}
	}
	return model.QueryItem{}, false
}

func runQueryAdd(cmd *cobra.Command, args []string, a *app.App) error {
	_, ref, err := resolveEndpoint(a, args[0], args[1])
	if err != nil {
		return err
	}
	name, value := args[2], args[3]
	if name == "" {
		return fmt.Errorf("query item name must not be empty")
	}
	report(a.Store.AddQueryItem(ref, name, value),
		fmt.Sprintf("Query item '%s=%s' set on %s", name, value, ref.Path),
		fmt.Sprintf("Query item '%s=%s' already set on %s", name, value, ref.Path))
	return nil
}

func runQueryUpdate(cmd *cobra.Command, args []string, a *app.App) error {
	_, ref, err := resolveEndpoint(a, args[0], args[1])
	if err != nil {
		return err
	}
	old, ok := findQueryItem(a, ref, args[2], args[3])
	if !ok {
		report(false, "", fmt.Sprintf("Query item '%s=%s' not found on %s", args[2], args[3], ref.Path))
		return nil
	}
	updated := model.QueryItem{Name: args[4], Value: args[5], Disabled: old.Disabled}
	report(a.Store.UpdateQueryItem(ref, old, updated),
		fmt.Sprintf("Query item '%s' updated on %s", updated.Name, ref.Path),
		"Query item unchanged")
	return nil
}

func runQueryToggle(cmd *cobra.Command, args []string, a *app.App) error {
	_, ref, err := resolveEndpoint(a, args[0], args[1])
	if err != nil {
		return err
	}
	old, ok := findQueryItem(a, ref, args[2], args[3])
	if !ok {
		report(false, "", fmt.Sprintf("Query item '%s=%s' not found on %s", args[2], args[3], ref.Path))
		return nil
	}
	updated := old
	updated.Disabled = !old.Disabled
	state := "enabled"
	if updated.Disabled {
		state = "disabled"
	}
	report(a.Store.UpdateQueryItem(ref, old, updated),
		fmt.Sprintf("Query item '%s' %s on %s", old.Name, state, ref.Path),
		"Query item unchanged")
	return nil
}

func runQueryDelete(cmd *cobra.Command, args []string, a *app.App) error {
	_, ref, err := resolveEndpoint(a, args[0], args[1])
	if err != nil {
		return err
	}
	item := model.QueryItem{Name: args[2], Value: args[3]}
	report(a.Store.DeleteQueryItem(ref, item),
		fmt.Sprintf("Query item '%s' deleted from %s", item.Name, ref.Path),
		fmt.Sprintf("Query item '%s=%s' not found on %s", item.Name, item.Value, ref.Path))
	return nil
}
