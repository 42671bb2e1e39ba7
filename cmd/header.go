package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqbook/internal/app"
	"github.com/vedsharma/reqbook/internal/model"
)

func init() {
	headerCmd := &cobra.Command{
		Use:   "header",
		Short: "Manage a host's default headers",
	}

	addCmd := &cobra.Command{
		Use:   "add <host> <key> <value>",
		Short: "Add a default header",
		Args:  cobra.ExactArgs(3),
		Run:   withApp(runHeaderAdd),
	}

	updateCmd := &cobra.Command{
		Use:   "update <host> <key> <value> <new-key> <new-value>",
		Short: "Replace a default header, keeping its enabled state",
		Args:  cobra.ExactArgs(5),
		Run:   withApp(runHeaderUpdate),
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <host> <key> <value>",
		Short: "Enable or disable a default header",
		Args:  cobra.ExactArgs(3),
		Run:   withApp(runHeaderToggle),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <host> <key> <value>",
		Short: "Delete a default header",
		Args:  cobra.ExactArgs(3),
		Run:   withApp(runHeaderDelete),
	}

	headerCmd.AddCommand(addCmd, updateCmd, toggleCmd, deleteCmd)
	rootCmd.AddCommand(headerCmd)
}

// findHeader returns the stored header with the key/value identity
func findHeader(h model.Host, key, value string) (model.HeaderItem, bool) {
	probe := model.HeaderItem{Key: key, Value: value}
	for _, item := range h.DefaultHeaders {
		if item.SameAs(probe) {
			return item, true
		}
	}
	return model.HeaderItem{}, false
}

func runHeaderAdd(cmd *cobra.Command, args []string, a *app.App) error {
	h, err := resolveHost(a, args[0])
	if err != nil {
		return err
	}
	key, value := args[1], args[2]
	if key == "" {
		return fmt.Errorf("header key must not be empty")
	}
	report(a.Store.AddHeader(h.Address, key, value),
		fmt.Sprintf("Header '%s' added to %s", key, h.Address),
		fmt.Sprintf("Header '%s: %s' already exists on %s", key, value, h.Address))
	return nil
}

func runHeaderUpdate(cmd *cobra.Command, args []string, a *app.App) error {
	h, err := resolveHost(a, args[0])
	if err != nil {
		return err
	}
	old, ok := findHeader(h, args[1], args[2])
	if !ok {
		report(false, "", fmt.Sprintf("Header '%s: %s' not found on %s", args[1], args[2], h.Address))
		return nil
	}
	updated := model.HeaderItem{Key: args[3], Value: args[4], Disabled: old.Disabled}
	report(a.Store.UpdateHeader(h.Address, old, updated),
		fmt.Sprintf("Header '%s' updated on %s", updated.Key, h.Address),
		"Header unchanged")
	return nil
}

func runHeaderToggle(cmd *cobra.Command, args []string, a *app.App) error {
	h, err := resolveHost(a, args[0])
	if err != nil {
		return err
	}
	old, ok := findHeader(h, args[1], args[2])
	if !ok {
		report(false, "", fmt.Sprintf("Header '%s: %s' not found on %s", args[1], args[2], h.Address))
		return nil
	}
	updated := old
	updated.Disabled = !old.Disabled
	state := "enabled"
	if updated.Disabled {
		state = "disabled"
	}
	report(a.Store.UpdateHeader(h.Address, old, updated),
		fmt.Sprintf("Header '%s' %s on %s", old.Key, state, h.Address),
		"Header unchanged")
	return nil
}

func runHeaderDelete(cmd *cobra.Command, args []string, a *app.App) error {
	h, err := resolveHost(a, args[0])
	if err != nil {
		return err
	}
	item := model.HeaderItem{Key: args[1], Value: args[2]}
	report(a.Store.DeleteHeader(h.Address, item),
		fmt.Sprintf("Header '%s' deleted from %s", item.Key, h.Address),
		fmt.Sprintf("Header '%s: %s' not found on %s", item.Key, item.Value, h.Address))
	return nil
}
