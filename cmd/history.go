package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqbook/internal/app"
	"github.com/vedsharma/reqbook/internal/format"
	"github.com/vedsharma/reqbook/internal/model"
)

var (
	responseLimit int
	responsePath  string
)

func init() {
	responseCmd := &cobra.Command{
		Use:     "response",
		Aliases: []string{"history"},
		Short:   "Inspect an endpoint's recorded responses",
	}

	listCmd := &cobra.Command{
		Use:   "list <host> <path>",
		Short: "List recorded responses, newest first",
		Args:  cobra.ExactArgs(2),
		Run:   withApp(runResponseList),
	}
	listCmd.Flags().IntVarP(&responseLimit, "limit", "n", 10, "Number of responses to show (0 = all)")

	showCmd := &cobra.Command{
		Use:   "show <host> <path> <id or index>",
		Short: "Show one recorded response",
		Args:  cobra.ExactArgs(3),
		Run:   withApp(runResponseShow),
	}
	showCmd.Flags().StringVarP(&responsePath, "path", "p", "", "Print only this JSON path of the payload (gjson syntax)")

	clearCmd := &cobra.Command{
		Use:   "clear <host> <path>",
		Short: "Clear an endpoint's response history",
		Args:  cobra.ExactArgs(2),
		Run:   withApp(runResponseClear),
	}

	responseCmd.AddCommand(listCmd, showCmd, clearCmd)
	rootCmd.AddCommand(responseCmd)
}

func runResponseList(cmd *cobra.Command, args []string, a *app.App) error {
	_, ref, err := resolveEndpoint(a, args[0], args[1])
	if err != nil {
		return err
	}
	ep, _ := a.Store.Endpoint(ref.Host, ref.Path)
	format.PrintResponseList(ep.Responses, responseLimit)
	return nil
}

func runResponseShow(cmd *cobra.Command, args []string, a *app.App) error {
	_, ref, err := resolveEndpoint(a, args[0], args[1])
	if err != nil {
		return err
	}
	ep, _ := a.Store.Endpoint(ref.Host, ref.Path)

	rec, ok := findResponse(ep.Responses, args[2])
	if !ok {
		return fmt.Errorf("response '%s' not found", args[2])
	}
	return printRecord(rec, responsePath)
}

func runResponseClear(cmd *cobra.Command, args []string, a *app.App) error {
	_, ref, err := resolveEndpoint(a, args[0], args[1])
	if err != nil {
		return err
	}
	report(a.Store.ClearResponses(ref),
		fmt.Sprintf("Response history of %s cleared", ref.Path),
		fmt.Sprintf("No responses recorded for %s", ref.Path))
	return nil
}

// findResponse accepts a 1-based index into the newest-first list, or an ID
func findResponse(responses []model.ResponseRecord, idOrIndex string) (model.ResponseRecord, bool) {
	if idx, err := strconv.Atoi(idOrIndex); err == nil {
		if idx >= 1 && idx <= len(responses) {
			return responses[idx-1], true
		}
		return model.ResponseRecord{}, false
	}
	for _, r := range responses {
		if r.ID == idOrIndex {
			return r, true
		}
	}
	return model.ResponseRecord{}, false
}
