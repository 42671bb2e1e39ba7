package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqbook/internal/app"
	"github.com/vedsharma/reqbook/internal/format"
	httpclient "github.com/vedsharma/reqbook/internal/http"
	"github.com/vedsharma/reqbook/internal/model"
)

var sendPath string

func init() {
	sendCmd := &cobra.Command{
		Use:   "send <host> <path>",
		Short: "Send an endpoint's request and record the response",
		Long: `Send an endpoint's request. Enabled default headers of the host and enabled
query items of the endpoint are merged into the request. Every response is
recorded, whatever its status code.

Examples:
  reqbook send icanhazdadjoke.com /
  reqbook send icanhazdadjoke.com /search --path results.0.joke`,
		Args: cobra.ExactArgs(2),
		Run:  withApp(runSend),
	}
	sendCmd.Flags().StringVarP(&sendPath, "path", "p", "", "Print only this JSON path of the payload (gjson syntax)")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string, a *app.App) error {
	_, ref, err := resolveEndpoint(a, args[0], args[1])
	if err != nil {
		return err
	}
	a.Store.SelectEndpoint(ref)

	rec, err := a.SendSelected(cmd.Context())
	if err != nil {
		var netErr *httpclient.NetworkError
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("request timed out: %v", err)
		}
		return fmt.Errorf("request failed: %v", err)
	}

	return printRecord(rec, sendPath)
}

// printRecord prints the whole record, or only the value at jsonPath
func printRecord(rec model.ResponseRecord, jsonPath string) error {
	if jsonPath == "" {
		format.PrintResponse(rec)
		return nil
	}
	value, err := format.ExtractPath(rec.Payload, jsonPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(format.Out, value)
	return nil
}
