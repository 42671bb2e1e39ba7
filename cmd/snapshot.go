package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqbook/internal/format"
	"github.com/vedsharma/reqbook/internal/storage"
)

func init() {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage the stored snapshot",
	}

	eraseCmd := &cobra.Command{
		Use:   "erase",
		Short: "Erase the stored snapshot; the next command starts from the seed data",
		Args:  cobra.NoArgs,
		Run:   runSnapshotErase,
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print where the snapshot is stored",
		Args:  cobra.NoArgs,
		Run:   runSnapshotPath,
	}

	snapshotCmd.AddCommand(eraseCmd, pathCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// runSnapshotErase does not load the store, so it also works on a snapshot
// that can no longer be decoded
func runSnapshotErase(cmd *cobra.Command, args []string) {
	s, err := openSession(false)
	if err != nil {
		format.PrintError(err.Error())
		os.Exit(1)
	}
	defer s.close()

	if err := s.app.Erase(); err != nil {
		format.PrintError(fmt.Sprintf("Failed to erase snapshot: %v", err))
		s.close()
		os.Exit(1)
	}
	format.PrintSuccess("Snapshot erased")
}

func runSnapshotPath(cmd *cobra.Command, args []string) {
	s, err := openSession(false)
	if err != nil {
		format.PrintError(err.Error())
		os.Exit(1)
	}
	defer s.close()

	switch gw := s.gateway.(type) {
	case *storage.JSONStorage:
		fmt.Fprintln(format.Out, gw.Path(storage.StoredHosts))
	case *storage.SQLiteStorage:
		fmt.Fprintln(format.Out, gw.Path())
	}
}
