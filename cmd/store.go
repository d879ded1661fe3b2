package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
	"github.com/bcc-consulting/outreach-cli/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the research cache database",
}

var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the cache schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("no store configured, set store.driver in the config")
		}
		defer st.Close()

		if err := st.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Migrations complete")
		return nil
	},
}

var storePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired research cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("no store configured, set store.driver in the config")
		}
		defer st.Close()

		n, err := st.DeleteExpiredResearch(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d expired cache entries\n", n)
		return nil
	},
}

var storeArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Copy the send ledger into the database archive",
	Long:  "Bulk-copies all ledger entries into the send_log_archive table. Requires the postgres driver.",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		pg, ok := st.(*store.PostgresStore)
		if !ok {
			if st != nil {
				st.Close()
			}
			return fmt.Errorf("archive requires the postgres store driver")
		}
		defer pg.Close()

		ledger := sendlog.Load(cfg.Sender.LedgerPath)
		if len(ledger.Entries) == 0 {
			fmt.Println("Ledger is empty, nothing to archive.")
			return nil
		}

		n, err := pg.ArchiveSendLog(cmd.Context(), ledger.Entries)
		if err != nil {
			return err
		}
		fmt.Printf("Archived %d ledger entries\n", n)
		return nil
	},
}

func init() {
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storePruneCmd)
	storeCmd.AddCommand(storeArchiveCmd)
	rootCmd.AddCommand(storeCmd)
}
