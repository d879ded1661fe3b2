package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bcc-consulting/outreach-cli/internal/replies"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
)

var (
	repliesDays   int
	repliesDryRun bool
)

var repliesCmd = &cobra.Command{
	Use:   "replies",
	Short: "Scan configured inboxes for replies to sent outreach",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger := sendlog.Load(cfg.Sender.LedgerPath)

		days := repliesDays
		if days <= 0 {
			days = cfg.Replies.LookbackDays
		}

		tracker := &replies.Tracker{
			Ledger:   ledger,
			Readers:  inboxReaders(),
			Notifier: newNotifier(),
			Lookback: time.Duration(days) * 24 * time.Hour,
			DryRun:   repliesDryRun,
		}
		matches, err := tracker.Scan(cmd.Context())
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			fmt.Println("No new replies.")
			return nil
		}
		fmt.Printf("Found %d new replies:\n", len(matches))
		for _, m := range matches {
			fmt.Printf("  %s <%s> re: %s\n", m.Entry.ContactName, m.Entry.ContactEmail, m.Entry.Project)
		}
		return nil
	},
}

func init() {
	repliesCmd.Flags().IntVar(&repliesDays, "days", 0, "inbox lookback window in days (default from config)")
	repliesCmd.Flags().BoolVar(&repliesDryRun, "dry-run", false, "report matches without updating the ledger")

	rootCmd.AddCommand(repliesCmd)
}
