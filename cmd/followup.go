package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bcc-consulting/outreach-cli/internal/replies"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
)

var (
	followupYes        bool
	followupDryRun     bool
	followupDays       int
	followupAttachment string
)

var followupCmd = &cobra.Command{
	Use:   "followup",
	Short: "Send the single follow-up nudge to contacts who have not replied",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger := sendlog.Load(cfg.Sender.LedgerPath)

		wait := cfg.Followup.FollowupWait()
		if followupDays > 0 {
			wait = time.Duration(followupDays) * 24 * time.Hour
		}

		due := ledger.DueFollowups(time.Now(), wait)
		if len(due) == 0 {
			fmt.Println("No follow-ups due.")
			return nil
		}

		fmt.Printf("Follow-ups due (%d):\n", len(due))
		for _, e := range due {
			fmt.Printf("  %s <%s> re: %s\n", e.ContactName, e.ContactEmail, e.Project)
		}
		if !followupYes && !followupDryRun && !confirm(fmt.Sprintf("Send %d follow-ups?", len(due))) {
			fmt.Println("Aborted.")
			return nil
		}

		attachment := followupAttachment
		if attachment == "" {
			attachment = cfg.Sender.Attachment
		}

		f := &replies.Followuper{
			Ledger:     ledger,
			Identities: identities(),
			CC:         cfg.Mail.CC,
			Attachment: attachment,
			Wait:       wait,
			DryRun:     followupDryRun,
		}
		sent, err := f.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Sent %d follow-ups\n", sent)
		return nil
	},
}

var markRepliedCmd = &cobra.Command{
	Use:   "mark-replied <email>",
	Short: "Manually mark a contact as replied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger := sendlog.Load(cfg.Sender.LedgerPath)
		n := ledger.MarkReplied(args[0])
		if n == 0 {
			fmt.Printf("No ledger entries for %s\n", args[0])
			return nil
		}
		if err := ledger.Save(); err != nil {
			return err
		}
		fmt.Printf("Marked %d entries for %s as replied\n", n, args[0])
		return nil
	},
}

func init() {
	followupCmd.Flags().BoolVar(&followupYes, "yes", false, "skip the confirmation prompt")
	followupCmd.Flags().BoolVar(&followupDryRun, "dry-run", false, "log the plan without sending")
	followupCmd.Flags().IntVar(&followupDays, "days", 0, "override the wait before a follow-up, in days")
	followupCmd.Flags().StringVar(&followupAttachment, "attachment", "", "file to attach (default from config)")

	followupCmd.AddCommand(markRepliedCmd)
	rootCmd.AddCommand(followupCmd)
}
