package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/dispatch"
	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/outreach"
	"github.com/bcc-consulting/outreach-cli/internal/sendlog"
)

var (
	sendYes        bool
	sendAll        bool
	sendLimit      int
	sendIdentity   string
	sendDryRun     bool
	sendAttachment string
	sendCompany    string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send generated drafts under the daily cap",
	Long:  "Loads the drafts in the outbound directory highest score first, splits today's remaining capacity across the configured identities, and sends. Drafts to addresses already in the ledger are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		drafts, err := outreach.LoadDrafts(cfg.Outreach.DraftDir)
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			fmt.Println("No drafts to send.")
			return nil
		}

		ledger := sendlog.Load(cfg.Sender.LedgerPath)
		queue := filterDrafts(drafts, ledger)
		if len(queue) == 0 {
			fmt.Println("Every draft is already sent or filtered out.")
			return nil
		}
		if sendLimit > 0 && len(queue) > sendLimit {
			queue = queue[:sendLimit]
		}

		idents := identities()
		if sendIdentity != "" {
			idents = pickIdentity(idents, sendIdentity)
			if len(idents) == 0 {
				return fmt.Errorf("no identity named %q configured", sendIdentity)
			}
		}
		if len(idents) == 0 {
			return fmt.Errorf("no sending identities configured")
		}

		total := cfg.Sender.DailyCap
		if sendAll {
			total = len(queue) * len(idents)
		}
		caps := dispatch.SplitCap(total, len(idents))
		sentToday := ledger.CountsOn(time.Now())

		plan := dispatch.BuildPlan(queue, idents, caps, sentToday)
		if len(plan) == 0 {
			fmt.Println("Daily cap already reached, nothing to send.")
			return nil
		}

		printPlan(plan)
		if !sendYes && !sendDryRun && !confirm(fmt.Sprintf("Send %d emails?", len(plan))) {
			fmt.Println("Aborted.")
			return nil
		}

		attachment := sendAttachment
		if attachment == "" {
			attachment = cfg.Sender.Attachment
		}

		d := &dispatch.Dispatcher{
			Ledger:     ledger,
			CC:         cfg.Mail.CC,
			Attachment: attachment,
			DryRun:     sendDryRun,
		}
		res, err := d.Run(cmd.Context(), plan)
		if err != nil {
			return err
		}

		if !sendDryRun {
			removeSentDrafts(plan, ledger)
		}

		fmt.Printf("Sent %d, failed %d, skipped %d\n", res.Sent, res.Failed, res.Skipped)
		for ident, n := range res.SentByIdent {
			fmt.Printf("  %s: %d\n", ident, n)
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d sends failed", res.Failed)
		}
		return nil
	},
}

// filterDrafts drops drafts already recorded in the ledger and applies
// the company substring filter.
func filterDrafts(drafts []model.Draft, ledger *sendlog.Ledger) []*model.Draft {
	sent := make(map[string]bool, len(ledger.Entries))
	for _, e := range ledger.Entries {
		sent[strings.ToLower(e.ContactEmail)] = true
	}

	var queue []*model.Draft
	for i := range drafts {
		d := &drafts[i]
		if sent[strings.ToLower(d.ToEmail)] {
			zap.L().Debug("draft already sent, skipping", zap.String("to", d.ToEmail))
			continue
		}
		if sendCompany != "" && !strings.Contains(strings.ToLower(d.Company), strings.ToLower(sendCompany)) {
			continue
		}
		queue = append(queue, d)
	}
	return queue
}

func pickIdentity(idents []*dispatch.Identity, name string) []*dispatch.Identity {
	for _, ident := range idents {
		if strings.EqualFold(ident.Name, name) {
			return []*dispatch.Identity{ident}
		}
	}
	return nil
}

func printPlan(plan []dispatch.Assignment) {
	fmt.Printf("Planned sends (%d):\n", len(plan))
	for _, a := range plan {
		fmt.Printf("  %-30s %-25s <- %s\n", a.Draft.Company, a.Draft.ToEmail, a.Identity.Name)
	}
}

// removeSentDrafts deletes draft files whose address now appears in the
// ledger, so the outbound dir only holds work still to do.
func removeSentDrafts(plan []dispatch.Assignment, ledger *sendlog.Ledger) {
	sent := make(map[string]bool, len(ledger.Entries))
	for _, e := range ledger.Entries {
		sent[strings.ToLower(e.ContactEmail)] = true
	}
	for _, a := range plan {
		if a.Draft.File == "" || !sent[strings.ToLower(a.Draft.ToEmail)] {
			continue
		}
		if err := os.Remove(a.Draft.File); err != nil {
			zap.L().Warn("could not remove sent draft",
				zap.String("path", a.Draft.File), zap.Error(err))
		}
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func init() {
	sendCmd.Flags().BoolVar(&sendYes, "yes", false, "skip the confirmation prompt")
	sendCmd.Flags().BoolVar(&sendAll, "all", false, "ignore the daily cap and drain the queue")
	sendCmd.Flags().IntVar(&sendLimit, "limit", 0, "send at most N drafts")
	sendCmd.Flags().StringVar(&sendIdentity, "identity", "", "send only from the named identity")
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "log the plan without sending")
	sendCmd.Flags().StringVar(&sendAttachment, "attachment", "", "file to attach (default from config)")
	sendCmd.Flags().StringVar(&sendCompany, "company", "", "only send drafts whose company contains this substring")

	rootCmd.AddCommand(sendCmd)
}
