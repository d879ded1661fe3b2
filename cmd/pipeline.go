package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/checkpoint"
	"github.com/bcc-consulting/outreach-cli/internal/pipeline"
)

var (
	pipelineInput        string
	pipelineMaxLeads     int
	pipelineMaxCompanies int
	pipelineMaxContacts  int
	pipelineTopN         int
	pipelineSkipResearch bool
	pipelineSkipNotify   bool
	pipelineResume       bool
	pipelineFromPhase    int
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run and inspect the lead pipeline",
}

var pipelineRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the seven-phase lead pipeline",
	Long:  "Ingests a lead export, researches company contacts, scores and ranks leads, writes reports, and generates outreach drafts. An interrupted run resumes from its checkpoint.",
	RunE: func(cmd *cobra.Command, args []string) error {
		checkpoints := newCheckpointStore()
		if !pipelineResume {
			if err := checkpoints.Clear(); err != nil {
				return err
			}
		}

		engine, closeStore, err := newResearchEngine(cmd.Context(), checkpoints)
		if err != nil {
			return err
		}
		defer closeStore()

		if pipelineMaxCompanies > 0 {
			engine.MaxCompanies = pipelineMaxCompanies
		}
		if pipelineMaxContacts > 0 {
			engine.MaxContacts = pipelineMaxContacts
		}

		p := &pipeline.Pipeline{
			Checkpoints: checkpoints,
			Normalizer:  newNormalizer(),
			Research:    engine,
			Notifier:    newNotifier(),
		}

		input := pipelineInput
		if input == "" {
			input = cfg.Pipeline.Input
		}
		maxLeads := pipelineMaxLeads
		if maxLeads == 0 {
			maxLeads = cfg.Pipeline.MaxLeads
		}
		topN := pipelineTopN
		if topN == 0 {
			topN = cfg.Pipeline.TopN
		}

		res, err := p.Run(cmd.Context(), pipeline.Options{
			Input:        input,
			StateDir:     cfg.State.Dir,
			DraftDir:     cfg.Outreach.DraftDir,
			LedgerPath:   cfg.Sender.LedgerPath,
			MaxLeads:     maxLeads,
			TopN:         topN,
			Suppression:  cfg.Outreach.SuppressionWindow(),
			SkipResearch: pipelineSkipResearch,
			SkipNotify:   pipelineSkipNotify,
			FromPhase:    pipelineFromPhase,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Pipeline complete: %d leads, %d companies researched, %d drafts\n",
			res.Leads, res.Companies, res.DraftCount)
		fmt.Printf("Report: %s\nTop leads: %s\n", res.ReportFile, res.TopFile)
		return nil
	},
}

var pipelineStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show checkpoint progress for the current run",
	RunE: func(cmd *cobra.Command, args []string) error {
		state := newCheckpointStore().Load()
		if state.RunToken == "" {
			fmt.Println("No run in progress.")
			return nil
		}

		fmt.Printf("Run %s, last updated %s\n", state.RunToken,
			state.LastUpdated.Format(time.RFC3339))
		for i, name := range checkpoint.PhaseNames {
			mark := " "
			if state.PhaseDone(i + 1) {
				mark = "x"
			}
			fmt.Printf("  [%s] %d. %s\n", mark, i+1, name)
		}
		if len(state.ResearchedCompanies) > 0 {
			fmt.Printf("Researched companies: %d\n", len(state.ResearchedCompanies))
		}
		return nil
	},
}

var pipelineClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the checkpoint so the next run starts fresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newCheckpointStore().Clear(); err != nil {
			return err
		}
		zap.L().Info("checkpoint cleared")
		fmt.Println("Checkpoint cleared.")
		return nil
	},
}

func init() {
	pipelineRunCmd.Flags().StringVar(&pipelineInput, "input", "", "lead export path or URL (default from config)")
	pipelineRunCmd.Flags().IntVar(&pipelineMaxLeads, "max-leads", 0, "max leads to process (default from config)")
	pipelineRunCmd.Flags().IntVar(&pipelineMaxCompanies, "max-companies", 0, "max companies to research (default from config)")
	pipelineRunCmd.Flags().IntVar(&pipelineMaxContacts, "max-contacts", 0, "max contacts kept per company (default from config)")
	pipelineRunCmd.Flags().IntVar(&pipelineTopN, "top", 0, "size of the top leads table (default from config)")
	pipelineRunCmd.Flags().BoolVar(&pipelineSkipResearch, "skip-research", false, "skip the contact research phase")
	pipelineRunCmd.Flags().BoolVar(&pipelineSkipNotify, "skip-notify", false, "skip Telegram notifications")
	pipelineRunCmd.Flags().BoolVar(&pipelineResume, "resume", true, "resume from the checkpoint if one exists")
	pipelineRunCmd.Flags().IntVar(&pipelineFromPhase, "from-phase", 0, "force re-execution starting at this phase")

	pipelineCmd.AddCommand(pipelineRunCmd, pipelineStatusCmd, pipelineClearCmd)
	rootCmd.AddCommand(pipelineCmd)
}
