package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bcc-consulting/outreach-cli/internal/export"
	"github.com/bcc-consulting/outreach-cli/internal/model"
	"github.com/bcc-consulting/outreach-cli/internal/score"
	"github.com/bcc-consulting/outreach-cli/pkg/notion"
)

var exportTop int

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export pipeline results to external systems",
}

var exportNotionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Upsert ranked leads into the Notion lead database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Notion.Token == "" || cfg.Notion.LeadDB == "" {
			return fmt.Errorf("notion token and lead_db must be configured")
		}

		state := newCheckpointStore().Load()
		if state.LeadsFile == "" {
			return fmt.Errorf("no pipeline run found, run the pipeline first")
		}
		leads, err := loadLeads(state.LeadsFile)
		if err != nil {
			return err
		}

		ranked := score.Rank(leads, state.Research)
		if exportTop > 0 {
			ranked = score.TopN(ranked, exportTop)
		}

		exporter := &export.Exporter{
			Client: notion.NewClient(cfg.Notion.Token),
			DBID:   cfg.Notion.LeadDB,
		}
		res, err := exporter.Export(cmd.Context(), ranked, state.Research)
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d leads to Notion (%d created, %d updated)\n",
			res.Created+res.Updated, res.Created, res.Updated)
		return nil
	},
}

func loadLeads(path string) ([]model.Lead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: read leads file %s", path)
	}
	var leads []model.Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, eris.Wrapf(err, "export: parse leads file %s", path)
	}
	return leads, nil
}

func init() {
	exportNotionCmd.Flags().IntVar(&exportTop, "top", 0, "export only the N highest scored leads")

	exportCmd.AddCommand(exportNotionCmd)
	rootCmd.AddCommand(exportCmd)
}
