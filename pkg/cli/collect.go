package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dograga/compliance-checks/internal/app"
	"github.com/dograga/compliance-checks/internal/service/collector"
)

func newCollectCmd() *cobra.Command {
	var (
		envFile     string
		folderID    string
		orgID       string
		skipVMs     bool
		skipBuckets bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run a one-shot compliance data collection",
		Long:  "Discovers projects under a folder or organization, collects IAM policy records, and stores them.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadEnvironment(envFile)
			if err != nil {
				return err
			}
			// A cron schedule belongs to the server, not to one-shot runs.
			cfg.CollectCron = ""

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Services.Collector.Collect(ctx, collector.CollectRequest{
				FolderID:       folderID,
				OrgID:          orgID,
				IncludeVMs:     !skipVMs,
				IncludeBuckets: !skipBuckets,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "path to an optional dotenv file")
	cmd.Flags().StringVar(&folderID, "folder", "", "numeric folder ID to collect under")
	cmd.Flags().StringVar(&orgID, "org", "", "numeric organization ID to collect under")
	cmd.Flags().BoolVar(&skipVMs, "skip-vms", false, "skip compute instance IAM policies")
	cmd.Flags().BoolVar(&skipBuckets, "skip-buckets", false, "skip storage bucket IAM policies")

	return cmd
}
