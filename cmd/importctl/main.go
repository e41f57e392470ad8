package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/client"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/config"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/logger"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/mapping"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/sheet"
)

var (
	serverURL string
	logLevel  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "importctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "importctl",
		Short:        "Pharmacy catalog import CLI",
		Long:         `importctl talks to the item import API: inspect the expected fields, preview column suggestions for a spreadsheet, submit an import and follow its progress, or write an empty import template.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logLevel, "console")
		},
	}
	cmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Base URL of the import API")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.AddCommand(
		newFieldsCmd(),
		newSuggestCmd(),
		newSubmitCmd(),
		newStatusCmd(),
		newTemplateCmd(),
	)
	return cmd
}

func newClient() *client.Client {
	return client.New(config.ClientConfig{
		BaseURL: serverURL,
		Timeout: 60 * time.Second,
	})
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the fields an import can target",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := newClient().FetchFields(cmd.Context())
			for _, field := range fields {
				required := ""
				if field.Required {
					required = " (required)"
				}
				fmt.Printf("%-26s %s%s\n", field.ID, field.Label, required)
			}
			return nil
		},
	}
}

func newSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <spreadsheet.xlsx>",
		Short: "Preview the suggested column mapping for a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawSheet, err := decodeFile(args[0])
			if err != nil {
				return err
			}

			fields := newClient().FetchFields(cmd.Context())
			selections := mapping.DefaultSelections(rawSheet.Headers, fields)
			for _, sel := range selections {
				header := sel.Header
				if header == "" {
					header = "(not mapped)"
				}
				fmt.Printf("%-26s <- %s\n", sel.FieldID, header)
			}
			fmt.Printf("\n%d data rows\n", len(rawSheet.Rows))
			return nil
		},
	}
	return cmd
}

func newSubmitCmd() *cobra.Command {
	var (
		companyID string
		branchID  string
		userID    string
		mapPairs  []string
		auto      bool
		wait      bool
	)
	cmd := &cobra.Command{
		Use:   "submit <spreadsheet.xlsx>",
		Short: "Submit an import and follow it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			rawSheet, err := decodeFile(path)
			if err != nil {
				return err
			}

			colMapping, err := buildMapping(cmd.Context(), rawSheet, mapPairs, auto)
			if err != nil {
				return err
			}

			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			result, err := newClient().Import(cmd.Context(), client.ImportRequest{
				FileName:    filepath.Base(path),
				File:        file,
				CompanyID:   companyID,
				BranchID:    branchID,
				UserID:      userID,
				Mapping:     colMapping,
				Synchronous: wait,
			}, printProgress)
			if err != nil {
				return err
			}

			if result.Message != "" {
				fmt.Println(result.Message)
			}
			fmt.Println(client.Summarize(result.Stats, result.TotalRows))
			client.LogRowErrors(logger.Get(), result.Stats)
			return nil
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "Company identifier")
	cmd.Flags().StringVar(&branchID, "branch", "", "Branch identifier")
	cmd.Flags().StringVar(&userID, "user", "", "User identifier")
	cmd.Flags().StringArrayVarP(&mapPairs, "map", "m", nil, `Column mapping entry, e.g. -m "Item name*=item_name"`)
	cmd.Flags().BoolVar(&auto, "auto", false, "Fill unmapped columns from the suggestion engine")
	cmd.Flags().BoolVar(&wait, "wait", false, "Run the import synchronously instead of polling a job")
	cmd.MarkFlagRequired("company")
	cmd.MarkFlagRequired("branch")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show one import job's progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newClient().JobStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("job:      %s\n", status.JobID)
			fmt.Printf("status:   %s\n", status.Status)
			fmt.Printf("progress: %d/%d rows (%.0f%%)\n", status.ProcessedRows, status.TotalRows, status.ProgressPercent)
			fmt.Printf("scope:    %s\n", status.DatabaseScope)
			if status.ErrorMessage != "" {
				fmt.Printf("error:    %s\n", status.ErrorMessage)
			}
			if status.Stats != nil {
				fmt.Println(client.Summarize(status.Stats, status.TotalRows))
			}
			return nil
		},
	}
}

func newTemplateCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty import template spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Create(output)
			if err != nil {
				return err
			}
			defer file.Close()

			if err := sheet.WriteTemplate(file, mapping.DefaultFields()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "item-import-template.xlsx", "Output file path")
	return cmd
}

func decodeFile(path string) (*model.RawSheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return sheet.NewDecoder().Decode(data)
}

func buildMapping(ctx context.Context, rawSheet *model.RawSheet, mapPairs []string, auto bool) (model.ColumnMapping, error) {
	selections := make([]mapping.Selection, 0, len(mapPairs))
	for _, pair := range mapPairs {
		header, fieldID, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid --map entry %q, expected \"Header=field_id\"", pair)
		}
		selections = append(selections, mapping.Selection{Header: header, FieldID: fieldID})
	}

	colMapping := mapping.FromSelections(selections)

	if auto {
		fields := newClient().FetchFields(ctx)
		for _, sel := range mapping.DefaultSelections(rawSheet.Headers, fields) {
			if sel.Header == "" {
				continue
			}
			if _, taken := colMapping[sel.Header]; taken {
				continue
			}
			if colMapping.HasField(sel.FieldID) {
				continue
			}
			colMapping[sel.Header] = sel.FieldID
		}
	}

	return colMapping, nil
}

func printProgress(update client.Update) {
	fmt.Printf("\r%-10s %d/%d rows (%.0f%%) elapsed %s",
		update.Status, update.ProcessedRows, update.TotalRows, update.Percent,
		update.Elapsed.Round(time.Second))
	if update.Status.Terminal() {
		fmt.Println()
	}
}
