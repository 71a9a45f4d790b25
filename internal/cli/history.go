package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scornlab/scorn/internal/config"
	"github.com/scornlab/scorn/internal/store"
)

var (
	flagHistoryLimit int
	flagHistoryJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		path := cfg.History.Path
		if path == "" {
			path, err = store.DefaultPath()
			if err != nil {
				return err
			}
		}
		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer st.Close()

		scans, err := st.ListScans(context.Background(), flagHistoryLimit)
		if err != nil {
			return fmt.Errorf("listing scans: %w", err)
		}
		if len(scans) == 0 {
			fmt.Fprintln(os.Stdout, "No scans recorded.")
			return nil
		}

		if flagHistoryJSON {
			data, err := json.MarshalIndent(scans, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tSOURCE\tLANG\tSCORE\tDEGRADED\tID")
		for _, s := range scans {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%v\t%s\n",
				s.CreatedAt.Format("2006-01-02 15:04"), s.Source, s.Language, s.Score, s.Degraded, s.ID)
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Show the findings of one recorded scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		path := cfg.History.Path
		if path == "" {
			path, err = store.DefaultPath()
			if err != nil {
				return err
			}
		}
		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer st.Close()

		findings, err := st.Findings(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("loading findings: %w", err)
		}
		data, err := json.MarshalIndent(findings, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Number of scans to list")
	historyCmd.Flags().BoolVar(&flagHistoryJSON, "json", false, "Output as JSON")
}
