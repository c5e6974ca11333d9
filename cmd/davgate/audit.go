package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/davgate/audit"
	"github.com/sagarc03/davgate/config"
	"github.com/sagarc03/davgate/database"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the denied-request audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List denied requests, newest first",
	Long: `List denied requests recorded in the configured audit database,
newest first. The database is read even when audit.enabled is false, so an
old trail stays inspectable.

Examples:
  davgate audit list
  davgate audit list --since 24h --limit 20
  davgate audit list --json`,
	Args: cobra.NoArgs,
	RunE: runAuditList,
}

func init() {
	auditListCmd.Flags().Duration("since", 0, "only show records newer than this, e.g. 24h (default: all)")
	auditListCmd.Flags().IntP("limit", "n", 100, "maximum number of records")
	auditListCmd.Flags().Bool("json", false, "print records as JSON")

	auditCmd.AddCommand(auditListCmd)
	rootCmd.AddCommand(auditCmd)
}

func runAuditList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	since, _ := cmd.Flags().GetDuration("since")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	if limit < 1 {
		return fmt.Errorf("invalid --limit %d: must be at least 1", limit)
	}

	store, closeDB, err := database.Connect(cmd.Context(), cfg.Audit.Database)
	if err != nil {
		return fmt.Errorf("connect audit database: %w", err)
	}
	defer closeDB()

	q := audit.ListQuery{Limit: limit}
	if since > 0 {
		q.Since = time.Now().Add(-since)
	}

	records, err := store.List(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("list audit records: %w", err)
	}

	if asJSON {
		return writeRecordsJSON(cmd.OutOrStdout(), records)
	}
	writeRecords(cmd.OutOrStdout(), records)
	return nil
}

func writeRecordsJSON(w io.Writer, records []audit.Record) error {
	if records == nil {
		records = []audit.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeRecords(w io.Writer, records []audit.Record) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "No denied requests recorded.")
		return
	}

	for i := range records {
		r := &records[i]
		_, _ = fmt.Fprintf(w, "%s  %-15s  %-9s  %-8s  %s\n",
			r.Time.UTC().Format(time.RFC3339), r.ClientAddress, r.Method, r.Reason, r.Path)
	}
}
