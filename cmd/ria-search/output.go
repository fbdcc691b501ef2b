package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ria-hunter/internal/models"
	"ria-hunter/pkg/registry"
)

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("format")
	return format
}

func writeOutput(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResponse prints a search response. A response carrying an error is
// printed and then returned as the command error.
func writeResponse(cmd *cobra.Command, resp *models.SearchResponse) error {
	if outputFormat(cmd) != "text" {
		if err := writeOutput(cmd, resp); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tCRD\tNAME\tCITY\tSTATE\tAUM\tFUNDS\tSIMILARITY")
		for i, c := range resp.Results {
			sim := "-"
			if c.Similarity != nil {
				sim = fmt.Sprintf("%.3f", *c.Similarity)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.0f\t%d\t%s\n",
				i+1, c.ID, c.Name, c.City, c.State, c.Aum, c.PrivateFundCount, sim)
		}
		w.Flush()

		m := resp.Metadata
		fmt.Fprintf(cmd.OutOrStdout(), "\nstrategy=%s queryType=%s confidence=%.2f durationMs=%d",
			m.SearchStrategy, m.QueryType, m.Confidence, m.DurationMs)
		if m.FallbackReason != "" {
			fmt.Fprintf(cmd.OutOrStdout(), " fallbackReason=%s", m.FallbackReason)
		}
		if len(m.Degraded) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), " degraded=%v", m.Degraded)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}

	if resp.Error != nil {
		return fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
	}
	return nil
}

func writeActivities(cmd *cobra.Command, activities []registry.Activity) error {
	if outputFormat(cmd) != "text" {
		return writeOutput(cmd, activities)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK TYPE\tSTATUS\tTIMEOUT\tRETRIES")
	for _, a := range activities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", a.ID, a.TaskType, a.ImplementationStatus, a.Timeout, a.Retries)
	}
	return w.Flush()
}
