package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/tellsim/internal/engine"
	"github.com/talgya/tellsim/internal/notes"
	"github.com/talgya/tellsim/internal/persistence"
)

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	runID := runIDFlag
	if runID == "" {
		if runID, err = db.GetMeta("last_run"); err != nil {
			return fmt.Errorf("no stored run in %s: %w", cfg.Database, err)
		}
	}
	turns, err := db.Turns(runID)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("run %s has no turns", runID)
	}
	last := turns[len(turns)-1]
	setts, err := db.Settlements(runID, last.Turn)
	if err != nil {
		return err
	}
	recent, err := db.RecentNotes(runID, notesFlag)
	if err != nil {
		return err
	}
	writeReport(os.Stdout, runID, turns, setts, recent)
	return nil
}

// writeReport prints the timeline, the last turn's settlements and the
// most recent notes.
func writeReport(out io.Writer, runID string, turns []persistence.TurnRow, setts []persistence.SettlementRow, recent []notes.Note) {
	fmt.Fprintf(out, "Run %s, %d turns\n\n", runID, len(turns))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "turn\tyear\tpopulation\tbirths\tdeaths\tmoves\tfounded\tabandoned\tsplits\tmerges\t")
	for _, t := range turns {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			t.Turn, engine.FormatYear(t.Year), humanize.Comma(int64(t.Population)),
			t.Births, t.Deaths, t.Migrations, t.Foundings, t.Abandonments, t.Splits, t.Merges)
	}
	tw.Flush()

	if len(turns) > 1 {
		first, last := turns[0], turns[len(turns)-1]
		fmt.Fprintf(out, "\nPopulation %s -> %s over %s years\n",
			humanize.Comma(int64(first.Population)), humanize.Comma(int64(last.Population)),
			humanize.Comma(int64(last.Year-first.Year)))
	}

	fmt.Fprintln(out, "\nSettlements")
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "name\tcluster\tpeople\tclans\ttell\trites\tpolicy\tstatus")
	for _, s := range setts {
		status := "occupied"
		if s.Abandoned {
			status = "abandoned"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%.1f m\t%.2f\t%s\t%s\n",
			s.Name, s.ClusterID, humanize.Comma(int64(s.Population)), s.Clans,
			s.TellHeight, s.RitesQuality, s.RitesPolicy, status)
	}
	tw.Flush()

	if len(recent) > 0 {
		fmt.Fprintln(out, "\nRecent notes")
		for _, n := range recent {
			fmt.Fprintf(out, "  [%s] %s: %s\n", humanize.Ordinal(n.Turn)+" turn", n.Label, n.Message)
		}
	}
}
