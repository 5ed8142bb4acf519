package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/femcore/analysis"
	"github.com/sarchlab/femcore/fem"
	"github.com/sarchlab/femcore/tagrecording"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a tag recording.",
	Long: "`report --sqlite [file]` replays the recorded registry events " +
		"and prints the sessions, the per-kind churn, and the final tag " +
		"layout.",
	Run: func(cmd *cobra.Command, _ []string) {
		file := sqliteFileArg(cmd)
		if file == "" {
			log.Fatal("Error: a recording file is required, " +
				"use --sqlite or FEMCORE_SQLITE")
		}

		reader := openRecording(file)
		defer closeRecording(reader)

		printSessions(reader)
		printChurn(reader)
		printLayout(reader)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("sqlite", "", "Recording file to read from")
}

func openRecording(file string) tagrecording.DataReader {
	reader := tagrecording.NewDataReader(file)

	reader.MapTable("tag_events", tagrecording.TagEvent{})
	reader.MapTable("tag_sessions", tagrecording.SessionEntry{})
	reader.MapTable("tag_churn", analysis.KindChurn{})

	return reader
}

func closeRecording(reader tagrecording.DataReader) {
	err := reader.Close()
	if err != nil {
		log.Panic(err)
	}
}

func printSessions(reader tagrecording.DataReader) {
	rows, _, err := reader.Query(context.Background(), "tag_sessions",
		tagrecording.QueryParams{OrderBy: "StartWall ASC"})
	if err != nil {
		log.Panic(err)
	}

	for _, row := range rows {
		entry := row.(*tagrecording.SessionEntry)
		fmt.Printf("Session %s, %.3f seconds\n",
			entry.SessionID, entry.EndWall-entry.StartWall)
	}
}

func printChurn(reader tagrecording.DataReader) {
	rows, _, err := reader.Query(context.Background(), "tag_churn",
		tagrecording.QueryParams{})
	if err != nil {
		// The churn table is only written when the session terminates.
		fmt.Println("No churn summary recorded.")

		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w,
		"KIND\tREGISTERED\tREMOVED\tRETAGGED\tREBASED\tRESETS\tLIVE")

	for _, row := range rows {
		churn := row.(*analysis.KindChurn)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			churn.Kind, churn.Registered, churn.Removed, churn.Retagged,
			churn.Rebased, churn.Resets, churn.Live)
	}

	err = w.Flush()
	if err != nil {
		log.Panic(err)
	}
}

// kindLayout accumulates the replayed state of one kind.
type kindLayout struct {
	startTag int
	tags     map[string]int
}

func printLayout(reader tagrecording.DataReader) {
	rows, _, err := reader.Query(context.Background(), "tag_events",
		tagrecording.QueryParams{OrderBy: "Seq ASC"})
	if err != nil {
		log.Panic(err)
	}

	layouts := make(map[string]*kindLayout)
	for _, row := range rows {
		replayEvent(layouts, row.(*tagrecording.TagEvent))
	}

	for _, kind := range fem.AllKinds() {
		layout, ok := layouts[string(kind)]
		if !ok {
			continue
		}

		if len(layout.tags) == 0 {
			fmt.Printf("%s: no live entities, next tag %d\n",
				kind, layout.startTag)

			continue
		}

		// Tags are dense, so the live range follows from the count.
		fmt.Printf("%s: %d live entities, tags %d-%d\n",
			kind, len(layout.tags),
			layout.startTag, layout.startTag+len(layout.tags)-1)
	}
}

func replayEvent(layouts map[string]*kindLayout, event *tagrecording.TagEvent) {
	layout, ok := layouts[event.Kind]
	if !ok {
		layout = &kindLayout{startTag: 1, tags: make(map[string]int)}
		layouts[event.Kind] = layout
	}

	switch event.Op {
	case tagrecording.OpRegister, tagrecording.OpRetag:
		layout.tags[event.EntityID] = event.Tag
	case tagrecording.OpRemove:
		delete(layout.tags, event.EntityID)
	case tagrecording.OpRebase:
		layout.startTag = event.Tag
	case tagrecording.OpReset:
		layout.startTag = 1
		layout.tags = make(map[string]int)
	}
}
