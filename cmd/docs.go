package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/clearledger/regintel/internal/model"
	"github.com/clearledger/regintel/internal/pipeline"
	"github.com/clearledger/regintel/internal/store"
)

var (
	docsSource   string
	docsLimit    int
	docsOffset   int
	docsPriority bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List stored regulatory documents",
	Long:  "Lists documents, optionally filtered by source. With --priority, shows only gate-passing documents ordered by relevance with their gap-analysis severity.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

		if docsPriority {
			priority, err := st.ListPriority(ctx, pipeline.RelevanceThreshold, pipeline.ConfidenceThreshold, docsLimit)
			if err != nil {
				return eris.Wrap(err, "list priority documents")
			}
			if len(priority) == 0 {
				fmt.Println("no gate-passing documents")
				return nil
			}
			fmt.Fprintln(w, "SOURCE\tDOCUMENT\tSCORE\tCONF\tSEVERITY\tTITLE")
			for _, pd := range priority {
				severity := "-"
				if pd.Analyzed() {
					severity = string(pd.Severity)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\t%s\n",
					pd.Document.Source, pd.Document.DocumentID,
					pd.Classification.RelevanceScore, pd.Classification.Confidence,
					severity, pd.Document.Title)
			}
			return w.Flush()
		}

		docs, err := st.ListDocuments(ctx, store.DocumentFilter{
			Source: model.Source(docsSource),
			Limit:  docsLimit,
			Offset: docsOffset,
		})
		if err != nil {
			return eris.Wrap(err, "list documents")
		}
		if len(docs) == 0 {
			fmt.Println("no documents")
			return nil
		}

		fmt.Fprintln(w, "SOURCE\tDOCUMENT\tPUBLISHED\tTITLE")
		for _, d := range docs {
			published := "unknown"
			if d.PublishedDate != nil {
				published = d.PublishedDate.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Source, d.DocumentID, published, d.Title)
		}
		return w.Flush()
	},
}

func init() {
	docsCmd.Flags().StringVar(&docsSource, "source", "", "filter by source")
	docsCmd.Flags().IntVar(&docsLimit, "limit", 50, "max documents to list")
	docsCmd.Flags().IntVar(&docsOffset, "offset", 0, "list offset for paging")
	docsCmd.Flags().BoolVar(&docsPriority, "priority", false, "show gate-passing documents ordered by relevance")
	rootCmd.AddCommand(docsCmd)
}
