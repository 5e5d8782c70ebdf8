package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/lectern/internal/store"
)

var processCmd = &cobra.Command{
	Use:   "process <book.pdf>",
	Short: "Process a PDF book into a narrated audiobook",
	Long: `Process a PDF book end to end: extract pages, detect chapters,
summarize each chapter, and generate narration audio.

The book is stored in the local library; progress and results are
available via 'lectern books' and the HTTP API.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		services, cleanup, err := buildServices(logger)
		if err != nil {
			return err
		}
		defer cleanup()

		book := &store.Book{
			BookID: uuid.NewString(),
			Title:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		}
		if err := services.Store.CreateBook(ctx, book); err != nil {
			return fmt.Errorf("create book: %w", err)
		}
		services.Tracker.RecordBestEffort(ctx, book.BookID, store.StageBookCreation, store.LogCompleted,
			"book record created for "+path)

		logger.Info("processing book", "book_id", book.BookID, "path", path)
		if err := services.Pipelines.Run(ctx, book.BookID, path); err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}

		summary, err := services.Tracker.ProcessingSummary(ctx, book.BookID)
		if err != nil {
			return err
		}
		fmt.Printf("book %s: %d chapters, %d completed (%s)\n",
			book.BookID, summary.Total, summary.Completed, summary.Overall)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
}
