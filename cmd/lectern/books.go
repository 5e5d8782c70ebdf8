package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lectern/internal/store"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List books in the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, cleanup, err := buildServices(newLogger())
		if err != nil {
			return err
		}
		defer cleanup()

		books, err := services.Store.ListBooks(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BOOK ID\tTITLE\tAUTHOR\tPAGES\tCHAPTERS\tCOMPLETED")
		for _, b := range books {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
				b.BookID, b.Title, b.Author, b.PageCount, b.ChapterCount, b.CompletedChapters)
		}
		return w.Flush()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <book-id>",
	Short: "Delete a book and all its chapters, pages, and logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, cleanup, err := buildServices(newLogger())
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		services.Tracker.RecordBestEffort(ctx, args[0], store.StageBookDeletion, store.LogInProgress,
			"deleting book and all associated records")

		deleted, err := services.Store.DeleteBook(ctx, args[0])
		if err != nil {
			services.Tracker.RecordBestEffort(ctx, args[0], store.StageBookDeletion, store.LogFailed, err.Error())
			return err
		}
		if deleted == 0 {
			services.Tracker.RecordBestEffort(ctx, args[0], store.StageBookDeletion, store.LogFailed, "book not found")
			fmt.Printf("no book with id %s\n", args[0])
			return nil
		}
		services.Tracker.RecordBestEffort(ctx, args[0], store.StageBookDeletion, store.LogCompleted, "book deleted")
		fmt.Printf("deleted book %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(booksCmd)
	rootCmd.AddCommand(deleteCmd)
}
