package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lectern/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export <book-id>",
	Short: "Export a book's chapter audio files to the exports directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bookID := args[0]

		services, cleanup, err := buildServices(newLogger())
		if err != nil {
			return err
		}
		defer cleanup()

		chs, err := services.Store.GetChapters(ctx, bookID)
		if err != nil {
			return err
		}
		if len(chs) == 0 {
			return fmt.Errorf("book %s has no chapters", bookID)
		}

		exported := 0
		for _, ch := range chs {
			data, format, err := services.Store.GetChapterAudio(ctx, bookID, ch.ChapterIndex)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			path := services.Home.ChapterExportPath(bookID, ch.ChapterIndex, extForFormat(format))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			exported++
		}

		fmt.Printf("exported %d of %d chapters to %s\n",
			exported, len(chs), filepath.Join(services.Home.ExportsDir(), bookID))
		return nil
	},
}

func extForFormat(format string) string {
	switch format {
	case "audio/wav":
		return "wav"
	case "audio/ogg":
		return "ogg"
	default:
		return "mp3"
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
