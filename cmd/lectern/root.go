package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/lectern/version"
)

var (
	cfgFile string
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Turn PDF books into narrated audiobooks",
	Long: `Lectern converts PDF books into narrated audiobooks.

The pipeline includes:
  - Page text extraction with running header/footer removal
  - AI metadata inference and chapter boundary detection
  - Narration-ready chapter summaries
  - Text-to-speech audio generation per chapter`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ~/.lectern/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "lectern home directory (default: ~/.lectern)",
	)

	rootCmd.AddCommand(versionCmd)
}
