package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"vocab-progress-service/internal/app"
	"vocab-progress-service/internal/config"
	"vocab-progress-service/internal/importer"
)

// NewImportWordsCmd loads vocabulary from an xlsx workbook into the configured store.
func NewImportWordsCmd(configPath *string) *cobra.Command {
	var sheet string
	var startRow int
	cmd := &cobra.Command{
		Use:   "import-words <file.xlsx>",
		Short: "Import words from a spreadsheet (columns: rank, source, target)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}

			icfg := importer.DefaultConfig(args[0])
			icfg.SheetName = sheet
			if startRow > 0 {
				icfg.StartRow = startRow
			}
			parsed, err := importer.ReadWords(icfg)
			if err != nil {
				return err
			}
			for _, e := range parsed.Errors {
				log.Printf("skipped %s", e)
			}

			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.close()

			result, err := app.NewVocabularyService(st.words, st.users).ImportWords(cmd.Context(), parsed.Words)
			for _, e := range result.Errors {
				log.Printf("rejected %s", e)
			}
			if err != nil {
				return err
			}
			log.Printf("imported %d of %d rows", result.Created, parsed.TotalProcessed)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (defaults to the first sheet)")
	cmd.Flags().IntVar(&startRow, "start-row", 0, "first data row, 1-based (defaults to 2)")
	return cmd
}
