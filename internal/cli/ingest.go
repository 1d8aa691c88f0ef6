package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/app"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/config"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/documents"
)

func newIngestCmd(newLogger loggerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file-or-dir>...",
		Short: "Add .txt, .md and .docx files to the document store",
		Long: `Loads each file, splits it into overlapping chunks and indexes them for search.
Directories are walked recursively and unsupported files are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			docs, store, err := app.OpenDocuments(cfg, newLogger(cmd, cfg))
			if err != nil {
				return err
			}
			defer store.Close()

			var ingested []documents.Ingested
			for _, path := range args {
				got, err := ingestPath(cmd, docs, path)
				if err != nil {
					return err
				}
				ingested = append(ingested, got...)
			}

			chunks := 0
			for _, in := range ingested {
				cmd.Printf("  %s: %d chunks\n", in.Name, in.Chunks)
				chunks += in.Chunks
			}
			cmd.Printf("Ingested %d documents (%d chunks) into %s\n", len(ingested), chunks, cfg.DocumentsDB)
			return nil
		},
	}
}

func ingestPath(cmd *cobra.Command, docs *documents.Service, path string) ([]documents.Ingested, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return docs.IngestDir(cmd.Context(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	in, err := docs.Ingest(cmd.Context(), filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", path, err)
	}
	return []documents.Ingested{in}, nil
}
