package documents

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

const DefaultTopK = 3

// Store is the persistence used by Service.
type Store interface {
	Save(ctx context.Context, doc Document, chunks []Chunk) error
	Search(ctx context.Context, query string, limit int) ([]string, error)
	List(ctx context.Context) ([]DocumentSummary, error)
}

type Service struct {
	store   Store
	chunker Chunker
	topK    int
	logger  *slog.Logger
}

func NewService(store Store, chunker Chunker, topK int, logger *slog.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, chunker: chunker, topK: topK, logger: logger}
}

// Ingested reports the outcome of one ingest.
type Ingested struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Chunks     int    `json:"chunks"`
}

// Ingest loads, chunks and stores one file.
func (s *Service) Ingest(ctx context.Context, name string, data []byte) (Ingested, error) {
	doc, err := Load(name, data)
	if err != nil {
		return Ingested{}, err
	}

	chunks := s.chunker.Split(doc)
	if err := s.store.Save(ctx, doc, chunks); err != nil {
		return Ingested{}, fmt.Errorf("save document %s: %w", doc.Name, err)
	}

	s.logger.Info("document ingested", "document_id", doc.ID, "name", doc.Name, "chunks", len(chunks))
	return Ingested{DocumentID: doc.ID, Name: doc.Name, Chunks: len(chunks)}, nil
}

// IngestDir ingests every supported file under dir. Unsupported files are
// skipped and reported in the log; other failures stop the walk.
func (s *Service) IngestDir(ctx context.Context, dir string) ([]Ingested, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !Supported(path) {
			s.logger.Warn("skipping unsupported document", "path", path)
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	var out []Ingested
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return out, fmt.Errorf("read %s: %w", path, err)
		}

		res, err := s.Ingest(ctx, path, data)
		if errors.Is(err, ErrEmptyDocument) {
			s.logger.Warn("skipping empty document", "path", path)
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Search returns the top-k passages for query, best first.
func (s *Service) Search(ctx context.Context, query string) ([]string, error) {
	passages, err := s.store.Search(ctx, query, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	return passages, nil
}

func (s *Service) List(ctx context.Context) ([]DocumentSummary, error) {
	return s.store.List(ctx)
}
