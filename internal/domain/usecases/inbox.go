package usecases

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/logger"
)

// Inbox keeps the document library in sync with a directory.
type Inbox struct {
	watcher    ports.FileWatcher
	ingestor   *Ingestor
	library    ports.DocumentLibrary
	extensions []string
}

// NewInbox creates an Inbox accepting files with the given extensions.
func NewInbox(watcher ports.FileWatcher, ingestor *Ingestor, library ports.DocumentLibrary, extensions []string) *Inbox {
	return &Inbox{
		watcher:    watcher,
		ingestor:   ingestor,
		library:    library,
		extensions: extensions,
	}
}

// Run ingests the files already in dir, then follows changes until ctx is done.
func (in *Inbox) Run(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := in.Scan(ctx, dir); err != nil {
		return err
	}

	events, err := in.watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}
	logger.Info(ctx, "watching inbox", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			in.Handle(ctx, ev)
		}
	}
}

// Scan ingests every accepted file in dir.
func (in *Inbox) Scan(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !in.accepts(e.Name()) {
			continue
		}
		in.add(ctx, filepath.Join(dir, e.Name()))
	}
	return nil
}

// Handle applies one file event to the library.
func (in *Inbox) Handle(ctx context.Context, ev ports.FileEvent) {
	switch ev.Operation {
	case ports.FileCreated, ports.FileModified:
		in.add(ctx, ev.Path)
	case ports.FileDeleted:
		if err := in.library.RemoveByPath(ctx, ev.Path); err != nil {
			logger.Error(ctx, "removing inbox document failed", err, "path", ev.Path)
			return
		}
		logger.Info(ctx, "inbox document removed", "path", ev.Path)
	}
}

func (in *Inbox) add(ctx context.Context, path string) {
	doc, err := in.ingestor.IngestFile(ctx, path)
	if err != nil {
		logger.Error(ctx, "inbox ingestion failed", err, "path", path)
		return
	}
	if err := in.library.Put(ctx, *doc); err != nil {
		logger.Error(ctx, "storing inbox document failed", err, "path", path)
		return
	}
	logger.Info(ctx, "inbox document added", "document", doc.Name, "chars", len(doc.Content))
}

func (in *Inbox) accepts(name string) bool {
	return slices.Contains(in.extensions, strings.ToLower(filepath.Ext(name)))
}
