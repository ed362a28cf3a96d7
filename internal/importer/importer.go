// Package importer creates cards from Q:/A: markdown files found in a local
// directory, a single file or a git repository.
package importer

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/knol"
	"github.com/conorfennell/flashdeck/internal/parser"
	"github.com/conorfennell/flashdeck/internal/vcs"
)

// Deck is the part of the card repository the importer needs.
type Deck interface {
	List() ([]domain.Card, error)
	CreateMany(inputs []domain.CardInput) ([]string, error)
}

// Importer walks card sources and appends the cards the deck lacks.
type Importer struct {
	deck       Deck
	sourcesDir string
	progress   io.Writer
	logger     *slog.Logger
}

// Report summarizes one import run.
type Report struct {
	Parsed  int
	Created []string
	Skipped int
	Errors  []error
}

// New returns an importer that checks out git sources under sourcesDir.
func New(deck Deck, sourcesDir string, progress io.Writer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{deck: deck, sourcesDir: sourcesDir, progress: progress, logger: logger}
}

// Run imports every card found in source. Git URLs are cloned or pulled
// first. Cards whose normalized front and back already exist in the deck,
// or appear twice in the source, are skipped. reverse is applied to every
// created card.
func (im *Importer) Run(source string, reverse bool) (*Report, error) {
	root := source
	if vcs.IsRemote(source) {
		localPath, err := vcs.LocalPath(im.sourcesDir, source)
		if err != nil {
			return nil, err
		}
		if err := vcs.Fetch(source, localPath, im.progress); err != nil {
			return nil, err
		}
		root = localPath
	}

	existing, err := im.deck.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list deck: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[knol.Hash(c.Front, c.Back)] = true
	}

	report := &Report{}
	var inputs []domain.CardInput

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		for _, card := range fileCards {
			report.Parsed++
			hash := knol.Hash(card.Front, card.Back)
			if seen[hash] {
				im.logger.Debug("card already in deck, skipping", "path", path, "hash", hash)
				report.Skipped++
				continue
			}
			seen[hash] = true
			if reverse {
				seen[knol.Hash(card.Back, card.Front)] = true
			}
			card.Reverse = reverse
			inputs = append(inputs, card)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error walking %s: %w", root, walkErr)
	}

	if len(inputs) > 0 {
		ids, err := im.deck.CreateMany(inputs)
		if err != nil {
			return nil, err
		}
		report.Created = ids
	}

	im.logger.Info("import complete",
		"source", source,
		"parsed_cards", report.Parsed,
		"created", len(report.Created),
		"skipped", report.Skipped,
		"errors", len(report.Errors),
	)
	return report, nil
}
