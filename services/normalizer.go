package services

import (
	"context"
	"errors"
	"fmt"

	"ebay-normalizer/config"
	"ebay-normalizer/reader/ebay"
	"ebay-normalizer/storage"
	"ebay-normalizer/utils"
)

// ErrDocumentsFailed is returned when documents were skipped because they
// could not be parsed.
var ErrDocumentsFailed = errors.New("documents failed")

// Normalizer drives one run: it resets the outputs, then reads, extracts
// and appends every JSON document in the order given.
type Normalizer struct {
	cfg       *config.Config
	logger    *utils.Logger
	reader    *ebay.Reader
	extractor *Extractor
	writer    storage.BatchWriter
	summary   *SummaryService
}

// NewNormalizer wires a run from its parts.
func NewNormalizer(cfg *config.Config, logger *utils.Logger, extractor *Extractor, writer storage.BatchWriter, summary *SummaryService) *Normalizer {
	return &Normalizer{
		cfg:       cfg,
		logger:    logger,
		reader:    ebay.New(cfg, logger),
		extractor: extractor,
		writer:    writer,
		summary:   summary,
	}
}

// Run processes paths. Paths that are not JSON documents are skipped. The
// first malformed document aborts the run unless ContinueOnError is set,
// in which case it is reported and the run goes on.
func (n *Normalizer) Run(ctx context.Context, paths []string) error {
	if err := n.writer.Reset(); err != nil {
		return fmt.Errorf("normalizer: reset outputs: %w", err)
	}

	docs := make([]string, 0, len(paths))
	for _, p := range paths {
		if !ebay.IsJSON(p) {
			n.summary.Skipped(p)
			continue
		}
		docs = append(docs, p)
	}

	var failures []error
	err := n.reader.Each(ctx, docs, func(res ebay.Result) error {
		if err := n.process(ctx, res); err != nil {
			n.summary.Failed(res.Path)
			if n.cfg.ContinueOnError && isInputMalformed(err) {
				n.logger.Error("[normalizer] Skipping %s: %v", res.Path, err)
				failures = append(failures, err)
				return nil
			}
			return err
		}
		n.logger.Info("Success parsing %s", res.Path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("normalizer: %w", err)
	}

	if len(failures) > 0 {
		return fmt.Errorf("normalizer: %d of %d %w: %w",
			len(failures), len(docs), ErrDocumentsFailed, errors.Join(failures...))
	}
	return nil
}

func (n *Normalizer) process(ctx context.Context, res ebay.Result) error {
	if res.Err != nil {
		return res.Err
	}

	batch, stats, err := n.extractor.Extract(ctx, res.Listings)
	if err != nil {
		return fmt.Errorf("%s: %w", res.Path, err)
	}

	if err := n.writer.Append(batch); err != nil {
		return err
	}
	n.summary.Observe(batch, stats)
	return nil
}

// isInputMalformed reports whether err describes a bad source document, as
// opposed to a failing ledger backend or output file.
func isInputMalformed(err error) bool {
	var perr *ebay.ParseError
	return errors.As(err, &perr) ||
		errors.Is(err, ErrMalformedTimestamp) ||
		errors.Is(err, ErrIncompleteListing)
}
