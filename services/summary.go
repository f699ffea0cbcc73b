package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"ebay-normalizer/models"
	"ebay-normalizer/utils"
)

const topCategories = 5

// SummaryService accumulates figures over the batches of one run.
type SummaryService struct {
	logger        *utils.Logger
	report        *models.RunReport
	categoryItems map[string]int
}

// NewSummaryService starts an empty report for the run.
func NewSummaryService(logger *utils.Logger, runID string) *SummaryService {
	return &SummaryService{
		logger: logger,
		report: &models.RunReport{
			RunID: runID,
			Rows:  make(map[models.Relation]int),
		},
		categoryItems: make(map[string]int),
	}
}

// Skipped records a path that was not a JSON document.
func (s *SummaryService) Skipped(path string) {
	s.logger.Debug("[summary] Skipped %s", path)
	s.report.DocumentsSkipped++
}

// Failed records a document that could not be processed.
func (s *SummaryService) Failed(path string) {
	s.report.FailedDocuments = append(s.report.FailedDocuments, path)
}

// Observe folds one document's batch into the report.
func (s *SummaryService) Observe(batch *models.Batch, stats models.ExtractStats) {
	r := s.report
	r.DocumentsParsed++
	r.Stats.Merge(stats)

	for _, rel := range models.Relations {
		r.Rows[rel] += batch.Len(rel)
	}

	for _, line := range batch.Lines(models.RelationItemCategory) {
		fields, err := SplitLine(line)
		if err != nil || len(fields) != 2 {
			s.logger.Warn("[summary] Unreadable item/category line %q", line)
			continue
		}
		s.categoryItems[fields[1]]++
	}

	for _, line := range batch.Lines(models.RelationBid) {
		fields, err := SplitLine(line)
		if err != nil || len(fields) != 4 {
			s.logger.Warn("[summary] Unreadable bid line %q", line)
			continue
		}
		amount, err := decimal.NewFromString(fields[3])
		if err != nil {
			r.UnpricedBids++
			continue
		}
		r.BidVolume = r.BidVolume.Add(amount)
		if r.HighestBid == nil || amount.GreaterThan(r.HighestBid.Amount) {
			r.HighestBid = &models.BidSummary{
				ItemID:   fields[0],
				BidderID: fields[1],
				Time:     fields[2],
				Amount:   amount,
			}
		}
	}
}

// Report returns the figures gathered so far.
func (s *SummaryService) Report() *models.RunReport {
	counts := make([]models.CategoryCount, 0, len(s.categoryItems))
	for label, n := range s.categoryItems {
		counts = append(counts, models.CategoryCount{Label: label, Items: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Items != counts[j].Items {
			return counts[i].Items > counts[j].Items
		}
		return counts[i].Label < counts[j].Label
	})
	if len(counts) > topCategories {
		counts = counts[:topCategories]
	}
	s.report.TopCategories = counts
	return s.report
}

// Print writes a human-readable rendition of r to w.
func (s *SummaryService) Print(w io.Writer, r *models.RunReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  EBAY NORMALIZER RUN %s\033[0m\n", r.RunID)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Documents\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Parsed   : \033[1m%d\033[0m\n", r.DocumentsParsed)
	fmt.Fprintf(w, "  Skipped  : \033[1m%d\033[0m\n", r.DocumentsSkipped)
	fmt.Fprintf(w, "  Failed   : \033[1m%d\033[0m\n", len(r.FailedDocuments))
	for _, p := range r.FailedDocuments {
		fmt.Fprintf(w, "    - %s\n", p)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Rows written\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, rel := range models.Relations {
		fmt.Fprintf(w, "  %s %d\n", runewidth.FillRight(rel.FileName(), 20), r.Rows[rel])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Duplicates suppressed\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Users           : %d\n", r.Stats.DuplicateUsers)
	fmt.Fprintf(w, "  Categories      : %d\n", r.Stats.DuplicateCategories)
	fmt.Fprintf(w, "  Item/category   : %d\n", r.Stats.DuplicatePairs)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Bids\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total volume : \033[1;32m$%s\033[0m\n", r.BidVolume.StringFixed(2))
	if r.UnpricedBids > 0 {
		fmt.Fprintf(w, "  Unpriced     : %d\n", r.UnpricedBids)
	}
	if r.HighestBid != nil {
		fmt.Fprintf(w, "  Highest      : \033[1;31m$%s\033[0m by %s on item %s (%s)\n",
			r.HighestBid.Amount.StringFixed(2), r.HighestBid.BidderID, r.HighestBid.ItemID, r.HighestBid.Time)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top categories\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopCategories) == 0 {
		fmt.Fprintf(w, "  No categories\n")
	}
	for i, c := range r.TopCategories {
		label := runewidth.FillRight(runewidth.Truncate(c.Label, 38, "..."), 40)
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %s %d\n", i+1, label, c.Items)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}
