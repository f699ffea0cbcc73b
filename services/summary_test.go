package services

import (
	"bytes"
	"strings"
	"testing"

	"ebay-normalizer/models"
)

func sampleBatch() *models.Batch {
	b := &models.Batch{}
	b.Add(models.RelationUser, "alice|10|NY|USA")
	b.Add(models.RelationUser, "bob99|5|USA|USA")
	b.Add(models.RelationItem, "1|thing|5.00||1.00|2|NY|USA|2001-01-01 00:00:00|2001-01-02 00:00:00|alice|")
	b.Add(models.RelationCategory, "Books")
	b.Add(models.RelationCategory, `"Odd | Label"`)
	b.Add(models.RelationItemCategory, "1|Books")
	b.Add(models.RelationItemCategory, `1|"Odd | Label"`)
	b.Add(models.RelationItemCategory, "2|Books")
	b.Add(models.RelationBid, "1|bob99|2001-01-01 01:00:00|3.50")
	b.Add(models.RelationBid, "1|bob99|2001-01-01 02:00:00|1250.25")
	b.Add(models.RelationBid, "1|bob99|2001-01-01 03:00:00|")
	return b
}

func TestSummaryCounts(t *testing.T) {
	svc := NewSummaryService(newTestLogger(), "run-1")
	svc.Observe(sampleBatch(), models.ExtractStats{Listings: 1, DuplicateUsers: 2})
	svc.Skipped("notes.txt")
	svc.Failed("broken.json")

	r := svc.Report()
	if r.DocumentsParsed != 1 || r.DocumentsSkipped != 1 || len(r.FailedDocuments) != 1 {
		t.Errorf("documents: parsed %d skipped %d failed %v", r.DocumentsParsed, r.DocumentsSkipped, r.FailedDocuments)
	}
	if r.Rows[models.RelationUser] != 2 || r.Rows[models.RelationBid] != 3 {
		t.Errorf("rows: %v", r.Rows)
	}
	if r.Stats.DuplicateUsers != 2 {
		t.Errorf("DuplicateUsers: got %d, want 2", r.Stats.DuplicateUsers)
	}
}

func TestSummaryBidVolume(t *testing.T) {
	svc := NewSummaryService(newTestLogger(), "run-1")
	svc.Observe(sampleBatch(), models.ExtractStats{})
	svc.Observe(sampleBatch(), models.ExtractStats{})

	r := svc.Report()
	if got := r.BidVolume.StringFixed(2); got != "2507.50" {
		t.Errorf("BidVolume: got %s, want 2507.50", got)
	}
	if r.UnpricedBids != 2 {
		t.Errorf("UnpricedBids: got %d, want 2", r.UnpricedBids)
	}
	if r.HighestBid == nil || r.HighestBid.Amount.StringFixed(2) != "1250.25" {
		t.Fatalf("HighestBid: got %+v", r.HighestBid)
	}
	if r.HighestBid.Time != "2001-01-01 02:00:00" {
		t.Errorf("HighestBid.Time: got %q", r.HighestBid.Time)
	}
}

func TestSummaryTopCategories(t *testing.T) {
	svc := NewSummaryService(newTestLogger(), "run-1")
	svc.Observe(sampleBatch(), models.ExtractStats{})

	r := svc.Report()
	if len(r.TopCategories) != 2 {
		t.Fatalf("TopCategories: got %v", r.TopCategories)
	}
	if r.TopCategories[0].Label != "Books" || r.TopCategories[0].Items != 2 {
		t.Errorf("TopCategories[0] = %+v; want Books/2", r.TopCategories[0])
	}
	if r.TopCategories[1].Label != "Odd | Label" {
		t.Errorf("TopCategories[1].Label = %q; want unescaped label", r.TopCategories[1].Label)
	}
}

func TestSummaryEmpty(t *testing.T) {
	svc := NewSummaryService(newTestLogger(), "run-0")
	r := svc.Report()
	if r.DocumentsParsed != 0 || r.HighestBid != nil || !r.BidVolume.IsZero() {
		t.Errorf("expected empty report, got %+v", r)
	}

	var buf bytes.Buffer
	svc.Print(&buf, r)
	if !strings.Contains(buf.String(), "No categories") {
		t.Error("empty report should say there are no categories")
	}
}

func TestSummaryPrint(t *testing.T) {
	svc := NewSummaryService(newTestLogger(), "run-7")
	svc.Observe(sampleBatch(), models.ExtractStats{})

	var buf bytes.Buffer
	svc.Print(&buf, svc.Report())
	out := buf.String()
	for _, want := range []string{"run-7", "User.dat", "Bid.dat", "1253.75", "Books"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q", want)
		}
	}
}
