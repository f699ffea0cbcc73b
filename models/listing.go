package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Text is a scalar field as it appears in the source document. The eBay
// export mixes quoted and bare values, so numbers and booleans are kept as
// their literal JSON text. Valid is false for null or absent fields.
type Text struct {
	Value string
	Valid bool
}

// NewText returns a present Text holding s.
func NewText(s string) Text { return Text{Value: s, Valid: true} }

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = Text{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = NewText(s)
		return nil
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("expected scalar, got %s", data[:1])
	default:
		*t = NewText(string(data))
		return nil
	}
}

// String returns the literal value, or "" when absent.
func (t Text) String() string {
	if !t.Valid {
		return ""
	}
	return t.Value
}

// Document is one source file: a top-level object carrying the listings.
type Document struct {
	Items []*Listing `json:"Items"`
}

// Listing is one auction as exported by eBay. It is denormalized: the
// seller, the bids and their bidders are all nested inside it.
type Listing struct {
	ItemID       Text          `json:"ItemID"`
	Name         Text          `json:"Name"`
	Category     []string      `json:"Category"`
	Currently    Text          `json:"Currently"`
	BuyPrice     Text          `json:"Buy_Price"`
	FirstBid     Text          `json:"First_Bid"`
	NumberOfBids Text          `json:"Number_of_Bids"`
	Bids         []BidEnvelope `json:"Bids"`
	Location     Text          `json:"Location"`
	Country      Text          `json:"Country"`
	Started      Text          `json:"Started"`
	Ends         Text          `json:"Ends"`
	Seller       *Seller       `json:"Seller"`
	Description  Text          `json:"Description"`
}

// Seller carries no location of its own; the listing's is used.
type Seller struct {
	UserID Text `json:"UserID"`
	Rating Text `json:"Rating"`
}

// BidEnvelope mirrors the export's {"Bid": {...}} wrapping.
type BidEnvelope struct {
	Bid Bid `json:"Bid"`
}

type Bid struct {
	Bidder *Bidder `json:"Bidder"`
	Time   Text    `json:"Time"`
	Amount Text    `json:"Amount"`
}

type Bidder struct {
	UserID   Text `json:"UserID"`
	Rating   Text `json:"Rating"`
	Location Text `json:"Location"`
	Country  Text `json:"Country"`
}

// Relation names one of the normalized output tables.
type Relation int

const (
	RelationUser Relation = iota
	RelationItem
	RelationCategory
	RelationItemCategory
	RelationBid

	relationCount = int(RelationBid) + 1
)

// Relations lists every output table in the order files are written.
var Relations = []Relation{
	RelationUser, RelationItem, RelationCategory, RelationItemCategory, RelationBid,
}

func (r Relation) String() string {
	switch r {
	case RelationUser:
		return "User"
	case RelationItem:
		return "Item"
	case RelationCategory:
		return "Category"
	case RelationItemCategory:
		return "Item_Category"
	case RelationBid:
		return "Bid"
	}
	return fmt.Sprintf("Relation(%d)", int(r))
}

// FileName is the bulk-load file the relation is appended to.
func (r Relation) FileName() string { return r.String() + ".dat" }

// Batch holds the finished lines derived from one document, per relation,
// in derivation order.
type Batch struct {
	lines [relationCount][]string
}

// Add appends a finished line to the relation.
func (b *Batch) Add(r Relation, line string) {
	b.lines[r] = append(b.lines[r], line)
}

// Lines returns the relation's lines in the order they were added.
func (b *Batch) Lines(r Relation) []string { return b.lines[r] }

// Len returns the number of lines held for the relation.
func (b *Batch) Len(r Relation) int { return len(b.lines[r]) }

// ExtractStats counts what the extractor did with one document.
type ExtractStats struct {
	Listings            int
	DuplicateUsers      int
	DuplicateCategories int
	DuplicatePairs      int
}

// Merge adds o into s.
func (s *ExtractStats) Merge(o ExtractStats) {
	s.Listings += o.Listings
	s.DuplicateUsers += o.DuplicateUsers
	s.DuplicateCategories += o.DuplicateCategories
	s.DuplicatePairs += o.DuplicatePairs
}

// RunReport holds the figures computed over one run's output.
type RunReport struct {
	RunID            string
	DocumentsParsed  int
	DocumentsSkipped int
	FailedDocuments  []string
	Rows             map[Relation]int
	Stats            ExtractStats
	BidVolume        decimal.Decimal
	UnpricedBids     int
	HighestBid       *BidSummary
	TopCategories    []CategoryCount
}

// BidSummary identifies a single bid row.
type BidSummary struct {
	ItemID   string
	BidderID string
	Time     string
	Amount   decimal.Decimal
}

// CategoryCount is the number of items filed under a category label.
type CategoryCount struct {
	Label string
	Items int
}
