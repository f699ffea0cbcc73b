package ebay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"ebay-normalizer/models"
)

const jsonExt = ".json"

var (
	// ErrMissingItems is returned when a document has no "Items" collection.
	ErrMissingItems = errors.New(`missing top-level "Items" collection`)
	// ErrMissingField is returned when a listing lacks a required field.
	ErrMissingField = errors.New("missing required field")
)

// ParseError reports a document that could not be turned into listings.
// Listing is the zero-based index of the offending listing, or -1 when the
// document as a whole is at fault.
type ParseError struct {
	Path    string
	Listing int
	Field   string
	Err     error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse ")
	b.WriteString(e.Path)
	if e.Listing >= 0 {
		fmt.Fprintf(&b, ": listing %d", e.Listing)
	}
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsJSON reports whether path names a JSON document, going by its suffix.
func IsJSON(path string) bool {
	base := filepath.Base(path)
	return len(base) > len(jsonExt) && strings.HasSuffix(base, jsonExt)
}

// ReadFile decodes one document and returns its listings in source order.
// UTF-8 and BOM-marked UTF-16 files are accepted.
func ReadFile(path string) ([]*models.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Listing: -1, Err: err}
	}
	defer f.Close()

	return Decode(path, f)
}

// Decode reads a document from r. path is only used in errors.
func Decode(path string, r io.Reader) ([]*models.Listing, error) {
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, &ParseError{Path: path, Listing: -1, Err: err}
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Listing: -1, Err: err}
	}
	if doc.Items == nil {
		return nil, &ParseError{Path: path, Listing: -1, Err: ErrMissingItems}
	}

	for i, l := range doc.Items {
		if field := missingField(l); field != "" {
			return nil, &ParseError{Path: path, Listing: i, Field: field, Err: ErrMissingField}
		}
	}
	return doc.Items, nil
}

// missingField names the first required field l lacks, or "".
func missingField(l *models.Listing) string {
	switch {
	case l == nil:
		return "listing"
	case l.ItemID.String() == "":
		return "ItemID"
	case l.Seller == nil:
		return "Seller"
	case l.Seller.UserID.String() == "":
		return "Seller.UserID"
	case l.Category == nil:
		return "Category"
	}
	for j, label := range l.Category {
		if label == "" {
			return fmt.Sprintf("Category[%d]", j)
		}
	}
	for j, env := range l.Bids {
		if env.Bid.Bidder == nil || env.Bid.Bidder.UserID.String() == "" {
			return fmt.Sprintf("Bids[%d].Bidder.UserID", j)
		}
	}
	return ""
}
