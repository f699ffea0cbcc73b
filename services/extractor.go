package services

import (
	"context"
	"errors"
	"fmt"

	"ebay-normalizer/models"
	"ebay-normalizer/utils"
)

// ErrIncompleteListing is returned for a listing without a seller, with an
// empty category label or with a bid that has no bidder.
var ErrIncompleteListing = errors.New("incomplete listing")

// Extractor projects listings onto the five output relations.
type Extractor struct {
	ledger     *Ledger
	serializer *Serializer
	logger     *utils.Logger
}

// NewExtractor creates an Extractor that deduplicates through ledger.
func NewExtractor(ledger *Ledger, logger *utils.Logger) *Extractor {
	return &Extractor{
		ledger:     ledger,
		serializer: NewSerializer(logger),
		logger:     logger,
	}
}

// Extract derives the rows of every listing of one document, in source
// order. Rows whose natural key was already emitted in this run are
// dropped silently.
func (e *Extractor) Extract(ctx context.Context, listings []*models.Listing) (*models.Batch, models.ExtractStats, error) {
	batch := &models.Batch{}
	var stats models.ExtractStats

	// Reject a malformed document before any of its keys reach the ledger.
	for i, l := range listings {
		if err := check(l); err != nil {
			return nil, stats, fmt.Errorf("extractor: listing %d: %w", i, err)
		}
	}

	for i, l := range listings {
		if err := e.extractListing(ctx, batch, &stats, l); err != nil {
			return nil, stats, fmt.Errorf("extractor: listing %d (item %q): %w", i, l.ItemID.String(), err)
		}
		stats.Listings++
	}

	e.logger.Debug("[extractor] %d listings → %d users, %d items, %d categories, %d item/category, %d bids",
		stats.Listings,
		batch.Len(models.RelationUser), batch.Len(models.RelationItem),
		batch.Len(models.RelationCategory), batch.Len(models.RelationItemCategory),
		batch.Len(models.RelationBid))
	return batch, stats, nil
}

// check verifies everything extractListing can reject, without side effects.
func check(l *models.Listing) error {
	if l == nil {
		return fmt.Errorf("%w: null listing", ErrIncompleteListing)
	}
	if l.Seller == nil {
		return fmt.Errorf("%w: no seller", ErrIncompleteListing)
	}
	for j, label := range l.Category {
		if label == "" {
			return fmt.Errorf("%w: category %d has no label", ErrIncompleteListing, j)
		}
	}
	if err := checkTimestamp(l.Started); err != nil {
		return fmt.Errorf("started: %w", err)
	}
	if err := checkTimestamp(l.Ends); err != nil {
		return fmt.Errorf("ends: %w", err)
	}
	for j, env := range l.Bids {
		if env.Bid.Bidder == nil {
			return fmt.Errorf("%w: bid %d has no bidder", ErrIncompleteListing, j)
		}
		if err := checkTimestamp(env.Bid.Time); err != nil {
			return fmt.Errorf("bid %d time: %w", j, err)
		}
	}
	return nil
}

func checkTimestamp(t models.Text) error {
	if !t.Valid {
		return nil
	}
	_, err := FormatTimestamp(t.Value)
	return err
}

func (e *Extractor) extractListing(ctx context.Context, batch *models.Batch, stats *models.ExtractStats, l *models.Listing) error {
	itemID := l.ItemID.String()
	s := e.serializer

	// The seller record has no location; the listing's stands in for it.
	if err := e.addUser(ctx, batch, stats, l.Seller.UserID, l.Seller.Rating, l.Location, l.Country); err != nil {
		return err
	}

	started, err := s.Timestamp(l.Started)
	if err != nil {
		return fmt.Errorf("started: %w", err)
	}
	ends, err := s.Timestamp(l.Ends)
	if err != nil {
		return fmt.Errorf("ends: %w", err)
	}

	batch.Add(models.RelationItem, JoinFields(
		Escape(itemID),
		s.Text(l.Name),
		s.Dollar(l.Currently),
		s.Dollar(l.BuyPrice),
		s.Dollar(l.FirstBid),
		s.Text(l.NumberOfBids),
		s.Text(l.Location),
		s.Text(l.Country),
		started,
		ends,
		s.Text(l.Seller.UserID),
		s.Text(l.Description),
	))

	for _, label := range l.Category {
		first, err := e.ledger.FirstCategory(ctx, label)
		if err != nil {
			return fmt.Errorf("ledger: category: %w", err)
		}
		if first {
			batch.Add(models.RelationCategory, Escape(label))
		} else {
			stats.DuplicateCategories++
		}

		first, err = e.ledger.FirstItemCategory(ctx, itemID, label)
		if err != nil {
			return fmt.Errorf("ledger: item category: %w", err)
		}
		if first {
			batch.Add(models.RelationItemCategory, JoinFields(Escape(itemID), Escape(label)))
		} else {
			stats.DuplicatePairs++
		}
	}

	for j, env := range l.Bids {
		bid := env.Bid

		if err := e.addUser(ctx, batch, stats, bid.Bidder.UserID, bid.Bidder.Rating, bid.Bidder.Location, bid.Bidder.Country); err != nil {
			return err
		}

		at, err := s.Timestamp(bid.Time)
		if err != nil {
			return fmt.Errorf("bid %d time: %w", j, err)
		}
		batch.Add(models.RelationBid, JoinFields(
			Escape(itemID),
			s.Text(bid.Bidder.UserID),
			at,
			s.Dollar(bid.Amount),
		))
	}

	return nil
}

// addUser emits a User row the first time userID is seen. Later sightings
// are dropped even when their location or country differ.
func (e *Extractor) addUser(ctx context.Context, batch *models.Batch, stats *models.ExtractStats, userID, rating, location, country models.Text) error {
	first, err := e.ledger.FirstUser(ctx, userID.String())
	if err != nil {
		return fmt.Errorf("ledger: user: %w", err)
	}
	if !first {
		stats.DuplicateUsers++
		return nil
	}

	s := e.serializer
	batch.Add(models.RelationUser, JoinFields(
		s.Text(userID),
		s.Text(rating),
		s.Text(location),
		s.Text(country),
	))
	return nil
}
