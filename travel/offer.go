//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package travel

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// FlightOffer is one normalized flight search result.
type FlightOffer struct {
	ID          string  `json:"id"`
	Provider    string  `json:"provider"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Departure   string  `json:"departure,omitempty"`
	Arrival     string  `json:"arrival,omitempty"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency,omitempty"`
	Airline     string  `json:"airline,omitempty"`
	Stops       int     `json:"stops"`
}

// Key returns the deduplication key for the offer.
func (o FlightOffer) Key() string {
	return o.Provider + "/" + o.ID
}

// HotelOffer is one normalized hotel search result. Field names follow the
// upstream hotel catalog vocabulary: name, city, rating, price, amenities.
type HotelOffer struct {
	ID        string   `json:"id"`
	Provider  string   `json:"provider"`
	Name      string   `json:"name"`
	City      string   `json:"city,omitempty"`
	Price     float64  `json:"price"`
	Currency  string   `json:"currency,omitempty"`
	Rating    float64  `json:"rating,omitempty"`
	CheckIn   string   `json:"check_in,omitempty"`
	CheckOut  string   `json:"check_out,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
}

// Key returns the deduplication key for the offer.
func (o HotelOffer) Key() string {
	return o.Provider + "/" + o.ID
}

// Snippet is one knowledge retrieval fact with provenance.
type Snippet struct {
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Key returns the content hash used for deduplication. The content is
// Unicode-normalized and case-folded first so re-encoded or re-cased copies
// of the same fact collapse to one entry.
func (s Snippet) Key() string {
	folded := cases.Fold().String(norm.NFKC.String(s.Content))
	folded = strings.Join(strings.Fields(folded), " ")
	sum := sha256.Sum256([]byte(folded))
	return hex.EncodeToString(sum[:])
}
