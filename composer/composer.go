//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package composer renders terminal planning sessions into user-facing
// answers. A completed session becomes an itinerary draft referencing the
// collected offers and facts with their provenance; an exhausted or failed
// session becomes a partial answer whose caveats name every requested
// capability that produced nothing. The composer strictly reads the plan
// state and never fabricates entries that are not in it.
package composer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"trpc.group/trpc-go/trip-agent-go/session"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

// ErrNilSnapshot is returned when Compose is called without plan state.
var ErrNilSnapshot = errors.New("composer: nil snapshot")

// Answer is the user-facing outcome of one planning session. Callers see a
// terminal status, a human-readable reason, the itinerary assembled from the
// plan state, and caveats naming the capabilities that could not be
// satisfied. Raw adapter errors never appear here.
type Answer struct {
	SessionID string         `json:"session_id"`
	Status    session.Status `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	Itinerary Itinerary      `json:"itinerary"`
	Caveats   []string       `json:"caveats,omitempty"`
	Markdown  string         `json:"markdown"`
	HTML      string         `json:"html,omitempty"`
}

// Partial reports whether the answer was composed from a session that did
// not complete.
func (a *Answer) Partial() bool {
	return a.Status != session.StatusCompleted
}

// Itinerary groups the collected results by capability, in collection order.
type Itinerary struct {
	Flights []travel.FlightOffer `json:"flights,omitempty"`
	Hotels  []travel.HotelOffer  `json:"hotels,omitempty"`
	Notes   []travel.Snippet     `json:"notes,omitempty"`
}

// Empty reports whether the itinerary carries no entries at all.
func (it *Itinerary) Empty() bool {
	return len(it.Flights)+len(it.Hotels)+len(it.Notes) == 0
}

// Composer assembles answers from terminal plan state.
type Composer struct {
	md         goldmark.Markdown
	renderHTML bool
}

// Option represents a functional option for configuring the Composer.
type Option func(*Composer)

// WithHTML enables HTML rendering of the markdown answer for web embedding.
func WithHTML() Option {
	return func(c *Composer) {
		c.renderHTML = true
	}
}

// New creates a composer with the given options.
func New(opts ...Option) *Composer {
	c := &Composer{
		md: goldmark.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose renders the snapshot into an answer. The snapshot is expected to
// come from a terminal session; composing an active one works but flags the
// answer as partial.
func (c *Composer) Compose(snap *session.Snapshot) (*Answer, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	answer := &Answer{
		SessionID: snap.ID,
		Status:    snap.Status,
		Reason:    snap.Reason,
		Itinerary: Itinerary{
			Flights: append([]travel.FlightOffer(nil), snap.Flights...),
			Hotels:  append([]travel.HotelOffer(nil), snap.Hotels...),
			Notes:   append([]travel.Snippet(nil), snap.Snippets...),
		},
		Caveats: caveats(snap),
	}
	answer.Markdown = renderMarkdown(snap, answer)
	if c.renderHTML {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(answer.Markdown), &buf); err != nil {
			return nil, fmt.Errorf("rendering html: %w", err)
		}
		answer.HTML = buf.String()
	}
	return answer, nil
}

// caveats names each requested capability whose collection stayed empty,
// distinguishing failed, never-attempted, and no-results cases.
func caveats(snap *session.Snapshot) []string {
	var out []string
	for _, kind := range travel.SearchKinds() {
		if !snap.Goal.Wants(kind) || collected(snap, kind) > 0 {
			continue
		}
		label := kind.Label()
		switch {
		case !snap.Attempted(kind):
			out = append(out, label+" was never attempted")
		case snap.FailedFatally(kind):
			out = append(out, label+" failed")
		default:
			out = append(out, label+" produced no results")
		}
	}
	return out
}

func collected(snap *session.Snapshot, kind travel.ActionKind) int {
	switch kind {
	case travel.ActionRetrieveKnowledge:
		return len(snap.Snippets)
	case travel.ActionSearchFlights:
		return len(snap.Flights)
	case travel.ActionSearchHotels:
		return len(snap.Hotels)
	}
	return 0
}

func renderMarkdown(snap *session.Snapshot, answer *Answer) string {
	var sb strings.Builder
	sb.WriteString("# " + title(snap.Goal) + "\n")
	if answer.Partial() {
		fmt.Fprintf(&sb, "\n_Partial plan (%s: %s)._\n", snap.Status, snap.Reason)
	}
	if len(answer.Itinerary.Flights) > 0 {
		sb.WriteString("\n## Flights\n\n")
		for _, f := range answer.Itinerary.Flights {
			sb.WriteString("- " + flightLine(f) + "\n")
		}
	}
	if len(answer.Itinerary.Hotels) > 0 {
		sb.WriteString("\n## Hotels\n\n")
		for _, h := range answer.Itinerary.Hotels {
			sb.WriteString("- " + hotelLine(h) + "\n")
		}
	}
	if len(answer.Itinerary.Notes) > 0 {
		sb.WriteString("\n## Good to know\n\n")
		for _, n := range answer.Itinerary.Notes {
			sb.WriteString("- " + noteLine(n) + "\n")
		}
	}
	if len(answer.Caveats) > 0 {
		sb.WriteString("\n## Caveats\n\n")
		for _, cv := range answer.Caveats {
			sb.WriteString("- " + cv + "\n")
		}
	}
	return sb.String()
}

func title(goal *travel.Goal) string {
	switch {
	case goal == nil:
		return "Travel plan"
	case goal.Origin != "" && goal.Destination != "":
		return fmt.Sprintf("Travel plan: %s to %s", goal.Origin, goal.Destination)
	case goal.Destination != "":
		return "Travel plan: " + goal.Destination
	default:
		return "Travel plan"
	}
}

func flightLine(f travel.FlightOffer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** %s to %s", f.ID, f.Origin, f.Destination)
	if f.Departure != "" {
		sb.WriteString(", departs " + f.Departure)
	}
	fmt.Fprintf(&sb, " at %s", money(f.Price, f.Currency))
	if f.Airline != "" {
		sb.WriteString(", " + f.Airline)
	}
	sb.WriteString(", " + stops(f.Stops))
	if f.Provider != "" {
		sb.WriteString(" (via " + f.Provider + ")")
	}
	return sb.String()
}

func hotelLine(h travel.HotelOffer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", h.Name)
	if h.City != "" {
		sb.WriteString(", " + h.City)
	}
	if h.Rating > 0 {
		fmt.Fprintf(&sb, ", rated %.1f", h.Rating)
	}
	fmt.Fprintf(&sb, ", %s per night", money(h.Price, h.Currency))
	if len(h.Amenities) > 0 {
		sb.WriteString(" [" + strings.Join(h.Amenities, ", ") + "]")
	}
	if h.Provider != "" {
		sb.WriteString(" (via " + h.Provider + ")")
	}
	return sb.String()
}

func noteLine(n travel.Snippet) string {
	line := strings.TrimSpace(n.Content)
	if n.Source != "" {
		line += " (source: " + n.Source + ")"
	}
	return line
}

func money(amount float64, currency string) string {
	if currency == "" {
		currency = "EUR"
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func stops(n int) string {
	switch n {
	case 0:
		return "non-stop"
	case 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", n)
	}
}
