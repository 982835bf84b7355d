// Package agentstub is a deterministic stand-in for the managed agent
// runtime, used for local development and end-to-end testing. It performs
// the same turn as the real agent (vendor lookup, per-vendor outreach email,
// summary response) with no model behind it.
package agentstub

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valro-hq/valro-api/internal/domain"
)

// Result is the outcome of one stub agent turn, in the runtime wire format.
type Result struct {
	Response   string               `json:"response"`
	Vendors    []domain.Vendor      `json:"vendors"`
	Emails     []domain.EmailRecord `json:"emails"`
	EmailsSent int                  `json:"emails_sent"`
}

// vendorDirectory is the static seed directory keyed by service then city.
var vendorDirectory = map[string]map[string][]domain.Vendor{
	"landscaping": {
		"charlotte": {
			{ID: "vendor_1", Name: "Greenline Lawn", Email: "quotes+greenline@example.com", Service: "landscaping", City: "Charlotte"},
			{ID: "vendor_2", Name: "Queen City Turf", Email: "quotes+qcturf@example.com", Service: "landscaping", City: "Charlotte"},
			{ID: "vendor_3", Name: "Uptown Yard", Email: "quotes+uptown@example.com", Service: "landscaping", City: "Charlotte"},
		},
		"raleigh": {
			{ID: "vendor_4", Name: "Capital Landscapes", Email: "quotes+capital@example.com", Service: "landscaping", City: "Raleigh"},
			{ID: "vendor_5", Name: "Triangle Green", Email: "quotes+triangle@example.com", Service: "landscaping", City: "Raleigh"},
		},
	},
	"painting": {
		"charlotte": {
			{ID: "vendor_6", Name: "Perfect Paint Co", Email: "quotes+perfectpaint@example.com", Service: "painting", City: "Charlotte"},
			{ID: "vendor_7", Name: "Charlotte Painters", Email: "quotes+cltpainters@example.com", Service: "painting", City: "Charlotte"},
		},
	},
	"cleaning": {
		"charlotte": {
			{ID: "vendor_8", Name: "Sparkle Clean", Email: "quotes+sparkle@example.com", Service: "cleaning", City: "Charlotte"},
			{ID: "vendor_9", Name: "Fresh Home Services", Email: "quotes+fresh@example.com", Service: "cleaning", City: "Charlotte"},
		},
	},
	"handyman": {
		"charlotte": {
			{ID: "vendor_10", Name: "Fix It Fast", Email: "quotes+fixit@example.com", Service: "handyman", City: "Charlotte"},
			{ID: "vendor_11", Name: "Home Repair Pro", Email: "quotes+homerepair@example.com", Service: "handyman", City: "Charlotte"},
		},
	},
}

// knownCities lists every city that appears in the directory.
func knownCities() []string {
	seen := make(map[string]bool)
	var cities []string
	for _, byCity := range vendorDirectory {
		for city := range byCity {
			if !seen[city] {
				seen[city] = true
				cities = append(cities, city)
			}
		}
	}
	return cities
}

// lookupVendors returns the directory entries for a (service, city) pair.
// An unknown pair yields an empty list; there is no fallback to some other
// city's vendors, so a miss is observable as zero outreach.
func lookupVendors(service, city string) []domain.Vendor {
	byCity, ok := vendorDirectory[service]
	if !ok {
		return []domain.Vendor{}
	}
	vendors, ok := byCity[strings.ToLower(city)]
	if !ok {
		return []domain.Vendor{}
	}
	return vendors
}

// Agent runs deterministic agent turns against the seed directory.
type Agent struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAgent creates a stub agent.
func NewAgent(logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		logger: logger.With("component", "agent_stub"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RunTurn performs one agent turn: parse the request, look up vendors, and
// compose one outreach email per vendor. Sending is a structured log entry.
func (a *Agent) RunTurn(ctx context.Context, prompt string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	intent := ParseIntent(prompt)
	a.logger.Info("parsed request intent",
		"service", intent.Service,
		"city", intent.City,
		"budget", intent.Budget)

	vendors := lookupVendors(intent.Service, intent.City)

	emails := make([]domain.EmailRecord, 0, len(vendors))
	for _, vendor := range vendors {
		email := a.composeEmail(vendor, prompt, intent)
		a.sendEmail(email)
		emails = append(emails, email)
	}

	return &Result{
		Response:   a.summarize(intent, len(vendors)),
		Vendors:    vendors,
		Emails:     emails,
		EmailsSent: len(emails),
	}, nil
}

// composeEmail builds one outreach email to a vendor.
func (a *Agent) composeEmail(vendor domain.Vendor, prompt string, intent Intent) domain.EmailRecord {
	subject := fmt.Sprintf("Quote request: %s in %s", vendor.Service, vendor.City)

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", vendor.Name)
	fmt.Fprintf(&body, "A homeowner in %s is looking for %s help and asked us to reach out:\n\n", vendor.City, vendor.Service)
	fmt.Fprintf(&body, "  %q\n\n", prompt)
	if intent.Budget > 0 {
		fmt.Fprintf(&body, "Their budget is around $%.0f.\n\n", intent.Budget)
	}
	body.WriteString("Could you reply with a quote and your earliest availability?\n\nThanks,\nValro Concierge")

	return domain.EmailRecord{
		Recipient: vendor.Email,
		Subject:   subject,
		Body:      body.String(),
		Timestamp: a.now(),
	}
}

// sendEmail "delivers" an email by logging it. No real mail leaves the stub.
func (a *Agent) sendEmail(email domain.EmailRecord) {
	a.logger.Info("email sent",
		"recipient", email.Recipient,
		"subject", email.Subject,
		"body_length", len(email.Body))
}

// summarize produces the turn's human-readable response text.
func (a *Agent) summarize(intent Intent, vendorCount int) string {
	if vendorCount == 0 {
		if intent.Service == "" || intent.City == "" {
			return "I could not determine the service or location from the request, so no vendors were contacted."
		}
		return fmt.Sprintf("No %s vendors are available in %s yet, so no outreach was sent.", intent.Service, intent.City)
	}
	return fmt.Sprintf("I found %d %s vendor(s) in %s and sent each a quote request on your behalf.",
		vendorCount, intent.Service, capitalize(intent.City))
}

// capitalize upper-cases the first letter of an ASCII city name.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
