package cmd

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// knownCollections are the standard modules of a CRM account. Custom modules
// are still accepted, this list only drives suggestions.
var knownCollections = []string{
	"Accounts",
	"Calls",
	"Campaigns",
	"Cases",
	"Contacts",
	"Deals",
	"Events",
	"Invoices",
	"Leads",
	"Potentials",
	"Products",
	"PurchaseOrders",
	"Quotes",
	"SalesOrders",
	"Solutions",
	"Tasks",
	"Vendors",
}

type lowerSource []string

func (s lowerSource) String(i int) string { return strings.ToLower(s[i]) }
func (s lowerSource) Len() int            { return len(s) }

// suggestCollection returns the closest known collection name, or "" when name
// is already known or nothing resembles it
func suggestCollection(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, known := range knownCollections {
		if known == name {
			return ""
		}
	}
	// Case mistakes are the common typo
	for _, known := range knownCollections {
		if strings.EqualFold(known, name) {
			return known
		}
	}

	matches := fuzzy.FindFrom(strings.ToLower(name), lowerSource(knownCollections))
	if len(matches) == 0 {
		return ""
	}
	return knownCollections[matches[0].Index]
}

// checkCollection warns about collection names that look misspelt
func checkCollection(name string) {
	if suggestion := suggestCollection(name); suggestion != "" {
		logger.Warn().
			Str("collection", name).
			Str("suggestion", suggestion).
			Msgf("Unknown collection %q, did you mean %q?", name, suggestion)
	}
}
