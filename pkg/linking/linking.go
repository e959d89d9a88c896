// Package linking associates reviews with properties. An explicit listing id
// wins; otherwise the property name must appear inside the review's listing
// name. Name matches can be ambiguous and are reported for reconciliation.
package linking

import (
	"strings"
	"unicode"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/thistle/pkg/models"
)

type Method string

const (
	MethodListingID Method = "listing_id"
	MethodName      Method = "name"
	MethodNone      Method = "none"
)

// Link is how one review resolved against the known properties
type Link struct {
	Method      Method   `json:"method"`
	PropertyIDs []string `json:"propertyIds"`
	Ambiguous   bool     `json:"ambiguous"`
}

// Diagnostic describes a review that did not link to exactly one property
type Diagnostic struct {
	ReviewID    string   `json:"reviewId"`
	ListingName string   `json:"listingName"`
	ListingID   *string  `json:"listingId"`
	Method      Method   `json:"method"`
	PropertyIDs []string `json:"propertyIds"`
	Ambiguous   bool     `json:"ambiguous"`
}

// NormalizeName lowercases and collapses whitespace so names compare loosely.
func NormalizeName(s string) string {
	var b strings.Builder
	prevSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	return strings.TrimSpace(b.String())
}

// NameMatches reports whether the property name is contained in the listing name.
func NameMatches(listingName, propertyName string) bool {
	name := NormalizeName(propertyName)
	if name == "" {
		return false
	}
	return strings.Contains(NormalizeName(listingName), name)
}

// Resolve links a review to properties.
func Resolve(review models.Review, properties []models.Property) Link {
	if review.ListingID != nil && *review.ListingID != "" {
		byID := ectolinq.Any(properties, func(p models.Property) bool { return p.ID == *review.ListingID })
		if byID {
			return Link{Method: MethodListingID, PropertyIDs: []string{*review.ListingID}}
		}
	}

	matched := ectolinq.Filter(properties, func(p models.Property) bool {
		return NameMatches(review.ListingName, p.Name)
	})
	ids := ectolinq.Map(matched, func(p models.Property) string { return p.ID })
	if len(ids) == 0 {
		return Link{Method: MethodNone, PropertyIDs: []string{}}
	}
	return Link{Method: MethodName, PropertyIDs: ids, Ambiguous: len(ids) > 1}
}

// LinksTo reports whether the review resolves to the given property.
func LinksTo(review models.Review, propertyID string, properties []models.Property) bool {
	return ectolinq.Contains(Resolve(review, properties).PropertyIDs, propertyID)
}

// ReviewsFor returns the reviews linked to the property, keeping input order.
func ReviewsFor(propertyID string, reviews []models.Review, properties []models.Property) []models.Review {
	out := ectolinq.Filter(reviews, func(r models.Review) bool {
		return LinksTo(r, propertyID, properties)
	})
	if out == nil {
		return []models.Review{}
	}
	return out
}

// Unlinked lists the reviews that matched no property or more than one.
func Unlinked(reviews []models.Review, properties []models.Property) []Diagnostic {
	out := []Diagnostic{}
	for _, r := range reviews {
		link := Resolve(r, properties)
		if link.Method != MethodNone && !link.Ambiguous {
			continue
		}
		out = append(out, Diagnostic{
			ReviewID:    r.ID,
			ListingName: r.ListingName,
			ListingID:   r.ListingID,
			Method:      link.Method,
			PropertyIDs: link.PropertyIDs,
			Ambiguous:   link.Ambiguous,
		})
	}
	return out
}
