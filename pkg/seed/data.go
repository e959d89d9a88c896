package seed

import (
	"github.com/google/uuid"

	"github.com/Ramsey-B/thistle/pkg/models"
)

var propertyNamespace = uuid.MustParse("5b0c8f43-8a37-4b6e-9d0e-6f1f9c7a2d11")

// PropertyID derives a stable id from the property name so reseeding
// never duplicates rows.
func PropertyID(name string) string {
	return uuid.NewSHA1(propertyNamespace, []byte(name)).String()
}

func property(name, address, description string, price int, category string, bedrooms, bathrooms int) models.Property {
	return models.Property{
		ID:          PropertyID(name),
		Name:        name,
		Address:     address,
		Description: description,
		Price:       price,
		Category:    category,
		Bedrooms:    bedrooms,
		Bathrooms:   bathrooms,
	}
}

// Properties are the London listings loaded on a fresh start.
func Properties() []models.Property {
	return []models.Property{
		property("Modern 2BR in Trendy Shoreditch", "29 Shoreditch Heights, London E1 6JE",
			"Experience the best of London living in this beautifully designed 2-bedroom apartment in the heart of Shoreditch.",
			125, "apartment", 2, 2),
		property("Stylish Camden Apartment", "15 Camden Square, London NW1 9XA",
			"A contemporary apartment in the vibrant Camden area with excellent transport links.",
			110, "apartment", 1, 1),
		property("Luxury Notting Hill Studio", "8 Notting Hill Gardens, London W11 3DF",
			"A beautiful studio apartment in prestigious Notting Hill with modern amenities.",
			95, "studio", 1, 1),
		property("Cozy Covent Garden Flat", "42 Covent Garden Plaza, London WC2E 8RF",
			"A charming flat in the heart of Covent Garden, perfect for theater and shopping enthusiasts.",
			140, "flat", 1, 1),
		property("Spacious Kensington House", "78 Kensington High Street, London W8 4PE",
			"A magnificent 3-bedroom house in prestigious Kensington with garden access.",
			200, "house", 3, 2),
		property("Contemporary Canary Wharf Studio", "12 Canary Wharf Drive, London E14 5AB",
			"Modern studio apartment in the financial district with stunning city views.",
			120, "studio", 1, 1),
		property("Historic Greenwich Townhouse", "25 Greenwich Park Road, London SE10 9LS",
			"Beautiful Victorian townhouse near Greenwich Park with period features.",
			180, "townhouse", 4, 3),
		property("Chic Hackney Loft", "88 Hackney Road, London E2 7QL",
			"Industrial-style loft in trendy Hackney with exposed brick and high ceilings.",
			130, "loft", 2, 2),
	}
}

func categories(cleanliness, communication, houseRules int) []any {
	return []any{
		map[string]any{"category": "cleanliness", "rating": cleanliness},
		map[string]any{"category": "communication", "rating": communication},
		map[string]any{"category": "respect_house_rules", "rating": houseRules},
	}
}

func review(id, channel string, rating int, text string, cats []any, submittedAt, guest, listing string) map[string]any {
	return map[string]any{
		"id":             id,
		"type":           string(models.ReviewTypeGuestToHost),
		"status":         "published",
		"channel":        channel,
		"rating":         rating,
		"publicReview":   text,
		"reviewCategory": cats,
		"submittedAt":    submittedAt,
		"guestName":      guest,
		"listingName":    listing,
	}
}

// Reviews is the sample review payload in upstream shape.
func Reviews() []any {
	return []any{
		review("review-001", "airbnb", 5,
			"Amazing apartment in the heart of Shoreditch! The location couldn't be better and the space was beautifully designed. Would definitely stay again.",
			categories(5, 5, 5), "2024-01-15", "Emily Johnson", "Modern 2BR in Trendy Shoreditch - Apartment"),
		review("review-002", "booking.com", 4,
			"Great location in Camden, close to everything. The apartment was clean and comfortable. Minor issues with WiFi but overall excellent stay.",
			categories(4, 4, 5), "2024-01-20", "Marcus Williams", "Stylish Camden Apartment - Modern Living"),
		review("review-003", "hostaway", 5,
			"Perfect studio in Notting Hill! Luxurious finishes and excellent amenities. The host was very responsive and helpful.",
			categories(5, 5, 4), "2024-01-25", "Sarah Chen", "Luxury Notting Hill Studio - Premium"),
		review("review-004", "airbnb", 3,
			"The flat was okay but had some cleanliness issues. Location in Covent Garden is fantastic for theater and shopping.",
			categories(2, 4, 4), "2024-02-01", "David Thompson", "Cozy Covent Garden Flat - Theater District"),
		review("review-005", "direct", 5,
			"Absolutely stunning house in Kensington! Spacious, beautifully decorated, and the garden was a wonderful bonus. Perfect for families.",
			categories(5, 5, 5), "2024-02-05", "Jennifer Davis", "Spacious Kensington House - Family Home"),
		review("review-006", "hostaway", 4,
			"Modern studio with incredible city views from Canary Wharf. Great for business travelers. Only downside was some noise from construction nearby.",
			categories(5, 4, 4), "2024-02-10", "Michael Rodriguez", "Contemporary Canary Wharf Studio - Business"),
		review("review-007", "booking.com", 5,
			"Beautiful Victorian townhouse near Greenwich Park. The historical features are charming and the location is peaceful yet well-connected.",
			categories(5, 5, 5), "2024-02-15", "Anna Martinez", "Historic Greenwich Townhouse - Victorian Charm"),
		review("review-008", "airbnb", 4,
			"Cool industrial loft in Hackney. Love the exposed brick and high ceilings. Area is trendy with lots of great restaurants and bars nearby.",
			categories(4, 4, 5), "2024-02-20", "James Wilson", "Chic Hackney Loft - Industrial Style"),
		review("review-009", "hostaway", 2,
			"Had high expectations but was disappointed. The apartment needs maintenance and cleaning was not up to standard.",
			categories(2, 3, 4), "2024-02-25", "Lisa Brown", "Modern 2BR in Trendy Shoreditch - Apartment"),
		review("review-010", "direct", 5,
			"Excellent stay in Camden! Everything was perfect - location, cleanliness, amenities. Highly recommend for anyone visiting London.",
			categories(5, 5, 5), "2024-03-01", "Robert Taylor", "Stylish Camden Apartment - Modern Living"),
	}
}

// Fallback is served in place of the upstream feed when it cannot be read.
func Fallback() []any {
	return []any{
		map[string]any{
			"id":             7453,
			"type":           string(models.ReviewTypeGuestToHost),
			"status":         "published",
			"rating":         5,
			"publicReview":   "Shane and family are wonderful! Would definitely host again :)",
			"reviewCategory": categories(10, 10, 10),
			"submittedAt":    "2020-08-21T22:45:14Z",
			"guestName":      "Shane Finkelstein",
			"listingName":    "2B N1 A - 29 Shoreditch Heights",
		},
	}
}
