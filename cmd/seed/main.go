// Package main provides a tool to seed the backend with demo marketplace data.
//
// This upserts the canonical category rows and creates a spread of demo
// listings so the browse feed, filters, and booking flow have something to
// show in a fresh project.
//
// Usage:
//
//	BACKEND_URL=https://xyz.supabase.co BACKEND_KEY=... go run ./cmd/seed
//	go run ./cmd/seed --listings=40  # More demo listings
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/catalog"
	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/listing"
)

var (
	listingCount = flag.Int("listings", 20, "Number of demo listings to create")
	ownerID      = flag.String("owner", "seed-user", "User id the demo listings belong to")
)

var demoLocations = []string{
	"Lake Como, Italy",
	"Aspen, Colorado",
	"Saint-Tropez, France",
	"Malibu, California",
	"Marbella, Spain",
	"Lucerne, Switzerland",
	"Amalfi, Italy",
	"Jackson Hole, Wyoming",
}

func main() {
	flag.Parse()

	baseURL := os.Getenv("BACKEND_URL")
	apiKey := os.Getenv("BACKEND_KEY")
	if baseURL == "" || apiKey == "" {
		log.Fatal("BACKEND_URL and BACKEND_KEY must be set")
	}

	fmt.Printf("Seeding backend at: %s\n", baseURL)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := backend.NewClient(baseURL, apiKey, 30*time.Second, logger)

	ctx := context.Background()

	if err := seedCategories(ctx, client); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	cat := catalog.New(client, logger)
	if err := cat.Load(ctx); err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	listings := listing.NewService(client, cat, logger)
	created, err := seedListings(ctx, listings)
	if err != nil {
		log.Fatalf("Failed to seed listings: %v", err)
	}

	fmt.Printf("Done. Created %d listings.\n", created)
}

func seedCategories(ctx context.Context, client *backend.Client) error {
	type categoryRow struct {
		Name string             `json:"name"`
		Type domain.ListingType `json:"type"`
	}

	upsert := func(names []string, kind domain.ListingType) error {
		for _, name := range names {
			if err := client.Upsert(ctx, "categories", categoryRow{Name: name, Type: kind}, nil); err != nil {
				return fmt.Errorf("upsert category %s: %w", name, err)
			}
		}
		return nil
	}

	if err := upsert(domain.SaleCategories, domain.TypeSale); err != nil {
		return err
	}
	if err := upsert(domain.BookCategories, domain.TypeRent); err != nil {
		return err
	}

	fmt.Printf("Seeded %d categories\n", len(domain.SaleCategories)+len(domain.BookCategories))
	return nil
}

func seedListings(ctx context.Context, listings *listing.Service) (int, error) {
	created := 0
	for i := 0; i < *listingCount; i++ {
		input := demoListing(i)
		if _, err := listings.Create(ctx, *ownerID, input); err != nil {
			return created, fmt.Errorf("create listing %q: %w", input.Title, err)
		}
		created++
	}
	return created, nil
}

func demoListing(i int) listing.ListingInput {
	location := demoLocations[i%len(demoLocations)]

	switch i % 4 {
	case 0:
		return listing.ListingInput{
			Title:       fmt.Sprintf("Villa Serena %d", i+1),
			Description: "Hillside villa with private gardens and an infinity pool.",
			Price:       int64(2_000_000 + rand.Intn(8_000_000)),
			Location:    location,
			Type:        domain.TypeSale,
			Category:    domain.CategoryVillaSale,
			Property: &domain.PropertyAttrs{
				Bedrooms:  3 + rand.Intn(5),
				Bathrooms: 2 + rand.Intn(4),
				Sqft:      3000 + rand.Intn(6000),
			},
		}
	case 1:
		return listing.ListingInput{
			Title:       fmt.Sprintf("Grand Tourer %d", i+1),
			Description: "Low-mileage grand tourer, dealer maintained.",
			Price:       int64(150_000 + rand.Intn(700_000)),
			Location:    location,
			Type:        domain.TypeSale,
			Category:    domain.CategoryCarSale,
			Vehicle: &domain.VehicleAttrs{
				Make:  "Aston Martin",
				Model: "DB12",
				Year:  2020 + rand.Intn(6),
			},
		}
	case 2:
		return listing.ListingInput{
			Title:       fmt.Sprintf("Lakeside Stay %d", i+1),
			Description: "Waterfront stay with a private dock and chef service.",
			Price:       int64(800 + rand.Intn(4000)),
			Location:    location,
			Type:        domain.TypeRent,
			Category:    domain.CategoryStayRental,
			Property: &domain.PropertyAttrs{
				Bedrooms:  2 + rand.Intn(4),
				Bathrooms: 2 + rand.Intn(3),
				Sqft:      1800 + rand.Intn(3000),
				PricePer:  "night",
			},
		}
	default:
		return listing.ListingInput{
			Title:       fmt.Sprintf("Charter Yacht %d", i+1),
			Description: "Crewed charter yacht, fuel and crew included.",
			Price:       int64(5_000 + rand.Intn(30_000)),
			Location:    location,
			Type:        domain.TypeRent,
			Category:    domain.CategoryYachtRental,
			Vehicle: &domain.VehicleAttrs{
				Make:     "Ferretti",
				Model:    "720",
				Year:     2018 + rand.Intn(8),
				PricePer: "day",
			},
		}
	}
}
