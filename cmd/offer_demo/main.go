// README: Prices a sample Warsaw to Berlin load end to end with in-memory stores. Set GEMINI_API_KEY for a fun fact.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loadapp/internal/ai"
	"loadapp/internal/maps"
	"loadapp/internal/modules/costsettings"
	"loadapp/internal/modules/offer"
	"loadapp/internal/modules/route"
)

func main() {
	ctx := context.Background()
	logger := zap.NewNop()

	settingsSvc := costsettings.NewService(costsettings.NewMemoryStore(), costsettings.DefaultRates(), logger)
	if _, err := settingsSvc.EnsureDefaults(ctx); err != nil {
		log.Fatalf("seed settings: %v", err)
	}
	routeSvc := route.NewService(route.NewMemoryStore(), maps.MockProvider{}, route.EmptyDriving{}, logger)
	offerSvc := offer.NewService(offer.NewMemoryStore(), routeSvc, settingsSvc, logger)

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		provider, err := ai.NewGeminiProvider(ctx, key)
		if err != nil {
			log.Fatalf("Failed to initialize AI provider: %v", err)
		}
		defer provider.Close()
		offerSvc.WithFunFacts(provider, nil, 10*time.Second)
	}

	pickup := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	r, err := routeSvc.Plan(ctx, route.PlanCommand{
		Origin:       route.Location{Address: "Warsaw", CountryCode: "PL", Coordinates: &route.LatLng{Lat: 52.2297, Lng: 21.0122}},
		Destination:  route.Location{Address: "Berlin", CountryCode: "DE", Coordinates: &route.LatLng{Lat: 52.5200, Lng: 13.4050}},
		PickupTime:   pickup,
		DeliveryTime: pickup.Add(12 * time.Hour),
	})
	if err != nil {
		log.Fatalf("plan route: %v", err)
	}
	fmt.Printf("Route %s: %s km, %s h\n", r.ID, r.DistanceKm.StringFixed(1), r.DurationHours.StringFixed(1))
	for _, s := range r.Segments {
		fmt.Printf("  segment %d %s %s km empty=%t\n", s.Ordinal, s.Country, s.DistanceKm.StringFixed(1), s.EmptyDriving)
	}

	o, err := offerSvc.Generate(ctx, offer.GenerateCommand{RouteID: r.ID, Margin: decimal.RequireFromString("0.15")})
	if err != nil {
		log.Fatalf("generate offer: %v", err)
	}
	for _, c := range o.Breakdown.Components() {
		fmt.Printf("  %-12s %-2s %10s %s\n", c.Type, c.Country, c.Amount.StringFixed(2), c.Currency)
	}
	fmt.Printf("Total cost:  %s %s\n", o.TotalCost.StringFixed(2), o.Currency)
	fmt.Printf("Final price: %s %s (margin %s)\n", o.FinalPrice.StringFixed(2), o.Currency, o.Margin)
	for _, a := range offer.Alternatives(*o) {
		fmt.Printf("  %-8s margin %s -> %s\n", a.Label, a.Margin, a.FinalPrice.StringFixed(2))
	}
	if o.FunFact != "" {
		fmt.Printf("Fun fact: %s\n", o.FunFact)
	}
}
