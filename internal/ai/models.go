package ai

import (
	"fmt"
	"strings"

	"loadapp/internal/modules/route"
)

// RouteContext is the route information a fun fact prompt may use.
type RouteContext struct {
	RouteID            string
	Origin             string
	OriginCountry      string
	Destination        string
	DestinationCountry string
	DistanceKm         string
	DurationHours      string
}

func FromRoute(r route.Route) RouteContext {
	return RouteContext{
		RouteID:            r.ID,
		Origin:             r.Origin.Address,
		OriginCountry:      r.Origin.CountryCode,
		Destination:        r.Destination.Address,
		DestinationCountry: r.Destination.CountryCode,
		DistanceKm:         r.DistanceKm.StringFixed(0),
		DurationHours:      r.DurationHours.StringFixed(1),
	}
}

const systemInstruction = "You are a helpful assistant that generates interesting facts about transport routes."

// BuildFunFactPrompt renders the user prompt for rc.
func BuildFunFactPrompt(rc RouteContext) string {
	origin := place(rc.Origin, rc.OriginCountry)
	destination := place(rc.Destination, rc.DestinationCountry)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a brief, interesting fact about a transport route from %s to %s.", origin, destination)
	if rc.DistanceKm != "" && rc.DistanceKm != "0" {
		fmt.Fprintf(&b, " The route is about %s km", rc.DistanceKm)
		if rc.DurationHours != "" {
			fmt.Fprintf(&b, " and takes roughly %s hours of driving", rc.DurationHours)
		}
		b.WriteString(".")
	}
	b.WriteString(" Make it relevant to logistics or transportation. Answer in one or two plain sentences without markdown.")
	return b.String()
}

func place(address, country string) string {
	address = strings.TrimSpace(address)
	country = strings.TrimSpace(country)
	switch {
	case address == "" && country == "":
		return "an unknown location"
	case country == "":
		return address
	case address == "":
		return country
	}
	return fmt.Sprintf("%s (%s)", address, country)
}
