package maps

import (
	"errors"

	"github.com/shopspring/decimal"

	"loadapp/internal/modules/route"
)

var ErrNoRoute = errors.New("no route found")

// corridorOriginShare is the origin country's share of well-known
// cross-border corridors. Other pairs split evenly.
var corridorOriginShare = map[[2]string]decimal.Decimal{
	{"PL", "DE"}: decimal.RequireFromString("0.6"),
	{"DE", "PL"}: decimal.RequireFromString("0.4"),
}

var half = decimal.RequireFromString("0.5")

func corridorShares(origin, destination string) []route.CountryShare {
	switch {
	case origin == "" && destination == "":
		return nil
	case origin == "" || destination == "" || origin == destination:
		c := origin
		if c == "" {
			c = destination
		}
		return []route.CountryShare{{Country: c, Fraction: decimal.NewFromInt(1)}}
	}
	share, ok := corridorOriginShare[[2]string{origin, destination}]
	if !ok {
		share = half
	}
	return []route.CountryShare{
		{Country: origin, Fraction: share},
		{Country: destination, Fraction: decimal.NewFromInt(1).Sub(share)},
	}
}

// countryDistances accumulates metres per country in first-seen order.
type countryDistances struct {
	order  []string
	meters map[string]int
	total  int
}

func (c *countryDistances) add(country string, m int) {
	if m <= 0 {
		return
	}
	if c.meters == nil {
		c.meters = make(map[string]int)
	}
	if _, ok := c.meters[country]; !ok {
		c.order = append(c.order, country)
	}
	c.meters[country] += m
	c.total += m
}

// shares converts the distances to fractions rounded to 4 dp; the last
// country takes the remainder so fractions sum to exactly 1.
func (c *countryDistances) shares() []route.CountryShare {
	if c.total == 0 {
		return nil
	}
	total := decimal.NewFromInt(int64(c.total))
	out := make([]route.CountryShare, 0, len(c.order))
	rest := decimal.NewFromInt(1)
	for i, country := range c.order {
		f := rest
		if i < len(c.order)-1 {
			f = decimal.NewFromInt(int64(c.meters[country])).Div(total).Round(4)
			rest = rest.Sub(f)
		}
		if !f.IsPositive() {
			continue
		}
		out = append(out, route.CountryShare{Country: country, Fraction: f})
	}
	return out
}
