package ai

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"loadapp/internal/modules/route"
)

func TestBuildFunFactPrompt(t *testing.T) {
	rc := FromRoute(route.Route{
		ID:            "r1",
		Origin:        route.Location{Address: "Warsaw", CountryCode: "PL"},
		Destination:   route.Location{Address: "Berlin", CountryCode: "DE"},
		DistanceKm:    decimal.RequireFromString("574.6"),
		DurationHours: decimal.RequireFromString("6.25"),
	})
	prompt := BuildFunFactPrompt(rc)

	assert.Contains(t, prompt, "from Warsaw (PL) to Berlin (DE)")
	assert.Contains(t, prompt, "about 575 km")
	assert.Contains(t, prompt, "6.3 hours")
	assert.Contains(t, prompt, "logistics or transportation")

	bare := BuildFunFactPrompt(RouteContext{Origin: "Lodz"})
	assert.Contains(t, bare, "from Lodz to an unknown location.")
	assert.NotContains(t, bare, "km")
}

func TestSanitizeFunFact(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Trucks cross the Oder   daily.  ", "Trucks cross the Oder daily."},
		{"markup", `<b>Fun</b> fact: <script>alert(1)</script>Rain &amp; snow`, "Fun fact: Rain & snow"},
		{"markdown", `**"The A2 motorway is a toll road."**`, "The A2 motorway is a toll road."},
		{"empty", " <p></p> ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeFunFact(tc.in))
		})
	}

	long := strings.Repeat("convoy ", 100)
	got := SanitizeFunFact(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxFunFactRunes+1)
	assert.True(t, strings.HasSuffix(got, "convoy…"))
}

func TestNoopProvider(t *testing.T) {
	fact, err := NoopProvider{}.FunFact(context.Background(), RouteContext{})
	assert.NoError(t, err)
	assert.Empty(t, fact)
}
