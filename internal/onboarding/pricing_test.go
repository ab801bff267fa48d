package onboarding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"site-onboarding/internal/domain"
)

func TestPrice(t *testing.T) {
	cases := []struct {
		name        string
		state       domain.State
		firstPeriod bool
		want        string
	}{
		{name: "intro base", firstPeriod: true, want: "39.00"},
		{name: "standard base", want: "59.00"},
		{name: "intro with contact form", state: domain.State{AddOns: domain.AddOns{ContactForm: true}}, firstPeriod: true, want: "43.90"},
		{name: "all add-ons", state: domain.State{AddOns: domain.AddOns{ContactForm: true, Gallery: true, Menu: true, PriceList: true}}, want: "88.60"},
		{
			name: "named sub-pages only",
			state: domain.State{SubPages: []domain.SubPage{
				{ID: "team", Name: "Team"}, {ID: "page", Name: "  "}, {ID: "jobs", Name: "Jobs"},
			}},
			firstPeriod: true,
			want:        "48.80",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Price(tc.state, tc.firstPeriod).String())
		})
	}
}

func TestAmount_String(t *testing.T) {
	require.Equal(t, "0.05", Amount(5).String())
	require.Equal(t, "-1.50", Amount(-150).String())
}
