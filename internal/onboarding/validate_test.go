package onboarding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"site-onboarding/internal/domain"
)

func requireAccepted(t *testing.T, step domain.Step, raw, want string) {
	t.Helper()
	v := Validate(step, raw)
	require.Equal(t, Accepted, v.Verdict, "step=%s raw=%q rejection=%+v", step, raw, v.Rejection)
	require.Equal(t, want, v.Value)
}

func requireRejected(t *testing.T, step domain.Step, raw, reason string) Validation {
	t.Helper()
	v := Validate(step, raw)
	require.Equal(t, Rejected, v.Verdict, "step=%s raw=%q", step, raw)
	require.Equal(t, reason, v.Rejection.Reason)
	require.NotEmpty(t, v.Rejection.Hint)
	return v
}

func TestValidate_LegalOwner(t *testing.T) {
	requireAccepted(t, domain.StepLegalOwner, "  Maria   Schmidt ", "Maria Schmidt")
	requireAccepted(t, domain.StepLegalOwner, "Anna Lena Berg", "Anna Lena Berg")
	requireRejected(t, domain.StepLegalOwner, "Maria", ReasonFullName)
	requireRejected(t, domain.StepLegalOwner, "   ", ReasonFullName)
}

func TestValidate_Street(t *testing.T) {
	requireAccepted(t, domain.StepLegalStreet, "Hauptstraße  5a", "Hauptstraße 5a")
	requireRejected(t, domain.StepLegalStreet, "Hauptstraße", ReasonHouseNumber)
	requireRejected(t, domain.StepLegalStreet, "", ReasonRequired)
}

func TestValidate_ZipCity(t *testing.T) {
	requireAccepted(t, domain.StepLegalZipCity, "10115 Berlin", "10115 Berlin")
	requireAccepted(t, domain.StepLegalZipCity, "60311   Frankfurt  am Main", "60311 Frankfurt am Main")
	requireRejected(t, domain.StepLegalZipCity, "1011 Berlin", ReasonFormat)
	requireRejected(t, domain.StepLegalZipCity, "Berlin 10115", ReasonFormat)
	requireRejected(t, domain.StepLegalZipCity, "10115", ReasonFormat)
}

func TestValidate_ZipCityRoundTrip(t *testing.T) {
	inputs := []string{
		"10115 Berlin",
		"80331  München",
		"01067\tDresden  Altstadt",
		"50667 Köln ",
	}
	for _, in := range inputs {
		v := Validate(domain.StepLegalZipCity, in)
		require.Equal(t, Accepted, v.Verdict, in)
		zip, city, ok := splitZipCity(v.Value)
		require.True(t, ok)
		require.Equal(t, strings.Join(strings.Fields(in), " "), zip+" "+city)
	}
}

func TestValidate_Email(t *testing.T) {
	requireAccepted(t, domain.StepLegalEmail, " info@cafe-rosa.de ", "info@cafe-rosa.de")
	requireRejected(t, domain.StepLegalEmail, "info@cafe", ReasonFormat)
	requireRejected(t, domain.StepLegalEmail, "info cafe@rosa.de", ReasonFormat)
	requireRejected(t, domain.StepLegalEmail, "", ReasonFormat)
}

func TestValidate_Phone(t *testing.T) {
	requireAccepted(t, domain.StepLegalPhone, "030 1234567", "030 1234567")
	requireRejected(t, domain.StepLegalPhone, " ", ReasonRequired)
}

func TestValidate_VAT(t *testing.T) {
	requireAccepted(t, domain.StepLegalVAT, "de123456789", "DE123456789")
	requireAccepted(t, domain.StepLegalVAT, "DE 123 456 789", "DE123456789")
	for _, none := range []string{"", "nein", "NEIN", "-", "no", "Kleinunternehmer"} {
		requireAccepted(t, domain.StepLegalVAT, none, "")
	}

	v := requireRejected(t, domain.StepLegalVAT, "DE12345", ReasonFormat)
	require.Contains(t, v.Rejection.Hint, "DE followed by exactly 9 digits")
	requireRejected(t, domain.StepLegalVAT, "DE1234567890", ReasonFormat)
	requireRejected(t, domain.StepLegalVAT, "AT123456789", ReasonFormat)
}

func TestValidate_FreeTextSuggestionIntent(t *testing.T) {
	for _, step := range []domain.Step{domain.StepTagline, domain.StepDescription, domain.StepUSP, domain.StepTargetAudience} {
		require.Equal(t, SuggestRequested, Validate(step, "generate me a suggestion").Verdict)
		require.Equal(t, SuggestRequested, Validate(step, "Kannst du mir einen Vorschlag machen?").Verdict)
		require.Equal(t, SuggestRequested, Validate(step, "AI please").Verdict)
		requireAccepted(t, step, "Fresh pasta every day", "Fresh pasta every day")
		requireRejected(t, step, "", ReasonRequired)
	}
}

func TestValidate_CopyWithIntentWordsIsAnAnswer(t *testing.T) {
	texts := []string{
		"We help you relax",
		"Write your story with us",
		"Fresh AI-free bread",
		"We help families since 1990",
		"KI-Beratung für den Mittelstand",
		"Help for every bike, every day, in every weather, since our family opened the shop",
	}
	for _, step := range []domain.Step{domain.StepTagline, domain.StepDescription, domain.StepUSP, domain.StepTargetAudience} {
		for _, text := range texts {
			requireAccepted(t, step, text, text)
		}
	}
	requireAccepted(t, domain.StepTopServices, "Write your story with us", "Write your story with us")

	for _, request := range []string{"suggest", "help", "Please write me a tagline!", "bitte einen Vorschlag", "can you generate something?"} {
		require.True(t, WantsSuggestion(request), request)
	}
}

func TestValidate_Choices(t *testing.T) {
	requireAccepted(t, domain.StepColorScheme, "Ocean", "ocean")
	requireRejected(t, domain.StepColorScheme, "neon", ReasonUnknown)
	requireAccepted(t, domain.StepHeadlineFont, "SERIF", "serif")
	requireAccepted(t, domain.StepLogo, "Text", valueText)
	requireAccepted(t, domain.StepLogo, "https://cdn.example.com/logo.png", "https://cdn.example.com/logo.png")
	requireRejected(t, domain.StepLogo, "http://insecure.example.com/logo.png", ReasonFormat)
	requireAccepted(t, domain.StepHeroImage, "skip", "")
	requireRejected(t, domain.StepHeroImage, "not a url", ReasonFormat)
	requireAccepted(t, domain.StepBusinessCategory, "Restaurant", "Restaurant")
}

func TestValidate_AddOns(t *testing.T) {
	requireAccepted(t, domain.StepAddOns, "menu, Kontaktformular", "contactForm,menu")
	requireAccepted(t, domain.StepAddOns, "price list + gallery", "gallery,priceList")
	requireAccepted(t, domain.StepAddOns, "none", "")
	requireRejected(t, domain.StepAddOns, "menu, webshop", ReasonUnknown)
}

func TestValidate_Services(t *testing.T) {
	requireAccepted(t, domain.StepTopServices, "- Haircut: Wash and cut\nColoring", "Haircut: Wash and cut\nColoring")
	requireAccepted(t, domain.StepTopServices, "skip", valueSkip)
	requireAccepted(t, domain.StepTopServices, "keep", valueKeep)
	require.Equal(t, SuggestRequested, Validate(domain.StepTopServices, "suggest services").Verdict)
	requireAccepted(t, domain.StepTopServices, "Coaching: we help you grow", "Coaching: we help you grow")
	requireRejected(t, domain.StepTopServices, ": no title", ReasonRequired)
}

func TestValidate_Categories(t *testing.T) {
	in := "# Pizza\nMargherita | Tomato, mozzarella | 9,50 €\nSalami||11\n# Drinks\nWater"
	want := "# Pizza\nMargherita | Tomato, mozzarella | 9.50\nSalami |  | 11\n# Drinks\nWater |  | "
	requireAccepted(t, domain.StepMenuEditor, in, want)
	requireAccepted(t, domain.StepPriceListEditor, "skip", "")
	requireRejected(t, domain.StepMenuEditor, "a | b | c | d", ReasonFormat)

	categories, ok := parseCategories(want)
	require.True(t, ok)
	require.Equal(t, want, formatCategories(categories))
}

func TestValidate_SubPages(t *testing.T) {
	requireAccepted(t, domain.StepSubPages, "Team: who we are\nJobs", "Team: who we are\nJobs")
	requireAccepted(t, domain.StepSubPages, "none", "")

	pages := parseSubPages("Über uns\nÜber uns: again")
	require.Len(t, pages, 2)
	require.Equal(t, "ueber-uns", pages[0].ID)
	require.Equal(t, "ueber-uns-2", pages[1].ID)
}

func TestValidate_LegalConfirmAndCheckout(t *testing.T) {
	requireAccepted(t, domain.StepLegalConfirm, "Ja", valueYes)
	requireAccepted(t, domain.StepLegalConfirm, "ändern", valueEdit)
	requireRejected(t, domain.StepLegalConfirm, "maybe", ReasonUnknown)
	requireRejected(t, domain.StepCheckout, "pay", ReasonNotEditable)
}
