package onboarding

import (
	"strings"

	"site-onboarding/internal/domain"
)

// prefillFromDocument copies identity and services from a generated document into
// fields the user has not answered yet.
func prefillFromDocument(state *domain.State, doc domain.Document) {
	hero := firstSection(doc, domain.SectionHero)
	about := firstSection(doc, domain.SectionAbout)

	fillText(state, domain.FieldBusinessName, &state.BusinessName, doc.BusinessName)
	fillText(state, domain.FieldTagline, &state.Tagline, firstNonEmpty(doc.Tagline, hero.Headline))
	fillText(state, domain.FieldDescription, &state.Description, firstNonEmpty(doc.Description, hero.Subheadline, about.Content))

	if !state.IsEdited(domain.FieldServices) && len(state.FilledServices()) == 0 {
		services := firstSection(doc, domain.SectionServices)
		for _, it := range services.Items {
			if strings.TrimSpace(it.Title) == "" {
				continue
			}
			state.Services = append(state.Services, domain.Service{Title: it.Title, Description: it.Description})
		}
	}
}

// prefillFromDirectory copies business-directory facts into unanswered fields.
func prefillFromDirectory(state *domain.State, facts domain.DirectoryFacts) {
	fillText(state, domain.FieldBusinessName, &state.BusinessName, facts.BusinessName)
	fillText(state, domain.FieldBusinessCategory, &state.BusinessCategory, facts.Category)
	fillText(state, domain.FieldLegalPhone, &state.LegalPhone, facts.Phone)
	fillText(state, domain.FieldLegalEmail, &state.LegalEmail, facts.Email)

	street, zip, city := SplitAddress(facts.Address)
	fillText(state, domain.FieldLegalStreet, &state.LegalStreet, street)
	if !state.IsEdited(domain.FieldLegalZip) && state.LegalZip == "" && state.LegalCity == "" {
		state.LegalZip, state.LegalCity = zip, city
	}
}

// SplitAddress splits a formatted postal address such as
// "Hauptstraße 5, 10115 Berlin, Germany" into street, zip and city.
func SplitAddress(address string) (street, zip, city string) {
	parts := strings.Split(address, ",")
	for i, p := range parts {
		z, c, ok := splitZipCity(p)
		if !ok {
			continue
		}
		if i > 0 {
			street = strings.Join(strings.Fields(parts[i-1]), " ")
		}
		return street, z, c
	}
	if len(parts) > 0 {
		street = strings.Join(strings.Fields(parts[0]), " ")
	}
	return street, "", ""
}

func fillText(state *domain.State, field string, dst *string, value string) {
	value = strings.TrimSpace(value)
	if value == "" || state.IsEdited(field) || strings.TrimSpace(*dst) != "" {
		return
	}
	*dst = value
}

func firstSection(doc domain.Document, t domain.SectionType) domain.Section {
	for _, s := range doc.Sections {
		if s.Type == t {
			return s
		}
	}
	return domain.Section{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
