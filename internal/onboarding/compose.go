package onboarding

import (
	"fmt"
	"strings"

	"site-onboarding/internal/domain"
)

const galleryPlaceholders = 6

// Compose derives the preview document from the base document and the collected state.
// It never mutates base; calling it twice with the same inputs yields equal documents.
func Compose(base domain.Document, state domain.State, hidden []domain.SectionType) domain.Document {
	isHidden := make(map[domain.SectionType]bool, len(hidden))
	for _, t := range hidden {
		isHidden[t] = true
	}

	doc := base.Clone()
	if state.BusinessName != "" {
		doc.BusinessName = state.BusinessName
	}
	if state.Tagline != "" {
		doc.Tagline = state.Tagline
	}
	if state.Description != "" {
		doc.Description = state.Description
	}

	sections := make([]domain.Section, 0, len(doc.Sections)+4)
	hasContact := false
	placed := make(map[domain.SectionType]bool, 2)
	for _, sec := range doc.Sections {
		if isHidden[sec.Type] {
			continue
		}
		switch sec.Type {
		case domain.SectionHero:
			patchHero(&sec, state)
		case domain.SectionAbout:
			patchAbout(&sec, state)
		case domain.SectionServices:
			if state.TopServicesSkipped {
				continue
			}
			patchServices(&sec, state)
		case domain.SectionCTA:
			if state.TargetAudience != "" {
				sec.Content = state.TargetAudience
			}
		case domain.SectionContact:
			if hasContact {
				continue
			}
			hasContact = true
		case domain.SectionMenu, domain.SectionPriceList:
			if placed[sec.Type] {
				continue
			}
			placed[sec.Type] = true
			if replacement, ok := addOnSection(sec.Type, state); ok {
				if sec.ID != "" {
					replacement.ID = sec.ID
				}
				sec = replacement
			}
		}
		sections = append(sections, sec)
	}

	for _, t := range []domain.SectionType{domain.SectionMenu, domain.SectionPriceList} {
		if placed[t] || isHidden[t] {
			continue
		}
		if sec, ok := addOnSection(t, state); ok {
			sections = append(sections, sec)
		}
	}
	if state.AddOns.Gallery && !isHidden[domain.SectionGallery] && !containsType(sections, domain.SectionGallery) {
		sections = append(sections, gallerySection())
	}
	if !hasContact && !isHidden[domain.SectionContact] {
		sections = append(sections, contactSection(state))
	}
	doc.Sections = sections

	doc.ColorScheme = state.ColorScheme
	doc.HeadlineFont = state.HeadlineFont
	doc.Logo = nil
	if state.Logo.UseText || state.Logo.ImageURL != "" {
		logo := state.Logo
		doc.Logo = &logo
	}
	return doc
}

// addOnSection builds the menu or price-list section when its add-on is active and
// has content.
func addOnSection(t domain.SectionType, state domain.State) (domain.Section, bool) {
	switch {
	case t == domain.SectionMenu && state.AddOns.Menu && domain.HasContent(state.MenuCategories):
		return categorySection(domain.SectionMenu, "Menu", state.MenuCategories), true
	case t == domain.SectionPriceList && state.AddOns.PriceList && domain.HasContent(state.PriceCategories):
		return categorySection(domain.SectionPriceList, "Prices", state.PriceCategories), true
	default:
		return domain.Section{}, false
	}
}

func patchHero(sec *domain.Section, state domain.State) {
	if state.Tagline != "" {
		sec.Headline = state.Tagline
	}
	if state.Description != "" {
		sec.Subheadline = state.Description
	}
	if state.HeroImageURL != "" {
		sec.ImageURL = state.HeroImageURL
	}
}

func patchAbout(sec *domain.Section, state domain.State) {
	if state.Description != "" {
		sec.Content = state.Description
	}
	if state.BusinessName != "" {
		sec.Headline = "About " + state.BusinessName
	}
	if state.AboutImageURL != "" {
		sec.ImageURL = state.AboutImageURL
	}
}

func patchServices(sec *domain.Section, state domain.State) {
	services := state.FilledServices()
	if len(services) == 0 {
		return
	}
	items := make([]domain.SectionItem, len(services))
	for i, s := range services {
		items[i] = domain.SectionItem{Title: s.Title, Description: s.Description}
	}
	sec.Items = items
}

func categorySection(t domain.SectionType, headline string, categories []domain.Category) domain.Section {
	var items []domain.SectionItem
	for _, c := range categories {
		for _, it := range c.Items {
			items = append(items, domain.SectionItem{
				Title:       it.Name,
				Description: it.Description,
				Price:       it.Price,
				Category:    c.Name,
			})
		}
	}
	return domain.Section{ID: string(t), Type: t, Headline: headline, Items: items}
}

func gallerySection() domain.Section {
	items := make([]domain.SectionItem, galleryPlaceholders)
	for i := range items {
		items[i] = domain.SectionItem{Title: fmt.Sprintf("Image %d", i+1)}
	}
	return domain.Section{ID: string(domain.SectionGallery), Type: domain.SectionGallery, Headline: "Gallery", Items: items}
}

func contactSection(state domain.State) domain.Section {
	sec := domain.Section{ID: string(domain.SectionContact), Type: domain.SectionContact, Headline: "Contact"}
	address := strings.TrimSpace(strings.Join(nonEmpty(state.LegalStreet, strings.TrimSpace(state.LegalZip+" "+state.LegalCity)), ", "))
	sec.Content = address
	if state.LegalPhone != "" {
		sec.Items = append(sec.Items, domain.SectionItem{Title: "Phone", Description: state.LegalPhone})
	}
	if state.LegalEmail != "" {
		sec.Items = append(sec.Items, domain.SectionItem{Title: "Email", Description: state.LegalEmail})
	}
	return sec
}

func containsType(sections []domain.Section, t domain.SectionType) bool {
	for _, s := range sections {
		if s.Type == t {
			return true
		}
	}
	return false
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
