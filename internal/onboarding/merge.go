package onboarding

import (
	"site-onboarding/internal/domain"
)

// stepFields lists the state fields each step writes.
func stepFields(step domain.Step) []string {
	switch step {
	case domain.StepBusinessCategory:
		return []string{domain.FieldBusinessCategory}
	case domain.StepColorScheme:
		return []string{domain.FieldColorScheme}
	case domain.StepLogo:
		return []string{domain.FieldLogo}
	case domain.StepHeadlineFont:
		return []string{domain.FieldHeadlineFont}
	case domain.StepHeroImage:
		return []string{domain.FieldHeroImageURL}
	case domain.StepTagline:
		return []string{domain.FieldTagline}
	case domain.StepDescription:
		return []string{domain.FieldDescription}
	case domain.StepUSP:
		return []string{domain.FieldUSP}
	case domain.StepTopServices:
		return []string{domain.FieldServices, domain.FieldTopServicesSkipped}
	case domain.StepTargetAudience:
		return []string{domain.FieldTargetAudience}
	case domain.StepAboutImage:
		return []string{domain.FieldAboutImageURL}
	case domain.StepAddOns:
		return []string{domain.FieldAddOns}
	case domain.StepMenuEditor:
		return []string{domain.FieldMenu}
	case domain.StepPriceListEditor:
		return []string{domain.FieldPriceList}
	case domain.StepSubPages:
		return []string{domain.FieldSubPages}
	case domain.StepLegalOwner:
		return []string{domain.FieldLegalOwner}
	case domain.StepLegalStreet:
		return []string{domain.FieldLegalStreet}
	case domain.StepLegalZipCity:
		return []string{domain.FieldLegalZip, domain.FieldLegalCity}
	case domain.StepLegalEmail:
		return []string{domain.FieldLegalEmail}
	case domain.StepLegalPhone:
		return []string{domain.FieldLegalPhone}
	case domain.StepLegalVAT:
		return []string{domain.FieldLegalVAT}
	case domain.StepLegalConfirm:
		return []string{domain.FieldLegalConfirmed}
	default:
		return nil
	}
}

// merge writes the normalized value accepted for step into state.
func merge(state *domain.State, step domain.Step, value string) {
	switch step {
	case domain.StepBusinessCategory:
		state.BusinessCategory = value
	case domain.StepColorScheme:
		state.ColorScheme = value
	case domain.StepLogo:
		if value == valueText {
			state.Logo = domain.Logo{UseText: true}
		} else {
			state.Logo = domain.Logo{ImageURL: value}
		}
	case domain.StepHeadlineFont:
		state.HeadlineFont = value
	case domain.StepHeroImage:
		state.HeroImageURL = value
	case domain.StepTagline:
		state.Tagline = value
	case domain.StepDescription:
		state.Description = value
	case domain.StepUSP:
		state.USP = value
	case domain.StepTopServices:
		switch value {
		case valueSkip:
			state.TopServicesSkipped = true
		case valueKeep:
			state.TopServicesSkipped = false
		default:
			state.Services = parseServices(value)
			state.TopServicesSkipped = false
		}
	case domain.StepTargetAudience:
		state.TargetAudience = value
	case domain.StepAboutImage:
		state.AboutImageURL = value
	case domain.StepAddOns:
		state.AddOns = parseAddOnKeys(value)
	case domain.StepMenuEditor:
		state.MenuCategories, _ = parseCategories(value)
	case domain.StepPriceListEditor:
		state.PriceCategories, _ = parseCategories(value)
	case domain.StepSubPages:
		state.SubPages = parseSubPages(value)
	case domain.StepLegalOwner:
		state.LegalOwner = value
	case domain.StepLegalStreet:
		state.LegalStreet = value
	case domain.StepLegalZipCity:
		state.LegalZip, state.LegalCity, _ = splitZipCity(value)
	case domain.StepLegalEmail:
		state.LegalEmail = value
	case domain.StepLegalPhone:
		state.LegalPhone = value
	case domain.StepLegalVAT:
		state.LegalVAT = value
	case domain.StepLegalConfirm:
		state.LegalConfirmed = value == valueYes
	default:
		return
	}
	state.MarkEdited(stepFields(step)...)
}

// patchFor returns the fields written by step with their current values.
func patchFor(state *domain.State, step domain.Step) map[string]any {
	fields := stepFields(step)
	if len(fields) == 0 {
		return nil
	}
	patch := make(map[string]any, len(fields))
	for _, f := range fields {
		patch[f] = fieldValue(state, f)
	}
	return patch
}

func fieldValue(state *domain.State, field string) any {
	switch field {
	case domain.FieldBusinessName:
		return state.BusinessName
	case domain.FieldBusinessCategory:
		return state.BusinessCategory
	case domain.FieldTagline:
		return state.Tagline
	case domain.FieldDescription:
		return state.Description
	case domain.FieldUSP:
		return state.USP
	case domain.FieldTargetAudience:
		return state.TargetAudience
	case domain.FieldServices:
		return state.Services
	case domain.FieldTopServicesSkipped:
		return state.TopServicesSkipped
	case domain.FieldSubPages:
		return state.SubPages
	case domain.FieldMenu:
		return state.MenuCategories
	case domain.FieldPriceList:
		return state.PriceCategories
	case domain.FieldColorScheme:
		return state.ColorScheme
	case domain.FieldLogo:
		return state.Logo
	case domain.FieldHeadlineFont:
		return state.HeadlineFont
	case domain.FieldHeroImageURL:
		return state.HeroImageURL
	case domain.FieldAboutImageURL:
		return state.AboutImageURL
	case domain.FieldAddOns:
		return state.AddOns
	case domain.FieldLegalOwner:
		return state.LegalOwner
	case domain.FieldLegalStreet:
		return state.LegalStreet
	case domain.FieldLegalZip:
		return state.LegalZip
	case domain.FieldLegalCity:
		return state.LegalCity
	case domain.FieldLegalEmail:
		return state.LegalEmail
	case domain.FieldLegalPhone:
		return state.LegalPhone
	case domain.FieldLegalVAT:
		return state.LegalVAT
	case domain.FieldLegalConfirmed:
		return state.LegalConfirmed
	default:
		return nil
	}
}
