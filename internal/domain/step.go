package domain

// Step identifies one stage of the onboarding conversation.
type Step string

const (
	StepBusinessCategory Step = "businessCategory"
	StepColorScheme      Step = "colorScheme"
	StepLogo             Step = "logo"
	StepHeadlineFont     Step = "headlineFont"
	StepHeroImage        Step = "heroImage"
	StepTagline          Step = "tagline"
	StepDescription      Step = "description"
	StepUSP              Step = "usp"
	StepTopServices      Step = "topServices"
	StepTargetAudience   Step = "targetAudience"
	StepAboutImage       Step = "aboutImage"
	StepAddOns           Step = "addons"
	StepMenuEditor       Step = "menuEditor"
	StepPriceListEditor  Step = "priceListEditor"
	StepSubPages         Step = "subPages"
	StepLegalOwner       Step = "legalOwner"
	StepLegalStreet      Step = "legalStreet"
	StepLegalZipCity     Step = "legalZipCity"
	StepLegalEmail       Step = "legalEmail"
	StepLegalPhone       Step = "legalPhone"
	StepLegalVAT         Step = "legalVat"
	StepLegalConfirm     Step = "legalConfirm"
	StepCheckout         Step = "checkout"
)

// StepOrder is the static order of the onboarding conversation.
var StepOrder = []Step{
	StepBusinessCategory,
	StepColorScheme,
	StepLogo,
	StepHeadlineFont,
	StepHeroImage,
	StepTagline,
	StepDescription,
	StepUSP,
	StepTopServices,
	StepTargetAudience,
	StepAboutImage,
	StepAddOns,
	StepMenuEditor,
	StepPriceListEditor,
	StepSubPages,
	StepLegalOwner,
	StepLegalStreet,
	StepLegalZipCity,
	StepLegalEmail,
	StepLegalPhone,
	StepLegalVAT,
	StepLegalConfirm,
	StepCheckout,
}

// Valid reports whether s is one of the known steps.
func (s Step) Valid() bool {
	for _, known := range StepOrder {
		if s == known {
			return true
		}
	}
	return false
}

// IsLegal reports whether s belongs to the legal-data group that may be reopened.
func (s Step) IsLegal() bool {
	switch s {
	case StepLegalOwner, StepLegalStreet, StepLegalZipCity, StepLegalEmail, StepLegalPhone, StepLegalVAT:
		return true
	default:
		return false
	}
}

// AddOn is an optional paid feature toggled during onboarding.
type AddOn string

const (
	AddOnContactForm AddOn = "contactForm"
	AddOnGallery     AddOn = "gallery"
	AddOnMenu        AddOn = "menu"
	AddOnPriceList   AddOn = "priceList"
)

// AllAddOns lists the boolean add-ons in display order.
var AllAddOns = []AddOn{AddOnContactForm, AddOnGallery, AddOnMenu, AddOnPriceList}

// ParseAddOn maps a user or API supplied key to an AddOn.
func ParseAddOn(key string) (AddOn, bool) {
	for _, a := range AllAddOns {
		if string(a) == key {
			return a, true
		}
	}
	return "", false
}
