package domain

import "strings"

// Field names used as keys in autosave patches and in the edited-field set.
const (
	FieldBusinessName       = "businessName"
	FieldBusinessCategory   = "businessCategory"
	FieldTagline            = "tagline"
	FieldDescription        = "description"
	FieldUSP                = "usp"
	FieldTargetAudience     = "targetAudience"
	FieldServices           = "services"
	FieldTopServicesSkipped = "topServicesSkipped"
	FieldSubPages           = "subPages"
	FieldMenu               = "menuCategories"
	FieldPriceList          = "priceListCategories"
	FieldColorScheme        = "colorScheme"
	FieldLogo               = "logo"
	FieldHeadlineFont       = "headlineFont"
	FieldHeroImageURL       = "heroImageUrl"
	FieldAboutImageURL      = "aboutImageUrl"
	FieldAddOns             = "addOns"
	FieldLegalOwner         = "legalOwner"
	FieldLegalStreet        = "legalStreet"
	FieldLegalZip           = "legalZip"
	FieldLegalCity          = "legalCity"
	FieldLegalEmail         = "legalEmail"
	FieldLegalPhone         = "legalPhone"
	FieldLegalVAT           = "legalVat"
	FieldLegalConfirmed     = "legalConfirmed"
)

// Service is one entry of the services section.
type Service struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SubPage is an additional named page of the website.
type SubPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LineItem is a menu dish or a price-list entry.
type LineItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// Category groups line items of a menu or price list.
type Category struct {
	Name  string     `json:"name"`
	Items []LineItem `json:"items"`
}

// Logo is the chosen logo: either a text logo or an uploaded image.
type Logo struct {
	UseText  bool   `json:"useText"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// AddOns holds the boolean add-on flags.
type AddOns struct {
	ContactForm bool `json:"contactForm"`
	Gallery     bool `json:"gallery"`
	Menu        bool `json:"menu"`
	PriceList   bool `json:"priceList"`
}

// Enabled reports whether the add-on a is active.
func (a AddOns) Enabled(addOn AddOn) bool {
	switch addOn {
	case AddOnContactForm:
		return a.ContactForm
	case AddOnGallery:
		return a.Gallery
	case AddOnMenu:
		return a.Menu
	case AddOnPriceList:
		return a.PriceList
	default:
		return false
	}
}

// With returns a copy of a with addOn set to on.
func (a AddOns) With(addOn AddOn, on bool) AddOns {
	switch addOn {
	case AddOnContactForm:
		a.ContactForm = on
	case AddOnGallery:
		a.Gallery = on
	case AddOnMenu:
		a.Menu = on
	case AddOnPriceList:
		a.PriceList = on
	}
	return a
}

// Active returns the enabled add-ons in display order.
func (a AddOns) Active() []AddOn {
	var out []AddOn
	for _, addOn := range AllAddOns {
		if a.Enabled(addOn) {
			out = append(out, addOn)
		}
	}
	return out
}

// State is everything collected during one onboarding session. The zero value is valid.
type State struct {
	BusinessName     string `json:"businessName"`
	BusinessCategory string `json:"businessCategory"`
	Tagline          string `json:"tagline"`
	Description      string `json:"description"`
	USP              string `json:"usp"`
	TargetAudience   string `json:"targetAudience"`

	Services           []Service  `json:"services"`
	TopServicesSkipped bool       `json:"topServicesSkipped"`
	SubPages           []SubPage  `json:"subPages"`
	MenuCategories     []Category `json:"menuCategories"`
	PriceCategories    []Category `json:"priceListCategories"`

	ColorScheme   string `json:"colorScheme"`
	Logo          Logo   `json:"logo"`
	HeadlineFont  string `json:"headlineFont"`
	HeroImageURL  string `json:"heroImageUrl"`
	AboutImageURL string `json:"aboutImageUrl"`

	AddOns AddOns `json:"addOns"`

	LegalOwner     string `json:"legalOwner"`
	LegalStreet    string `json:"legalStreet"`
	LegalZip       string `json:"legalZip"`
	LegalCity      string `json:"legalCity"`
	LegalEmail     string `json:"legalEmail"`
	LegalPhone     string `json:"legalPhone"`
	LegalVAT       string `json:"legalVat"`
	LegalConfirmed bool   `json:"legalConfirmed"`

	// Edited holds the fields the user has answered; prefill never touches them.
	Edited map[string]bool `json:"edited,omitempty"`
}

// MarkEdited records that the user supplied a value for each field.
func (s *State) MarkEdited(fields ...string) {
	if s.Edited == nil {
		s.Edited = make(map[string]bool, len(fields))
	}
	for _, f := range fields {
		s.Edited[f] = true
	}
}

// IsEdited reports whether the user supplied field.
func (s *State) IsEdited(field string) bool {
	return s.Edited[field]
}

// NamedSubPages returns the sub-pages that carry a non-empty name.
func (s *State) NamedSubPages() []SubPage {
	var out []SubPage
	for _, p := range s.SubPages {
		if strings.TrimSpace(p.Name) != "" {
			out = append(out, p)
		}
	}
	return out
}

// FilledServices returns the services with a non-empty title.
func (s *State) FilledServices() []Service {
	var out []Service
	for _, svc := range s.Services {
		if strings.TrimSpace(svc.Title) != "" {
			out = append(out, svc)
		}
	}
	return out
}

// CheckoutReady reports whether all legal fields are present and consent was given.
func (s *State) CheckoutReady() bool {
	required := []string{s.LegalOwner, s.LegalStreet, s.LegalZip, s.LegalCity, s.LegalEmail, s.LegalPhone}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return s.LegalConfirmed
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Services = append([]Service(nil), s.Services...)
	out.SubPages = append([]SubPage(nil), s.SubPages...)
	out.MenuCategories = cloneCategories(s.MenuCategories)
	out.PriceCategories = cloneCategories(s.PriceCategories)
	if s.Edited != nil {
		out.Edited = make(map[string]bool, len(s.Edited))
		for k, v := range s.Edited {
			out.Edited[k] = v
		}
	}
	return out
}

// HasContent reports whether at least one category has a name or an item.
func HasContent(categories []Category) bool {
	for _, c := range categories {
		if strings.TrimSpace(c.Name) != "" || len(c.Items) > 0 {
			return true
		}
	}
	return false
}

func cloneCategories(in []Category) []Category {
	if in == nil {
		return nil
	}
	out := make([]Category, len(in))
	for i, c := range in {
		out[i] = Category{Name: c.Name, Items: append([]LineItem(nil), c.Items...)}
	}
	return out
}
