package domain

// SectionType is the kind of a content section.
type SectionType string

const (
	SectionHero      SectionType = "hero"
	SectionAbout     SectionType = "about"
	SectionServices  SectionType = "services"
	SectionCTA       SectionType = "cta"
	SectionMenu      SectionType = "menu"
	SectionPriceList SectionType = "pricelist"
	SectionGallery   SectionType = "gallery"
	SectionContact   SectionType = "contact"
)

// KnownSectionTypes lists the section types the compositor patches.
var KnownSectionTypes = []SectionType{
	SectionHero, SectionAbout, SectionServices, SectionCTA,
	SectionMenu, SectionPriceList, SectionGallery, SectionContact,
}

// ParseSectionType maps a string to a known SectionType.
func ParseSectionType(s string) (SectionType, bool) {
	for _, t := range KnownSectionTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// SectionItem is one entry of a list-like section.
type SectionItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Section is one block of a content document.
type Section struct {
	ID          string        `json:"id"`
	Type        SectionType   `json:"type"`
	Headline    string        `json:"headline,omitempty"`
	Subheadline string        `json:"subheadline,omitempty"`
	Content     string        `json:"content,omitempty"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Items       []SectionItem `json:"items,omitempty"`
}

// Document is a generated or patched website content document.
type Document struct {
	BusinessName string    `json:"businessName"`
	Tagline      string    `json:"tagline"`
	Description  string    `json:"description"`
	Sections     []Section `json:"sections"`

	// Auxiliary selections attached by the preview compositor.
	ColorScheme  string `json:"colorScheme,omitempty"`
	Logo         *Logo  `json:"logo,omitempty"`
	HeadlineFont string `json:"headlineFont,omitempty"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := d
	if d.Sections != nil {
		out.Sections = make([]Section, len(d.Sections))
		for i, s := range d.Sections {
			out.Sections[i] = s.Clone()
		}
	}
	if d.Logo != nil {
		logo := *d.Logo
		out.Logo = &logo
	}
	return out
}

// Clone returns a deep copy of s.
func (s Section) Clone() Section {
	out := s
	if s.Items != nil {
		out.Items = append([]SectionItem(nil), s.Items...)
	}
	return out
}

// SectionsOf returns the sections of type t.
func (d Document) SectionsOf(t SectionType) []Section {
	var out []Section
	for _, s := range d.Sections {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// Identity is the business identity used to request a base document.
type Identity struct {
	BusinessName string `json:"businessName"`
	Category     string `json:"category"`
	City         string `json:"city,omitempty"`
}

// DirectoryFacts are business facts returned by the directory lookup.
type DirectoryFacts struct {
	BusinessName string `json:"businessName"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Category     string `json:"category"`
}
