package onboarding

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"site-onboarding/internal/domain"
)

// Verdict is the result class of a validation.
type Verdict int

const (
	Accepted Verdict = iota
	Rejected
	SuggestRequested
)

// Rejection reasons.
const (
	ReasonRequired    = "required"
	ReasonFormat      = "format"
	ReasonFullName    = "full_name"
	ReasonHouseNumber = "house_number"
	ReasonUnknown     = "unknown_option"
	ReasonNotEditable = "not_editable"
)

// Rejection explains why raw input was not accepted.
type Rejection struct {
	Reason string `json:"reason"`
	Hint   string `json:"hint"`
}

// Validation is the outcome of validating raw input for a step.
type Validation struct {
	Verdict   Verdict
	Value     string
	Rejection Rejection
}

// Reserved normalized values.
const (
	valueSkip = "skip"
	valueKeep = "keep"
	valueYes  = "yes"
	valueEdit = "edit"
	valueText = "text"
)

var (
	zipCityPattern  = regexp.MustCompile(`^(\d{5})\s+(\S.*)$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	vatPattern      = regexp.MustCompile(`^DE\d{9}$`)
	digitPattern    = regexp.MustCompile(`\d`)
	aiIntentPattern = regexp.MustCompile(`^(suggest\w*|generate\w*|write|help|ai|ki|vorschl\w*|generier\w*|schreib\w*|hilf\w*|formulier\w*)$`)
)

var (
	noVATAnswers  = []string{"", "nein", "no", "none", "keine", "-", "kleinunternehmer"}
	noneAnswers   = []string{"none", "no", "nein", "keine", "nichts", "-"}
	skipAnswers   = []string{"skip", "überspringen", "ueberspringen", "später", "spaeter", "nein", "no"}
	keepAnswers   = []string{"keep", "ok", "okay", "passt", "übernehmen", "uebernehmen"}
	yesAnswers    = []string{"yes", "y", "ja", "j", "ok", "okay", "passt", "korrekt", "stimmt", "bestätigen", "bestaetigen"}
	editAnswers   = []string{"edit", "ändern", "aendern", "bearbeiten", "korrigieren", "change"}
	textLogoWords = []string{"text", "textlogo", "text logo", "schriftzug", "name"}

	// requestWords may surround an intent keyword in a suggestion request.
	requestWords = []string{
		"please", "pls", "bitte", "can", "could", "would", "you", "kannst", "könntest", "koenntest", "du",
		"me", "mir", "us", "uns", "one", "a", "an", "some", "something", "etwas", "was", "einen", "eine", "ein",
		"suggestion", "idea", "ideas", "text", "tagline", "slogan", "description", "beschreibung",
		"usp", "audience", "zielgruppe", "services", "service", "leistungen", "for", "für", "fuer", "it", "the",
		"my", "our", "meine", "unsere", "new", "neue", "neuen", "make", "machen", "mach", "give", "gib",
	}
)

const maxRequestWords = 8

// ColorSchemes are the selectable color schemes.
var ColorSchemes = []string{"ocean", "forest", "sunset", "slate", "berry", "sand"}

// HeadlineFonts are the selectable headline fonts.
var HeadlineFonts = []string{"serif", "sans", "display", "handwritten"}

var addOnAliases = map[string]domain.AddOn{
	"contactform":     domain.AddOnContactForm,
	"contact form":    domain.AddOnContactForm,
	"contact":         domain.AddOnContactForm,
	"kontaktformular": domain.AddOnContactForm,
	"gallery":         domain.AddOnGallery,
	"galerie":         domain.AddOnGallery,
	"menu":            domain.AddOnMenu,
	"speisekarte":     domain.AddOnMenu,
	"pricelist":       domain.AddOnPriceList,
	"price list":      domain.AddOnPriceList,
	"preisliste":      domain.AddOnPriceList,
}

// Validate checks raw input for step and returns the normalized value, a rejection,
// or a request for an AI suggestion.
func Validate(step domain.Step, raw string) Validation {
	input := strings.TrimSpace(raw)
	switch step {
	case domain.StepBusinessCategory:
		return requireText(input)
	case domain.StepColorScheme:
		return oneOf(input, ColorSchemes)
	case domain.StepHeadlineFont:
		return oneOf(input, HeadlineFonts)
	case domain.StepLogo:
		if matchesAny(input, textLogoWords) {
			return accept(valueText)
		}
		return validateImageURL(input, false)
	case domain.StepHeroImage, domain.StepAboutImage:
		return validateImageURL(input, true)
	case domain.StepTagline, domain.StepDescription, domain.StepUSP, domain.StepTargetAudience:
		if WantsSuggestion(input) {
			return Validation{Verdict: SuggestRequested}
		}
		return requireText(input)
	case domain.StepTopServices:
		return validateServices(input)
	case domain.StepAddOns:
		return validateAddOns(input)
	case domain.StepMenuEditor, domain.StepPriceListEditor:
		return validateCategories(input)
	case domain.StepSubPages:
		return validateSubPages(input)
	case domain.StepLegalOwner:
		return validateFullName(input)
	case domain.StepLegalStreet:
		return validateStreet(input)
	case domain.StepLegalZipCity:
		return validateZipCity(input)
	case domain.StepLegalEmail:
		return validateEmail(input)
	case domain.StepLegalPhone:
		return requireText(input)
	case domain.StepLegalVAT:
		return validateVAT(input)
	case domain.StepLegalConfirm:
		switch {
		case matchesAny(input, editAnswers):
			return accept(valueEdit)
		case matchesAny(input, yesAnswers):
			return accept(valueYes)
		}
		return reject(ReasonUnknown, "Reply yes to confirm or edit to change your details.")
	default:
		return reject(ReasonNotEditable, "This step takes no typed answer.")
	}
}

// WantsSuggestion reports whether input asks for a generated text instead of
// providing one: a short input made of an intent keyword and request words.
func WantsSuggestion(input string) bool {
	words := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 || len(words) > maxRequestWords {
		return false
	}
	intent := false
	for _, w := range words {
		switch {
		case aiIntentPattern.MatchString(w):
			intent = true
		case !matchesAny(w, requestWords):
			return false
		}
	}
	return intent
}

func accept(value string) Validation {
	return Validation{Verdict: Accepted, Value: value}
}

func reject(reason, hint string) Validation {
	return Validation{Verdict: Rejected, Rejection: Rejection{Reason: reason, Hint: hint}}
}

func requireText(input string) Validation {
	if input == "" {
		return reject(ReasonRequired, "Please enter a value.")
	}
	return accept(input)
}

func oneOf(input string, options []string) Validation {
	for _, o := range options {
		if strings.EqualFold(input, o) {
			return accept(o)
		}
	}
	return reject(ReasonUnknown, "Choose one of: "+strings.Join(options, ", "))
}

func validateImageURL(input string, skippable bool) Validation {
	if skippable && matchesAny(input, skipAnswers) {
		return accept("")
	}
	u, err := url.Parse(input)
	if input == "" || err != nil || u.Scheme != "https" || u.Host == "" {
		return reject(ReasonFormat, "Upload an image or paste an https link.")
	}
	return accept(u.String())
}

func validateServices(input string) Validation {
	switch {
	case matchesAny(input, skipAnswers):
		return accept(valueSkip)
	case matchesAny(input, keepAnswers):
		return accept(valueKeep)
	case !strings.Contains(input, ":") && WantsSuggestion(input):
		return Validation{Verdict: SuggestRequested}
	}
	services := parseServices(input)
	if len(services) == 0 {
		return reject(ReasonRequired, "List at least one service, one per line as Title: description.")
	}
	return accept(formatServices(services))
}

func validateAddOns(input string) Validation {
	if matchesAny(input, noneAnswers) {
		return accept("")
	}
	selected := domain.AddOns{}
	for _, token := range splitList(input) {
		addOn, ok := lookupAddOn(token)
		if !ok {
			return reject(ReasonUnknown, "Unknown add-on "+token+". Choose from contact form, gallery, menu, price list or none.")
		}
		selected = selected.With(addOn, true)
	}
	return accept(formatAddOns(selected))
}

func validateCategories(input string) Validation {
	if matchesAny(input, skipAnswers) {
		return accept("")
	}
	categories, ok := parseCategories(input)
	if !ok || !domain.HasContent(categories) {
		return reject(ReasonFormat, "Use # Category lines followed by Name | description | price lines.")
	}
	return accept(formatCategories(categories))
}

func validateSubPages(input string) Validation {
	if matchesAny(input, noneAnswers) {
		return accept("")
	}
	pages := parseSubPages(input)
	if len(pages) == 0 {
		return reject(ReasonRequired, "Name at least one page, one per line as Name: description, or reply none.")
	}
	return accept(formatSubPages(pages))
}

func validateFullName(input string) Validation {
	tokens := strings.Fields(input)
	if len(tokens) < 2 {
		return reject(ReasonFullName, "Please enter first and last name.")
	}
	return accept(strings.Join(tokens, " "))
}

func validateStreet(input string) Validation {
	if input == "" {
		return reject(ReasonRequired, "Please enter street and house number.")
	}
	if !digitPattern.MatchString(input) {
		return reject(ReasonHouseNumber, "Please include the house number.")
	}
	return accept(strings.Join(strings.Fields(input), " "))
}

func validateZipCity(input string) Validation {
	zip, city, ok := splitZipCity(input)
	if !ok {
		return reject(ReasonFormat, "Use the format 12345 City.")
	}
	return accept(zip + " " + city)
}

// splitZipCity parses a "zip city" composite into its parts.
func splitZipCity(input string) (zip, city string, ok bool) {
	m := zipCityPattern.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return "", "", false
	}
	return m[1], strings.Join(strings.Fields(m[2]), " "), true
}

func validateEmail(input string) Validation {
	if !emailPattern.MatchString(input) {
		return reject(ReasonFormat, "Please enter a valid email address like name@example.com.")
	}
	return accept(input)
}

func validateVAT(input string) Validation {
	if matchesAny(input, noVATAnswers) {
		return accept("")
	}
	normalized := strings.ToUpper(strings.Join(strings.Fields(input), ""))
	if !vatPattern.MatchString(normalized) {
		return reject(ReasonFormat, "Expected DE followed by exactly 9 digits, or no if you have none.")
	}
	return accept(normalized)
}

func matchesAny(input string, answers []string) bool {
	for _, a := range answers {
		if strings.EqualFold(input, a) {
			return true
		}
	}
	return false
}

func splitList(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '+'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func lookupAddOn(token string) (domain.AddOn, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(token), " "))
	if a, ok := addOnAliases[key]; ok {
		return a, true
	}
	for _, a := range domain.AllAddOns {
		if strings.EqualFold(token, string(a)) {
			return a, true
		}
	}
	return "", false
}
