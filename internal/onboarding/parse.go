package onboarding

import (
	"strconv"
	"strings"

	"site-onboarding/internal/domain"
)

var umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

func lines(input string) []string {
	var out []string
	for _, l := range strings.Split(input, "\n") {
		l = strings.TrimSpace(strings.TrimRight(l, "\r"))
		l = strings.TrimSpace(strings.TrimLeft(l, "-*•"))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func splitPair(line string) (string, string) {
	name, desc, _ := strings.Cut(line, ":")
	return strings.TrimSpace(name), strings.TrimSpace(desc)
}

func parseServices(input string) []domain.Service {
	var out []domain.Service
	for _, l := range lines(input) {
		title, desc := splitPair(l)
		if title == "" {
			continue
		}
		out = append(out, domain.Service{Title: title, Description: desc})
	}
	return out
}

func formatServices(services []domain.Service) string {
	parts := make([]string, 0, len(services))
	for _, s := range services {
		if s.Description == "" {
			parts = append(parts, s.Title)
			continue
		}
		parts = append(parts, s.Title+": "+s.Description)
	}
	return strings.Join(parts, "\n")
}

func parseSubPages(input string) []domain.SubPage {
	var out []domain.SubPage
	seen := make(map[string]int)
	for _, l := range lines(input) {
		name, desc := splitPair(l)
		if name == "" {
			continue
		}
		id := slug(name)
		seen[id]++
		if n := seen[id]; n > 1 {
			id += "-" + strconv.Itoa(n)
		}
		out = append(out, domain.SubPage{ID: id, Name: name, Description: desc})
	}
	return out
}

func formatSubPages(pages []domain.SubPage) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Description == "" {
			parts = append(parts, p.Name)
			continue
		}
		parts = append(parts, p.Name+": "+p.Description)
	}
	return strings.Join(parts, "\n")
}

// parseCategories reads "# Category" headers followed by "Name | description | price"
// lines. Items before the first header belong to an unnamed category.
func parseCategories(input string) ([]domain.Category, bool) {
	var out []domain.Category
	for _, l := range strings.Split(input, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, "#") {
			out = append(out, domain.Category{Name: strings.TrimSpace(strings.TrimLeft(l, "#"))})
			continue
		}
		parts := strings.Split(l, "|")
		if len(parts) > 3 {
			return nil, false
		}
		item := domain.LineItem{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			item.Description = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			item.Price = normalizePrice(parts[2])
		}
		if item.Name == "" {
			return nil, false
		}
		if len(out) == 0 {
			out = append(out, domain.Category{})
		}
		last := &out[len(out)-1]
		last.Items = append(last.Items, item)
	}
	return out, true
}

func formatCategories(categories []domain.Category) string {
	var b strings.Builder
	for _, c := range categories {
		if c.Name == "" && len(c.Items) == 0 {
			continue
		}
		if c.Name != "" {
			b.WriteString("# " + c.Name + "\n")
		}
		for _, it := range c.Items {
			b.WriteString(it.Name + " | " + it.Description + " | " + it.Price + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func normalizePrice(raw string) string {
	p := strings.TrimSpace(raw)
	p = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(p, "€"), "EUR"))
	return strings.ReplaceAll(p, ",", ".")
}

func formatAddOns(a domain.AddOns) string {
	active := a.Active()
	keys := make([]string, len(active))
	for i, addOn := range active {
		keys[i] = string(addOn)
	}
	return strings.Join(keys, ",")
}

func parseAddOnKeys(value string) domain.AddOns {
	var out domain.AddOns
	for _, key := range strings.Split(value, ",") {
		if addOn, ok := domain.ParseAddOn(strings.TrimSpace(key)); ok {
			out = out.With(addOn, true)
		}
	}
	return out
}

func slug(name string) string {
	s := umlauts.Replace(strings.ToLower(name))
	var b strings.Builder
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "page"
	}
	return out
}
