package openai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"site-onboarding/internal/domain"
)

type documentResponse struct {
	BusinessName string            `json:"business_name"`
	Tagline      string            `json:"tagline"`
	Description  string            `json:"description"`
	Sections     []sectionResponse `json:"sections"`
}

type sectionResponse struct {
	Type        string         `json:"type"`
	Headline    string         `json:"headline"`
	Subheadline string         `json:"subheadline"`
	Content     string         `json:"content"`
	Items       []itemResponse `json:"items"`
}

type itemResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type textResponse struct {
	Text string `json:"text"`
}

type servicesResponse struct {
	Services []itemResponse `json:"services"`
}

func documentMessages(identity domain.Identity) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: strings.Join([]string{
			"Role:",
			"You write the content of a one-page website for a small local business.",
			"",
			"Rules:",
			"1) Write in the language a local customer of the business would expect.",
			"2) Keep headlines under 8 words and paragraphs under 60 words.",
			"3) Produce exactly one section each of type hero, about, services, cta and contact, in that order.",
			"4) The services section lists 3 to 5 typical services with a one-sentence description each.",
			"5) Do not invent prices, phone numbers, addresses or opening hours.",
			"",
			"Output Contract:",
			"Return JSON only, matching the provided schema.",
		}, "\n")},
		{Role: "user", Content: identityBrief(identity)},
	}
}

func textMessages(field, brief string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: strings.Join([]string{
			"Role:",
			"You help a small business owner fill in their website.",
			"",
			"Task:",
			fmt.Sprintf("Propose a value for the field %q.", field),
			fieldGuidance(field),
			"",
			"Output Contract:",
			"Return JSON only with the key text (string).",
		}, "\n")},
		{Role: "user", Content: normalizeBrief(brief)},
	}
}

func servicesMessages(brief string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: strings.Join([]string{
			"Role:",
			"You help a small business owner fill in their website.",
			"",
			"Task:",
			"Propose 3 to 5 services the business most likely offers, each with a one-sentence description.",
			"",
			"Output Contract:",
			"Return JSON only with the key services (array of objects with title and description).",
		}, "\n")},
		{Role: "user", Content: normalizeBrief(brief)},
	}
}

func fieldGuidance(field string) string {
	switch field {
	case domain.FieldTagline:
		return "A tagline is one short, memorable sentence of at most 10 words."
	case domain.FieldDescription:
		return "A description is two or three sentences introducing the business."
	case domain.FieldUSP:
		return "A unique selling point is one sentence on what sets the business apart."
	case domain.FieldTargetAudience:
		return "Describe the typical customers in one sentence."
	default:
		return "Keep it short."
	}
}

func identityBrief(identity domain.Identity) string {
	lines := []string{"Business: " + strings.TrimSpace(identity.BusinessName)}
	if c := strings.TrimSpace(identity.Category); c != "" {
		lines = append(lines, "Category: "+c)
	}
	if c := strings.TrimSpace(identity.City); c != "" {
		lines = append(lines, "City: "+c)
	}
	return strings.Join(lines, "\n")
}

func normalizeBrief(brief string) string {
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return "No details yet."
	}
	return brief
}

func schemaFormat(name, schema string) *responseFormat {
	return &responseFormat{
		Type: "json_schema",
		JSONSchema: jsonSchemaConfig{
			Name:   name,
			Strict: true,
			Schema: json.RawMessage(schema),
		},
	}
}

const itemSchema = `{
	"type":"object",
	"additionalProperties":false,
	"properties":{
		"title":{"type":"string"},
		"description":{"type":"string"}
	},
	"required":["title","description"]
}`

func documentResponseFormat() *responseFormat {
	return schemaFormat("site_document", `{
		"type":"object",
		"additionalProperties":false,
		"properties":{
			"business_name":{"type":"string"},
			"tagline":{"type":"string"},
			"description":{"type":"string"},
			"sections":{
				"type":"array",
				"items":{
					"type":"object",
					"additionalProperties":false,
					"properties":{
						"type":{"type":"string","enum":["hero","about","services","cta","contact"]},
						"headline":{"type":"string"},
						"subheadline":{"type":"string"},
						"content":{"type":"string"},
						"items":{"type":"array","items":`+itemSchema+`}
					},
					"required":["type","headline","subheadline","content","items"]
				}
			}
		},
		"required":["business_name","tagline","description","sections"]
	}`)
}

func textResponseFormat() *responseFormat {
	return schemaFormat("text_suggestion", `{
		"type":"object",
		"additionalProperties":false,
		"properties":{"text":{"type":"string"}},
		"required":["text"]
	}`)
}

func servicesResponseFormat() *responseFormat {
	return schemaFormat("service_suggestions", `{
		"type":"object",
		"additionalProperties":false,
		"properties":{"services":{"type":"array","items":`+itemSchema+`}},
		"required":["services"]
	}`)
}

// decodeStrict decodes exactly one JSON value without unknown fields.
func decodeStrict(raw string, out any) error {
	dec := json.NewDecoder(bytes.NewBufferString(strings.TrimSpace(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("multiple JSON values")
		}
		return fmt.Errorf("trailing data: %w", err)
	}
	return nil
}

func parseDocument(raw string, identity domain.Identity) (domain.Document, error) {
	var resp documentResponse
	if err := decodeStrict(raw, &resp); err != nil {
		return domain.Document{}, fmt.Errorf("openai: decode document: %w", err)
	}

	doc := domain.Document{
		BusinessName: strings.TrimSpace(resp.BusinessName),
		Tagline:      strings.TrimSpace(resp.Tagline),
		Description:  strings.TrimSpace(resp.Description),
	}
	if doc.BusinessName == "" {
		doc.BusinessName = strings.TrimSpace(identity.BusinessName)
	}
	seen := make(map[domain.SectionType]int)
	for _, s := range resp.Sections {
		t, ok := domain.ParseSectionType(strings.TrimSpace(s.Type))
		if !ok {
			continue
		}
		seen[t]++
		id := string(t)
		if seen[t] > 1 {
			id = fmt.Sprintf("%s-%d", t, seen[t])
		}
		sec := domain.Section{
			ID:          id,
			Type:        t,
			Headline:    strings.TrimSpace(s.Headline),
			Subheadline: strings.TrimSpace(s.Subheadline),
			Content:     strings.TrimSpace(s.Content),
		}
		for _, it := range s.Items {
			if strings.TrimSpace(it.Title) == "" {
				continue
			}
			sec.Items = append(sec.Items, domain.SectionItem{
				Title:       strings.TrimSpace(it.Title),
				Description: strings.TrimSpace(it.Description),
			})
		}
		doc.Sections = append(doc.Sections, sec)
	}
	if len(doc.Sections) == 0 {
		return domain.Document{}, errors.New("openai: document has no sections")
	}
	return doc, nil
}

func parseText(raw string) (string, error) {
	var resp textResponse
	if err := decodeStrict(raw, &resp); err != nil {
		return "", fmt.Errorf("openai: decode text suggestion: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.New("openai: text suggestion is empty")
	}
	return text, nil
}

func parseServices(raw string) ([]domain.Service, error) {
	var resp servicesResponse
	if err := decodeStrict(raw, &resp); err != nil {
		return nil, fmt.Errorf("openai: decode service suggestions: %w", err)
	}
	var out []domain.Service
	for _, it := range resp.Services {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		out = append(out, domain.Service{Title: title, Description: strings.TrimSpace(it.Description)})
	}
	if len(out) == 0 {
		return nil, errors.New("openai: no service suggestions")
	}
	return out, nil
}
