package onboarding

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"site-onboarding/internal/domain"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptEntry struct {
	Prompt       string   `yaml:"prompt"`
	QuickReplies []string `yaml:"quick_replies"`
}

type promptCatalog struct {
	Steps map[domain.Step]promptEntry `yaml:"steps"`
}

var catalog = mustLoadCatalog(promptsYAML)

func loadCatalog(raw []byte) (promptCatalog, error) {
	var c promptCatalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return promptCatalog{}, fmt.Errorf("onboarding: decode prompt catalog: %w", err)
	}
	for _, step := range domain.StepOrder {
		if strings.TrimSpace(c.Steps[step].Prompt) == "" {
			return promptCatalog{}, fmt.Errorf("onboarding: prompt catalog missing step %q", step)
		}
	}
	return c, nil
}

func mustLoadCatalog(raw []byte) promptCatalog {
	c, err := loadCatalog(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// StepPrompt returns the assistant prompt for step addressed to businessName.
func StepPrompt(step domain.Step, businessName string) string {
	name := strings.TrimSpace(businessName)
	if name == "" {
		name = "your business"
	}
	return strings.ReplaceAll(catalog.Steps[step].Prompt, "{businessName}", name)
}

// QuickReplies returns the one-click answers offered for step.
func QuickReplies(step domain.Step) []string {
	switch step {
	case domain.StepColorScheme:
		return append([]string(nil), ColorSchemes...)
	case domain.StepHeadlineFont:
		return append([]string(nil), HeadlineFonts...)
	}
	return append([]string(nil), catalog.Steps[step].QuickReplies...)
}
