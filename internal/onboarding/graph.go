package onboarding

import (
	"fmt"

	"site-onboarding/internal/domain"
)

// Graph is the cursor over the static step order.
type Graph struct {
	cursor domain.Step
	strict bool
}

// NewGraph returns a graph positioned on the first step. In strict mode structural
// misuse panics; otherwise it is ignored.
func NewGraph(strict bool) *Graph {
	return &Graph{cursor: domain.StepOrder[0], strict: strict}
}

// Current returns the step the conversation is on.
func (g *Graph) Current() domain.Step {
	return g.cursor
}

// Advance moves to the successor of the current step given the collected state.
// An optional override names a later step to jump to instead.
func (g *Graph) Advance(state *domain.State, override ...domain.Step) domain.Step {
	if len(override) > 0 && override[0] != "" {
		target := override[0]
		if Index(target) <= Index(g.cursor) {
			g.fault("advance override %q is not after %q", target, g.cursor)
			return g.cursor
		}
		g.cursor = target
		return g.cursor
	}
	next, ok := successor(g.cursor, state)
	if !ok {
		g.fault("advance past last step %q", g.cursor)
		return g.cursor
	}
	g.cursor = next
	return g.cursor
}

// Reopen jumps back to a legal-data step so the user can correct it. The step
// must come before the cursor.
func (g *Graph) Reopen(step domain.Step) bool {
	if !step.IsLegal() {
		g.fault("step %q cannot be reopened", step)
		return false
	}
	if Index(step) >= Index(g.cursor) {
		g.fault("reopen %q is not before %q", step, g.cursor)
		return false
	}
	g.cursor = step
	return true
}

// restore positions the cursor without transition checks.
func (g *Graph) restore(step domain.Step) {
	if !step.Valid() {
		g.fault("unknown step %q", step)
		return
	}
	g.cursor = step
}

func (g *Graph) fault(format string, args ...any) {
	if g.strict {
		panic(fmt.Sprintf("onboarding: "+format, args...))
	}
}

// Index returns the position of step in the static order, or -1.
func Index(step domain.Step) int {
	for i, s := range domain.StepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

func successor(step domain.Step, state *domain.State) (domain.Step, bool) {
	switch step {
	case domain.StepAddOns:
		switch {
		case state.AddOns.Menu:
			return domain.StepMenuEditor, true
		case state.AddOns.PriceList:
			return domain.StepPriceListEditor, true
		default:
			return domain.StepSubPages, true
		}
	case domain.StepMenuEditor:
		if state.AddOns.PriceList {
			return domain.StepPriceListEditor, true
		}
		return domain.StepSubPages, true
	}
	i := Index(step)
	if i < 0 || i+1 >= len(domain.StepOrder) {
		return "", false
	}
	return domain.StepOrder[i+1], true
}

// FocusRegion returns the preview section a step affects, or "" for none.
func FocusRegion(step domain.Step) domain.SectionType {
	switch step {
	case domain.StepHeroImage, domain.StepTagline, domain.StepHeadlineFont:
		return domain.SectionHero
	case domain.StepDescription, domain.StepAboutImage, domain.StepUSP:
		return domain.SectionAbout
	case domain.StepTopServices:
		return domain.SectionServices
	case domain.StepTargetAudience:
		return domain.SectionCTA
	case domain.StepMenuEditor:
		return domain.SectionMenu
	case domain.StepPriceListEditor:
		return domain.SectionPriceList
	case domain.StepLegalStreet, domain.StepLegalZipCity, domain.StepLegalEmail, domain.StepLegalPhone:
		return domain.SectionContact
	default:
		return ""
	}
}
