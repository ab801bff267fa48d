package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"site-onboarding/internal/domain"
	"site-onboarding/internal/integrations/checkout"
	"site-onboarding/internal/integrations/media"
	"site-onboarding/internal/onboarding"
)

const maxAnswerLen = 4000

type SubmitInput struct {
	WebsiteID string
	Step      string
	Text      string
}

type SubmitOutput struct {
	View
	Outcome onboarding.Outcome `json:"outcome"`
}

// Submit answers the current step.
func (s *OnboardingService) Submit(ctx context.Context, in SubmitInput) (out SubmitOutput, err error) {
	defer s.observe("submit", time.Now(), &err)

	step, err := parseStep(in.Step)
	if err != nil {
		return SubmitOutput{}, err
	}
	if len(in.Text) > maxAnswerLen {
		return SubmitOutput{}, newError(ErrorInvalidInput, "answer_too_long", nil)
	}
	var outcome onboarding.Outcome
	view, err := s.mutate(ctx, in.WebsiteID, s.store.PutSession, func(sess *onboarding.Session) error {
		var submitErr error
		outcome, submitErr = sess.HandleSubmit(ctx, step, in.Text)
		if submitErr != nil {
			return sessionError(submitErr)
		}
		return nil
	})
	if err != nil {
		return SubmitOutput{}, err
	}
	return SubmitOutput{View: view, Outcome: outcome}, nil
}

type ReopenInput struct {
	WebsiteID string
	Step      string
}

// Reopen returns to a legal-data step.
func (s *OnboardingService) Reopen(ctx context.Context, in ReopenInput) (out SubmitOutput, err error) {
	defer s.observe("reopen", time.Now(), &err)

	step, err := parseStep(in.Step)
	if err != nil {
		return SubmitOutput{}, err
	}
	if !step.IsLegal() {
		return SubmitOutput{}, newError(ErrorInvalidInput, "step_not_reopenable", nil)
	}
	var outcome onboarding.Outcome
	view, err := s.mutate(ctx, in.WebsiteID, s.store.PutSession, func(sess *onboarding.Session) error {
		if onboarding.Index(step) >= onboarding.Index(sess.Current()) {
			return newError(ErrorInvalidInput, "step_not_reopenable", nil)
		}
		outcome = sess.Reopen(step)
		if outcome.Kind == onboarding.OutcomeRejected {
			return newError(ErrorInvalidInput, "step_not_reopenable", nil)
		}
		return nil
	})
	if err != nil {
		return SubmitOutput{}, err
	}
	return SubmitOutput{View: view, Outcome: outcome}, nil
}

type AmendInput struct {
	WebsiteID string
	MessageID string
	Text      string
}

type AmendOutput struct {
	View
	Result onboarding.AmendResult `json:"result"`
}

// Amend edits an earlier answer. A rejected amendment leaves the session unchanged
// and is reported in the result.
func (s *OnboardingService) Amend(ctx context.Context, in AmendInput) (out AmendOutput, err error) {
	defer s.observe("amend", time.Now(), &err)

	messageID := strings.TrimSpace(in.MessageID)
	if messageID == "" {
		return AmendOutput{}, newError(ErrorInvalidInput, "empty_message_id", nil)
	}
	if len(in.Text) > maxAnswerLen {
		return AmendOutput{}, newError(ErrorInvalidInput, "answer_too_long", nil)
	}
	var result onboarding.AmendResult
	view, err := s.mutate(ctx, in.WebsiteID, s.store.PutSession, func(sess *onboarding.Session) error {
		var amendErr error
		result, amendErr = sess.Amend(ctx, messageID, in.Text)
		if amendErr != nil {
			return sessionError(amendErr)
		}
		return nil
	})
	if err != nil {
		return AmendOutput{}, err
	}
	return AmendOutput{View: view, Result: result}, nil
}

type SectionVisibilityInput struct {
	WebsiteID string
	Section   string
	Visible   bool
}

// SetSectionVisibility hides or shows sections of a type in the preview.
func (s *OnboardingService) SetSectionVisibility(ctx context.Context, in SectionVisibilityInput) (out View, err error) {
	defer s.observe("section_visibility", time.Now(), &err)

	section, ok := domain.ParseSectionType(strings.TrimSpace(in.Section))
	if !ok {
		return View{}, newError(ErrorInvalidInput, "unknown_section", nil)
	}
	return s.mutate(ctx, in.WebsiteID, s.store.PutSession, func(sess *onboarding.Session) error {
		if in.Visible {
			sess.ShowSection(section)
		} else {
			sess.HideSection(section)
		}
		return nil
	})
}

// Preview returns the current session view without changing it.
func (s *OnboardingService) Preview(ctx context.Context, websiteID string) (out View, err error) {
	defer s.observe("preview", time.Now(), &err)

	var view View
	snap, err := s.inspect(ctx, websiteID, func(sess *onboarding.Session) {
		view = viewOf(sess, 0)
	})
	if err != nil {
		return View{}, err
	}
	view.Version = snap.Version
	return view, nil
}

type UploadInput struct {
	WebsiteID   string
	Step        string
	ContentType string
	Data        []byte
}

// Upload stores an image for the current image step and submits its URL as the
// answer.
func (s *OnboardingService) Upload(ctx context.Context, in UploadInput) (out SubmitOutput, err error) {
	defer s.observe("upload", time.Now(), &err)

	step, err := parseStep(in.Step)
	if err != nil {
		return SubmitOutput{}, err
	}
	if step != domain.StepLogo && step != domain.StepHeroImage && step != domain.StepAboutImage {
		return SubmitOutput{}, newError(ErrorInvalidInput, "step_not_uploadable", nil)
	}
	var outcome onboarding.Outcome
	view, err := s.mutate(ctx, in.WebsiteID, s.store.PutSession, func(sess *onboarding.Session) error {
		if sess.Current() != step {
			return newError(ErrorConflict, "step_mismatch", onboarding.ErrStepMismatch)
		}
		var imageURL string
		uploadErr := s.callUpstream("media", func() error {
			var err error
			imageURL, err = s.media.Upload(ctx, sess.WebsiteID(), string(step), in.Data, in.ContentType)
			return err
		})
		if uploadErr != nil {
			return mediaError(uploadErr)
		}
		var submitErr error
		outcome, submitErr = sess.HandleSubmit(ctx, step, imageURL)
		if submitErr != nil {
			return sessionError(submitErr)
		}
		return nil
	})
	if err != nil {
		return SubmitOutput{}, err
	}
	return SubmitOutput{View: view, Outcome: outcome}, nil
}

func mediaError(err error) error {
	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		return newError(ErrorInvalidInput, "unsupported_media_type", err)
	case errors.Is(err, media.ErrTooLarge):
		return newError(ErrorInvalidInput, "media_too_large", err)
	case errors.Is(err, media.ErrEmpty):
		return newError(ErrorInvalidInput, "media_empty", err)
	default:
		return upstreamError("media", err)
	}
}

// Quote is the monthly price of the current selections.
type Quote struct {
	FirstPeriod      string         `json:"firstPeriod"`
	Standard         string         `json:"standard"`
	FirstPeriodCents int64          `json:"firstPeriodCents"`
	StandardCents    int64          `json:"standardCents"`
	AddOns           []domain.AddOn `json:"addOns"`
	SubPages         int            `json:"subPages"`
}

// Quote prices the selections of a session.
func (s *OnboardingService) Quote(ctx context.Context, websiteID string) (out Quote, err error) {
	defer s.observe("quote", time.Now(), &err)

	var q Quote
	_, err = s.inspect(ctx, websiteID, func(sess *onboarding.Session) {
		q = quoteOf(sess)
	})
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

func quoteOf(sess *onboarding.Session) Quote {
	state := sess.State()
	first := sess.Price(true)
	standard := sess.Price(false)
	addOns := state.AddOns.Active()
	if addOns == nil {
		addOns = []domain.AddOn{}
	}
	return Quote{
		FirstPeriod:      first.String(),
		Standard:         standard.String(),
		FirstPeriodCents: int64(first),
		StandardCents:    int64(standard),
		AddOns:           addOns,
		SubPages:         len(state.NamedSubPages()),
	}
}

type CheckoutOutput struct {
	View
	RedirectURL string `json:"redirectUrl"`
	Quote       Quote  `json:"quote"`
}

// Checkout completes the onboarding and returns the payment redirect. A completed
// session may check out again to obtain a fresh redirect.
func (s *OnboardingService) Checkout(ctx context.Context, websiteID string) (out CheckoutOutput, err error) {
	defer s.observe("checkout", time.Now(), &err)

	var (
		view     View
		quote    Quote
		complete bool
	)
	snap, err := s.inspect(ctx, websiteID, func(sess *onboarding.Session) {
		view = viewOf(sess, 0)
		complete = sess.Completed()
		if complete {
			quote = quoteOf(sess)
		}
	})
	if err != nil {
		return CheckoutOutput{}, err
	}
	view.Version = snap.Version

	if !complete {
		view, err = s.mutate(ctx, websiteID, s.store.CompleteSession, func(sess *onboarding.Session) error {
			if !sess.CheckoutReady() {
				return newError(ErrorInvalidInput, "checkout_not_ready", nil)
			}
			sess.MarkCompleted()
			quote = quoteOf(sess)
			return nil
		})
		if err != nil {
			return CheckoutOutput{}, err
		}
		s.recorder.IncCheckout()
	}

	order := checkout.Order{
		WebsiteID:     view.WebsiteID,
		AddOns:        quote.AddOns,
		SubPages:      quote.SubPages,
		MonthlyAmount: quote.FirstPeriodCents,
	}
	var redirect string
	err = s.callUpstream("checkout", func() error {
		var createErr error
		redirect, createErr = s.checkout.CreateSession(ctx, order)
		return createErr
	})
	if err != nil {
		return CheckoutOutput{}, upstreamError("checkout", err)
	}
	return CheckoutOutput{View: view, RedirectURL: redirect, Quote: quote}, nil
}

// SavedStep is one autosaved step delta.
type SavedStep struct {
	StepIndex int            `json:"stepIndex"`
	Step      domain.Step    `json:"step,omitempty"`
	Patch     map[string]any `json:"patch"`
	SavedAt   string         `json:"savedAt"`
}

// SavedSteps lists the autosaved step deltas of a website in step order.
func (s *OnboardingService) SavedSteps(ctx context.Context, websiteID string) (out []SavedStep, err error) {
	defer s.observe("saved_steps", time.Now(), &err)

	websiteID = strings.TrimSpace(websiteID)
	if websiteID == "" {
		return nil, newError(ErrorInvalidInput, "empty_website_id", nil)
	}
	records, err := s.store.ListSteps(ctx, websiteID)
	if err != nil {
		return nil, newError(ErrorInternal, "dynamodb_read_error", err)
	}
	steps := make([]SavedStep, 0, len(records))
	for _, r := range records {
		saved := SavedStep{StepIndex: r.StepIndex, Patch: r.Patch, SavedAt: r.SavedAt}
		if r.StepIndex >= 0 && r.StepIndex < len(domain.StepOrder) {
			saved.Step = domain.StepOrder[r.StepIndex]
		}
		steps = append(steps, saved)
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].StepIndex < steps[j].StepIndex })
	return steps, nil
}

func parseStep(raw string) (domain.Step, error) {
	step := domain.Step(strings.TrimSpace(raw))
	if !step.Valid() {
		return "", newError(ErrorInvalidInput, "unknown_step", nil)
	}
	return step, nil
}
