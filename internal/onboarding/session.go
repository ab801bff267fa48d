package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"site-onboarding/internal/domain"
)

var (
	ErrStepMismatch          = errors.New("onboarding: submitted step is not the current step")
	ErrSuggestionUnavailable = errors.New("onboarding: suggestion unavailable")
	ErrSessionClosed         = errors.New("onboarding: session closed")
)

// Suggester generates texts for the free-text steps.
type Suggester interface {
	SuggestText(ctx context.Context, field, context string) (string, error)
	SuggestServices(ctx context.Context, context string) ([]domain.Service, error)
}

// OutcomeKind classifies the result of a submit.
type OutcomeKind string

const (
	OutcomeAdvanced    OutcomeKind = "advanced"
	OutcomeRejected    OutcomeKind = "rejected"
	OutcomeSuggested   OutcomeKind = "suggested"
	OutcomeConfirmSkip OutcomeKind = "confirm_skip"
	OutcomeReopened    OutcomeKind = "reopened"
	OutcomeUnchanged   OutcomeKind = "unchanged"
)

var declineAnswers = []string{"no", "nein", "n", "cancel", "abbrechen"}

const confirmSkipPrompt = "Skip services? The services section will be removed from your website. Reply yes to confirm."

// Outcome describes what a submit did and where the conversation stands.
type Outcome struct {
	Kind         OutcomeKind `json:"kind"`
	Step         domain.Step `json:"step"`
	Prompt       string      `json:"prompt,omitempty"`
	QuickReplies []string    `json:"quickReplies,omitempty"`
	Rejection    *Rejection  `json:"rejection,omitempty"`
	Suggestion   string      `json:"suggestion,omitempty"`
}

// Config holds the collaborators of a session.
type Config struct {
	WebsiteID string
	Sink      Sink
	Suggester Suggester
	Strict    bool
	Now       func() time.Time
}

// Session is one onboarding conversation for a website. A Session is not safe for
// concurrent use.
type Session struct {
	websiteID string
	version   int
	graph     *Graph
	state     domain.State
	log       *Log
	hidden    []domain.SectionType
	base      *domain.Document
	live      *domain.Document

	inputBuffer    string
	pendingSkip    bool
	prefilledBase  bool
	prefilledFacts bool
	completed      bool
	closed         bool

	sink      Sink
	suggester Suggester

	subscribers map[int]func(domain.Document)
	nextSub     int
}

// NewSession starts an empty session.
func NewSession(cfg Config) *Session {
	s := &Session{
		websiteID:   cfg.WebsiteID,
		graph:       NewGraph(cfg.Strict),
		log:         NewLog(cfg.Now),
		sink:        cfg.Sink,
		suggester:   cfg.Suggester,
		subscribers: make(map[int]func(domain.Document)),
	}
	if s.sink == nil {
		s.sink = NopSink{}
	}
	return s
}

// RestoreSession rebuilds a session from a snapshot.
func RestoreSession(snap domain.Snapshot, cfg Config) *Session {
	s := NewSession(cfg)
	s.websiteID = snap.WebsiteID
	s.version = snap.Version
	if snap.Cursor != "" {
		s.graph.restore(snap.Cursor)
	}
	s.state = snap.State.Clone()
	s.log = restoreLog(snap.Messages, cfg.Now)
	s.hidden = append([]domain.SectionType(nil), snap.Hidden...)
	if snap.Base != nil {
		base := snap.Base.Clone()
		s.base = &base
	}
	s.inputBuffer = snap.InputBuffer
	s.pendingSkip = snap.PendingSkip
	s.prefilledBase = snap.PrefilledBase
	s.prefilledFacts = snap.PrefilledFacts
	s.completed = snap.Completed
	s.recompute()
	return s
}

// Snapshot returns the serialisable form of the session.
func (s *Session) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		WebsiteID:      s.websiteID,
		Version:        s.version,
		Cursor:         s.graph.Current(),
		State:          s.state.Clone(),
		Messages:       s.log.Messages(),
		Hidden:         append([]domain.SectionType(nil), s.hidden...),
		InputBuffer:    s.inputBuffer,
		PendingSkip:    s.pendingSkip,
		PrefilledBase:  s.prefilledBase,
		PrefilledFacts: s.prefilledFacts,
		Completed:      s.completed,
	}
	if s.base != nil {
		base := s.base.Clone()
		snap.Base = &base
	}
	return snap
}

func (s *Session) WebsiteID() string          { return s.websiteID }
func (s *Session) Current() domain.Step       { return s.graph.Current() }
func (s *Session) State() domain.State        { return s.state.Clone() }
func (s *Session) Messages() []domain.Message { return s.log.Messages() }
func (s *Session) InputBuffer() string        { return s.inputBuffer }
func (s *Session) Completed() bool            { return s.completed }
func (s *Session) CheckoutReady() bool        { return s.state.CheckoutReady() }

// Begin posts the prompt of the current step if the transcript is still empty.
func (s *Session) Begin() {
	if s.log.Len() == 0 {
		s.log.Append(domain.RoleAssistant, s.Prompt(s.graph.Current()), s.graph.Current())
	}
}

// Prompt returns the assistant prompt for step.
func (s *Session) Prompt(step domain.Step) string {
	return StepPrompt(step, s.state.BusinessName)
}

// QuickReplies returns the one-click answers for step, led by a prefilled category.
func (s *Session) QuickReplies(step domain.Step) []string {
	replies := QuickReplies(step)
	if step == domain.StepBusinessCategory && s.state.BusinessCategory != "" && !matchesAny(s.state.BusinessCategory, replies) {
		replies = append([]string{s.state.BusinessCategory}, replies...)
	}
	return replies
}

// HandleSubmit validates raw input for step, merges it, autosaves the delta and
// advances. Rejections and suggestions keep the conversation on the same step.
func (s *Session) HandleSubmit(ctx context.Context, step domain.Step, raw string) (Outcome, error) {
	if s.closed {
		return Outcome{}, ErrSessionClosed
	}
	current := s.graph.Current()
	if step != current {
		return Outcome{}, fmt.Errorf("%w: got %q, current %q", ErrStepMismatch, step, current)
	}
	input := strings.TrimSpace(raw)

	if step == domain.StepTopServices && s.pendingSkip {
		s.pendingSkip = false
		switch {
		case matchesAny(input, yesAnswers) || strings.EqualFold(input, valueSkip):
			return s.commit(step, valueSkip, valueSkip), nil
		case matchesAny(input, declineAnswers):
			return s.outcome(OutcomeUnchanged, step), nil
		}
	}

	v := Validate(step, input)
	switch v.Verdict {
	case Rejected:
		return s.rejected(step, v.Rejection), nil
	case SuggestRequested:
		return s.suggest(ctx, step)
	}

	switch {
	case step == domain.StepTopServices && v.Value == valueSkip:
		s.pendingSkip = true
		return Outcome{Kind: OutcomeConfirmSkip, Step: step, Prompt: confirmSkipPrompt, QuickReplies: []string{"yes", "no"}}, nil
	case step == domain.StepTopServices && v.Value == valueKeep && len(s.state.FilledServices()) == 0:
		return s.rejected(step, Rejection{Reason: ReasonRequired, Hint: "There are no services yet. List at least one, one per line as Title: description."}), nil
	case step == domain.StepLegalConfirm && v.Value == valueEdit:
		s.log.Append(domain.RoleUser, input, "")
		return s.Reopen(domain.StepLegalOwner), nil
	}
	return s.commit(step, input, v.Value), nil
}

func (s *Session) commit(step domain.Step, display, value string) Outcome {
	s.log.Append(domain.RoleUser, display, step)
	s.apply(step, value)
	s.inputBuffer = ""
	next := s.graph.Advance(&s.state)
	s.log.Append(domain.RoleAssistant, s.Prompt(next), next)
	s.recompute()
	return s.outcome(OutcomeAdvanced, next)
}

// apply merges value into state and autosaves the step's fields.
func (s *Session) apply(step domain.Step, value string) {
	merge(&s.state, step, value)
	snapshot := s.state.Clone()
	if patch := patchFor(&snapshot, step); patch != nil {
		s.sink.Save(Index(step), patch)
	}
}

func (s *Session) rejected(step domain.Step, r Rejection) Outcome {
	out := s.outcome(OutcomeRejected, step)
	out.Rejection = &r
	return out
}

func (s *Session) outcome(kind OutcomeKind, step domain.Step) Outcome {
	return Outcome{Kind: kind, Step: step, Prompt: s.Prompt(step), QuickReplies: s.QuickReplies(step)}
}

func (s *Session) suggest(ctx context.Context, step domain.Step) (Outcome, error) {
	if s.suggester == nil {
		return Outcome{}, ErrSuggestionUnavailable
	}
	brief := s.suggestionContext()
	var suggestion string
	if step == domain.StepTopServices {
		services, err := s.suggester.SuggestServices(ctx, brief)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: %w", ErrSuggestionUnavailable, err)
		}
		suggestion = formatServices(services)
	} else {
		text, err := s.suggester.SuggestText(ctx, stepFields(step)[0], brief)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: %w", ErrSuggestionUnavailable, err)
		}
		suggestion = strings.TrimSpace(text)
	}
	if s.closed {
		return Outcome{}, ErrSessionClosed
	}
	s.inputBuffer = suggestion
	out := s.outcome(OutcomeSuggested, step)
	out.Suggestion = suggestion
	return out, nil
}

func (s *Session) suggestionContext() string {
	var parts []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			parts = append(parts, label+": "+value)
		}
	}
	add("Business", s.state.BusinessName)
	add("Category", s.state.BusinessCategory)
	add("City", s.state.LegalCity)
	add("Tagline", s.state.Tagline)
	add("Description", s.state.Description)
	add("USP", s.state.USP)
	if services := s.state.FilledServices(); len(services) > 0 {
		add("Services", strings.ReplaceAll(formatServices(services), "\n", "; "))
	}
	return strings.Join(parts, "\n")
}

// AmendResult reports the amended message, or the rejection that kept it unchanged.
type AmendResult struct {
	Message   domain.Message `json:"message"`
	Rejection *Rejection     `json:"rejection,omitempty"`
}

// Amend edits an earlier answer. The new text is validated like the original
// submission and merged into state, replacing the values of that step.
func (s *Session) Amend(_ context.Context, id, text string) (AmendResult, error) {
	if s.closed {
		return AmendResult{}, ErrSessionClosed
	}
	msg, ok := s.log.Get(id)
	if !ok {
		return AmendResult{}, ErrMessageNotFound
	}
	if msg.Step == domain.StepLegalConfirm || msg.Step == domain.StepCheckout {
		return AmendResult{}, ErrNotAmendable
	}
	input := strings.TrimSpace(text)
	var rejection *Rejection
	amended, err := s.log.Amend(id, input, func(step domain.Step, text string) bool {
		v := Validate(step, text)
		switch {
		case v.Verdict == SuggestRequested:
			rejection = &Rejection{Reason: ReasonFormat, Hint: "Suggestions are not available when editing an answer."}
		case v.Verdict == Rejected:
			rejection = &v.Rejection
		case step == domain.StepTopServices && v.Value == valueKeep && len(s.state.FilledServices()) == 0:
			rejection = &Rejection{Reason: ReasonRequired, Hint: "List at least one service."}
		case step == domain.StepAddOns && Index(s.graph.Current()) > Index(domain.StepAddOns) && enablesEditor(s.state.AddOns, parseAddOnKeys(v.Value)):
			rejection = &Rejection{Reason: ReasonNotEditable, Hint: "Menu and price list can only be added before the editor steps are passed."}
		}
		if rejection != nil {
			return false
		}
		s.apply(step, v.Value)
		return true
	})
	if err != nil {
		return AmendResult{}, err
	}
	if rejection != nil {
		return AmendResult{Message: amended, Rejection: rejection}, nil
	}
	s.recompute()
	return AmendResult{Message: amended}, nil
}

// enablesEditor reports whether next turns on an add-on that has an editor step.
func enablesEditor(prev, next domain.AddOns) bool {
	return (next.Menu && !prev.Menu) || (next.PriceList && !prev.PriceList)
}

// Reopen returns to a legal-data step. The transcript is kept; consent must be
// given again.
func (s *Session) Reopen(step domain.Step) Outcome {
	if !s.graph.Reopen(step) {
		return s.rejected(s.graph.Current(), Rejection{Reason: ReasonNotEditable, Hint: "This step cannot be reopened."})
	}
	s.pendingSkip = false
	s.apply(domain.StepLegalConfirm, "")
	s.log.Append(domain.RoleAssistant, s.Prompt(step), step)
	s.recompute()
	return s.outcome(OutcomeReopened, step)
}

// PrefillFromDocument fills unanswered fields from a generated document. Only the
// first call has an effect.
func (s *Session) PrefillFromDocument(doc domain.Document) {
	if s.prefilledBase {
		return
	}
	s.prefilledBase = true
	prefillFromDocument(&s.state, doc)
	s.recompute()
}

// PrefillFromDirectory fills unanswered fields from directory facts. Only the first
// call has an effect.
func (s *Session) PrefillFromDirectory(facts domain.DirectoryFacts) {
	if s.prefilledFacts {
		return
	}
	s.prefilledFacts = true
	prefillFromDirectory(&s.state, facts)
	s.recompute()
}

// SetBaseDocument installs the generated document the preview is derived from.
func (s *Session) SetBaseDocument(doc domain.Document) {
	base := doc.Clone()
	s.base = &base
	s.recompute()
}

// HideSection excludes sections of type t from the preview.
func (s *Session) HideSection(t domain.SectionType) {
	for _, h := range s.hidden {
		if h == t {
			return
		}
	}
	s.hidden = append(s.hidden, t)
	s.recompute()
}

// ShowSection reverts HideSection.
func (s *Session) ShowSection(t domain.SectionType) {
	out := s.hidden[:0]
	for _, h := range s.hidden {
		if h != t {
			out = append(out, h)
		}
	}
	s.hidden = out
	s.recompute()
}

// Hidden returns the hidden section types.
func (s *Session) Hidden() []domain.SectionType {
	return append([]domain.SectionType(nil), s.hidden...)
}

// LiveDocument returns the current preview. It reports false while no base document
// is available.
func (s *Session) LiveDocument() (domain.Document, bool) {
	if s.live == nil {
		return domain.Document{}, false
	}
	return s.live.Clone(), true
}

// Subscribe registers fn to receive every recomputed preview. The returned function
// removes the subscription.
func (s *Session) Subscribe(fn func(domain.Document)) func() {
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() { delete(s.subscribers, id) }
}

// Price returns the monthly price of the current selections.
func (s *Session) Price(firstPeriod bool) Amount {
	return Price(s.state, firstPeriod)
}

// MarkCompleted records that the onboarding was handed over to checkout.
func (s *Session) MarkCompleted() {
	s.completed = true
}

// Close detaches the session. Late suggestion results are dropped and closable
// sinks stop accepting deltas.
func (s *Session) Close() {
	s.closed = true
	s.subscribers = make(map[int]func(domain.Document))
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
}

func (s *Session) recompute() {
	if s.base == nil {
		s.live = nil
		return
	}
	doc := Compose(*s.base, s.state, s.hidden)
	s.live = &doc
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subscribers[i]; ok {
			fn(doc.Clone())
		}
	}
}
