package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"site-onboarding/internal/domain"
	"site-onboarding/internal/integrations/checkout"
	"site-onboarding/internal/onboarding"
	"site-onboarding/internal/repository"
)

const (
	defaultAutosaveTimeout   = 5 * time.Second
	defaultReservationWindow = 14 * 24 * time.Hour
)

type SessionStore interface {
	GetSession(ctx context.Context, websiteID string) (domain.Snapshot, error)
	PutSession(ctx context.Context, snap domain.Snapshot, expectedVersion int) error
	CompleteSession(ctx context.Context, snap domain.Snapshot, expectedVersion int) error
	SaveStep(ctx context.Context, websiteID string, stepIndex int, patch map[string]any) error
	ListSteps(ctx context.Context, websiteID string) ([]repository.StepRecord, error)
	ReserveDeadline(ctx context.Context, websiteID string, deadline time.Time) (time.Time, error)
}

type ContentGenerator interface {
	onboarding.Suggester
	GenerateDocument(ctx context.Context, identity domain.Identity) (domain.Document, error)
}

type Directory interface {
	Lookup(ctx context.Context, linkOrQuery string) (domain.DirectoryFacts, error)
}

type MediaStore interface {
	Upload(ctx context.Context, websiteID, purpose string, data []byte, contentType string) (string, error)
}

type CheckoutProvider interface {
	CreateSession(ctx context.Context, order checkout.Order) (string, error)
}

type Recorder interface {
	onboarding.AutosaveRecorder
	ObserveOperation(operation, outcome string, d time.Duration)
	ObserveUpstream(upstream string, success bool, d time.Duration)
	IncCheckout()
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// Config holds the collaborators and tunables of an OnboardingService.
type Config struct {
	Store     SessionStore
	Generator ContentGenerator
	Directory Directory
	Media     MediaStore
	Checkout  CheckoutProvider
	Recorder  Recorder
	Logger    *slog.Logger

	AutosaveTimeout   time.Duration
	ReservationWindow time.Duration
	StrictSteps       bool
	Now               func() time.Time
}

// OnboardingService drives request-scoped onboarding sessions: every call loads the
// stored snapshot, applies one operation and writes the snapshot back.
type OnboardingService struct {
	store     SessionStore
	generator ContentGenerator
	directory Directory
	media     MediaStore
	checkout  CheckoutProvider
	recorder  Recorder
	logger    *slog.Logger

	autosaveTimeout   time.Duration
	reservationWindow time.Duration
	strict            bool
	now               func() time.Time
}

func NewOnboardingService(cfg Config) (*OnboardingService, error) {
	if cfg.Store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if cfg.Generator == nil {
		return nil, errors.New("usecase: content generator must not be nil")
	}
	if cfg.Directory == nil {
		return nil, errors.New("usecase: directory must not be nil")
	}
	if cfg.Media == nil {
		return nil, errors.New("usecase: media store must not be nil")
	}
	if cfg.Checkout == nil {
		return nil, errors.New("usecase: checkout provider must not be nil")
	}
	s := &OnboardingService{
		store:             cfg.Store,
		generator:         cfg.Generator,
		directory:         cfg.Directory,
		media:             cfg.Media,
		checkout:          cfg.Checkout,
		recorder:          cfg.Recorder,
		logger:            cfg.Logger,
		autosaveTimeout:   cfg.AutosaveTimeout,
		reservationWindow: cfg.ReservationWindow,
		strict:            cfg.StrictSteps,
		now:               cfg.Now,
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.autosaveTimeout <= 0 {
		s.autosaveTimeout = defaultAutosaveTimeout
	}
	if s.reservationWindow <= 0 {
		s.reservationWindow = defaultReservationWindow
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// View is the client-facing state of a session after an operation.
type View struct {
	WebsiteID     string               `json:"websiteId"`
	Version       int                  `json:"version"`
	Step          domain.Step          `json:"step"`
	Prompt        string               `json:"prompt"`
	QuickReplies  []string             `json:"quickReplies,omitempty"`
	InputBuffer   string               `json:"inputBuffer,omitempty"`
	Messages      []domain.Message     `json:"messages"`
	Preview       *domain.Document     `json:"preview,omitempty"`
	Hidden        []domain.SectionType `json:"hidden,omitempty"`
	CheckoutReady bool                 `json:"checkoutReady"`
	Completed     bool                 `json:"completed"`
}

func viewOf(sess *onboarding.Session, version int) View {
	step := sess.Current()
	v := View{
		WebsiteID:     sess.WebsiteID(),
		Version:       version,
		Step:          step,
		Prompt:        sess.Prompt(step),
		QuickReplies:  sess.QuickReplies(step),
		InputBuffer:   sess.InputBuffer(),
		Messages:      sess.Messages(),
		Hidden:        sess.Hidden(),
		CheckoutReady: sess.CheckoutReady(),
		Completed:     sess.Completed(),
	}
	if doc, ok := sess.LiveDocument(); ok {
		v.Preview = &doc
	}
	return v
}

// persistFunc writes next in place of the snapshot stored at expectedVersion.
type persistFunc func(ctx context.Context, next domain.Snapshot, expectedVersion int) error

// mutate runs fn on the restored session of websiteID and persists the result with
// persist. Autosaves started by fn are flushed before the snapshot is written.
func (s *OnboardingService) mutate(ctx context.Context, websiteID string, persist persistFunc, fn func(*onboarding.Session) error) (View, error) {
	snap, err := s.load(ctx, websiteID)
	if err != nil {
		return View{}, err
	}
	if snap.Completed {
		return View{}, newError(ErrorConflict, "session_completed", nil)
	}

	sink := onboarding.NewAsyncSink(s.store, snap.WebsiteID,
		onboarding.WithSaveTimeout(s.autosaveTimeout),
		onboarding.WithSinkLogger(s.logger),
		onboarding.WithAutosaveRecorder(s.recorder),
	)
	sess := onboarding.RestoreSession(snap, s.sessionConfig(sink))
	defer sess.Close()

	fnErr := fn(sess)
	s.flush(ctx, sink, snap.WebsiteID)
	if fnErr != nil {
		return View{}, fnErr
	}

	next := sess.Snapshot()
	next.Version = snap.Version + 1
	if err := persist(ctx, next, snap.Version); err != nil {
		return View{}, storeWriteError(err)
	}
	return viewOf(sess, next.Version), nil
}

// inspect runs fn on a read-only restored session.
func (s *OnboardingService) inspect(ctx context.Context, websiteID string, fn func(*onboarding.Session)) (domain.Snapshot, error) {
	snap, err := s.load(ctx, websiteID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	sess := onboarding.RestoreSession(snap, s.sessionConfig(onboarding.NopSink{}))
	defer sess.Close()
	fn(sess)
	return snap, nil
}

func (s *OnboardingService) load(ctx context.Context, websiteID string) (domain.Snapshot, error) {
	websiteID = strings.TrimSpace(websiteID)
	if websiteID == "" {
		return domain.Snapshot{}, newError(ErrorInvalidInput, "empty_website_id", nil)
	}
	snap, err := s.store.GetSession(ctx, websiteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Snapshot{}, newError(ErrorNotFound, "session_not_found", err)
		}
		return domain.Snapshot{}, newError(ErrorInternal, "dynamodb_read_error", err)
	}
	return snap, nil
}

func (s *OnboardingService) sessionConfig(sink onboarding.Sink) onboarding.Config {
	return onboarding.Config{
		Sink:      sink,
		Suggester: instrumentedSuggester{next: s.generator, recorder: s.recorder},
		Strict:    s.strict,
		Now:       s.now,
	}
}

// flush waits for in-flight autosaves. The Lambda runtime freezes the process once
// the response is returned.
func (s *OnboardingService) flush(ctx context.Context, sink *onboarding.AsyncSink, websiteID string) {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.autosaveTimeout)
	defer cancel()
	if !sink.Flush(flushCtx) {
		s.logger.Warn("autosave still in flight", "website_id", websiteID)
	}
}

// observe records the outcome of operation; call it deferred with a pointer to the
// named error result.
func (s *OnboardingService) observe(operation string, start time.Time, errp *error) {
	outcome := "ok"
	if errp != nil && *errp != nil {
		outcome = string(ErrorInternal)
		var ucErr *Error
		if errors.As(*errp, &ucErr) {
			outcome = string(ucErr.Code)
		}
	}
	s.recorder.ObserveOperation(operation, outcome, time.Since(start))
}

// callUpstream times fn as a call to upstream.
func (s *OnboardingService) callUpstream(upstream string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.recorder.ObserveUpstream(upstream, err == nil, time.Since(start))
	return err
}

func storeWriteError(err error) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		return newError(ErrorConflict, "version_conflict", err)
	}
	return newError(ErrorInternal, "dynamodb_write_error", err)
}

// sessionError maps engine errors to usecase errors.
func sessionError(err error) error {
	switch {
	case errors.Is(err, onboarding.ErrStepMismatch):
		return newError(ErrorConflict, "step_mismatch", err)
	case errors.Is(err, onboarding.ErrSuggestionUnavailable):
		return upstreamError("suggestion", err)
	case errors.Is(err, onboarding.ErrMessageNotFound):
		return newError(ErrorNotFound, "message_not_found", err)
	case errors.Is(err, onboarding.ErrNotAmendable):
		return newError(ErrorInvalidInput, "message_not_amendable", err)
	default:
		return newError(ErrorInternal, "session_error", err)
	}
}

// instrumentedSuggester times suggestion calls.
type instrumentedSuggester struct {
	next     onboarding.Suggester
	recorder Recorder
}

func (i instrumentedSuggester) SuggestText(ctx context.Context, field, brief string) (string, error) {
	start := time.Now()
	text, err := i.next.SuggestText(ctx, field, brief)
	i.recorder.ObserveUpstream("openai", err == nil, time.Since(start))
	return text, err
}

func (i instrumentedSuggester) SuggestServices(ctx context.Context, brief string) ([]domain.Service, error) {
	start := time.Now()
	services, err := i.next.SuggestServices(ctx, brief)
	i.recorder.ObserveUpstream("openai", err == nil, time.Since(start))
	return services, err
}

type nopRecorder struct{}

func (nopRecorder) ObserveAutosave(bool, time.Duration)            {}
func (nopRecorder) ObserveOperation(string, string, time.Duration) {}
func (nopRecorder) ObserveUpstream(string, bool, time.Duration)    {}
func (nopRecorder) IncCheckout()                                   {}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
