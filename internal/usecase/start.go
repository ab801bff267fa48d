package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"site-onboarding/internal/domain"
	"site-onboarding/internal/integrations/places"
	"site-onboarding/internal/onboarding"
	"site-onboarding/internal/repository"
)

const maxBusinessNameLen = 120

type StartInput struct {
	WebsiteID    string
	BusinessName string
	Category     string
	City         string
	// DirectoryLink is a maps share link or a free-text directory query.
	DirectoryLink string
}

type StartOutput struct {
	View
	ReservedUntil time.Time `json:"reservedUntil"`
}

// Start creates the session of a new website. The base document and the directory
// facts are fetched concurrently; a business missing from the directory is not an
// error.
func (s *OnboardingService) Start(ctx context.Context, in StartInput) (out StartOutput, err error) {
	defer s.observe("start", time.Now(), &err)

	identity := domain.Identity{
		BusinessName: strings.TrimSpace(in.BusinessName),
		Category:     strings.TrimSpace(in.Category),
		City:         strings.TrimSpace(in.City),
	}
	if identity.BusinessName == "" {
		return StartOutput{}, newError(ErrorInvalidInput, "empty_business_name", nil)
	}
	if len(identity.BusinessName) > maxBusinessNameLen {
		return StartOutput{}, newError(ErrorInvalidInput, "business_name_too_long", nil)
	}
	websiteID := strings.TrimSpace(in.WebsiteID)
	if websiteID == "" {
		websiteID = newUUID()
	}

	var (
		doc   domain.Document
		facts domain.DirectoryFacts
		found bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.callUpstream("openai", func() error {
			var genErr error
			doc, genErr = s.generator.GenerateDocument(gctx, identity)
			return genErr
		})
	})
	if query := directoryQuery(in.DirectoryLink, identity); query != "" {
		g.Go(func() error {
			var lookupErr error
			_ = s.callUpstream("places", func() error {
				facts, lookupErr = s.directory.Lookup(gctx, query)
				if errors.Is(lookupErr, places.ErrNotFound) {
					return nil
				}
				return lookupErr
			})
			switch {
			case lookupErr == nil:
				found = true
			case !errors.Is(lookupErr, places.ErrNotFound) && gctx.Err() == nil:
				s.logger.Warn("directory lookup failed", "website_id", websiteID, "err", lookupErr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return StartOutput{}, upstreamError("openai", err)
	}

	sess := onboarding.NewSession(onboarding.Config{
		WebsiteID: websiteID,
		Suggester: s.generator,
		Strict:    s.strict,
		Now:       s.now,
	})
	defer sess.Close()
	if found {
		sess.PrefillFromDirectory(facts)
	}
	sess.SetBaseDocument(doc)
	sess.PrefillFromDocument(doc)
	sess.Begin()

	snap := sess.Snapshot()
	snap.Version = 1
	if err := s.store.PutSession(ctx, snap, 0); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return StartOutput{}, newError(ErrorConflict, "session_exists", err)
		}
		return StartOutput{}, newError(ErrorInternal, "dynamodb_write_error", err)
	}

	deadline, err := s.store.ReserveDeadline(ctx, websiteID, s.now().Add(s.reservationWindow))
	if err != nil {
		return StartOutput{}, newError(ErrorInternal, "dynamodb_reservation_error", err)
	}

	return StartOutput{View: viewOf(sess, snap.Version), ReservedUntil: deadline}, nil
}

// directoryQuery picks the directory lookup input: the given link, or the business
// name and city when a city is known.
func directoryQuery(link string, identity domain.Identity) string {
	if link = strings.TrimSpace(link); link != "" {
		return link
	}
	if identity.City == "" {
		return ""
	}
	return identity.BusinessName + " " + identity.City
}
