package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"site-onboarding/handler"
	"site-onboarding/internal/integrations/checkout"
	"site-onboarding/internal/integrations/media"
	"site-onboarding/internal/integrations/openai"
	"site-onboarding/internal/integrations/paramstore"
	"site-onboarding/internal/integrations/places"
	"site-onboarding/internal/metrics"
	"site-onboarding/internal/repository"
	"site-onboarding/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Local overrides ----
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env file", "err", err)
		os.Exit(1)
	}

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	mediaBucket := mustEnv("MEDIA_BUCKET")
	mediaBaseURL := mustEnv("MEDIA_PUBLIC_BASE_URL")
	checkoutBaseURL := mustEnv("CHECKOUT_BASE_URL")
	openaiModel := envString("OPENAI_MODEL", "gpt-4o-mini")
	autosaveTimeout := envDuration("AUTOSAVE_TIMEOUT", 5*time.Second)
	reservationWindow := envDuration("RESERVATION_WINDOW", 14*24*time.Hour)
	strictSteps := envBool("STRICT_STEPS", false)
	uploadPartMB := envInt("UPLOAD_PART_SIZE_MB", 5)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	openaiToken := mustTokenSource(ssmClient, paramPrefix, "open-ai-token")
	placesToken := mustTokenSource(ssmClient, paramPrefix, "places-api-key")
	checkoutToken := mustTokenSource(ssmClient, paramPrefix, "checkout-token")

	dynamoClient := awsdynamodb.NewFromConfig(cfg)
	stateClient, err := repository.New(dynamoClient, stateTable)
	if err != nil {
		slog.Error("failed to create state client", "err", err)
		os.Exit(1)
	}

	openaiClient, err := openai.NewClient(openaiToken, openaiModel)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}
	placesClient, err := places.NewClient(placesToken)
	if err != nil {
		slog.Error("failed to create places client", "err", err)
		os.Exit(1)
	}
	uploader := manager.NewUploader(awss3.NewFromConfig(cfg), func(u *manager.Uploader) {
		u.PartSize = int64(uploadPartMB) * 1024 * 1024
	})
	mediaService, err := media.New(uploader, mediaBucket, mediaBaseURL)
	if err != nil {
		slog.Error("failed to create media service", "err", err)
		os.Exit(1)
	}
	checkoutClient, err := checkout.NewClient(checkoutToken, checkoutBaseURL)
	if err != nil {
		slog.Error("failed to create checkout client", "err", err)
		os.Exit(1)
	}
	recorder := metrics.NewRecorder()

	// ---- Handler ----
	onboardingService, err := usecase.NewOnboardingService(usecase.Config{
		Store:             stateClient,
		Generator:         openaiClient,
		Directory:         placesClient,
		Media:             mediaService,
		Checkout:          checkoutClient,
		Recorder:          recorder,
		Logger:            slog.Default(),
		AutosaveTimeout:   autosaveTimeout,
		ReservationWindow: reservationWindow,
		StrictSteps:       strictSteps,
	})
	if err != nil {
		slog.Error("failed to create onboarding service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(onboardingService, handler.WithMetrics(recorder.Gatherer()))
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustTokenSource(getter paramstore.Getter, prefix, secret string) *paramstore.TokenSource {
	ts, err := paramstore.NewTokenSource(getter, prefix, secret)
	if err != nil {
		slog.Error("failed to create token source", "secret", secret, "err", err)
		os.Exit(1)
	}
	return ts
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
