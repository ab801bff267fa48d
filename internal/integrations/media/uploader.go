package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const defaultMaxBytes = 10 << 20

var (
	ErrUnsupportedType = errors.New("media: unsupported content type")
	ErrTooLarge        = errors.New("media: file too large")
	ErrEmpty           = errors.New("media: file is empty")
)

// extensions lists the accepted image content types.
var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// uploaderAPI is the part of manager.Uploader used here.
type uploaderAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

var newObjectID = func() string {
	return uuid.NewString()
}

// Service stores uploaded images in S3 and returns their public URL.
type Service struct {
	uploader      uploaderAPI
	bucket        string
	publicBaseURL string
	maxBytes      int
}

// New creates a Service. publicBaseURL is the CDN or bucket URL objects are served from.
func New(uploader uploaderAPI, bucket, publicBaseURL string) (*Service, error) {
	if uploader == nil {
		return nil, errors.New("media: uploader must not be nil")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("media: bucket must not be empty")
	}
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if u, err := url.Parse(base); err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, errors.New("media: public base url must be an https url")
	}
	return &Service{uploader: uploader, bucket: bucket, publicBaseURL: base, maxBytes: defaultMaxBytes}, nil
}

// ObjectKey returns the key an upload is stored under.
func ObjectKey(websiteID, purpose, id, ext string) string {
	return fmt.Sprintf("websites/%s/%s/%s%s", websiteID, purpose, id, ext)
}

// Upload stores data and returns its stable URL.
func (s *Service) Upload(ctx context.Context, websiteID, purpose string, data []byte, contentType string) (string, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > s.maxBytes {
		return "", ErrTooLarge
	}

	key := ObjectKey(websiteID, purpose, newObjectID(), ext)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("media: upload %q: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}
