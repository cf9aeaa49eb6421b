package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("unsupported content type")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload is a presigned request the client performs directly against the
// bucket, plus the URL the object will be readable at afterwards.
type Upload struct {
	URL       string      `json:"uploadURL"`
	Method    string      `json:"method"`
	Headers   http.Header `json:"headers,omitempty"`
	Key       string      `json:"key"`
	PublicURL string      `json:"objectURL"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

type Presigner interface {
	PresignUpload(ctx context.Context, contentType string) (Upload, error)
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	Expiry          time.Duration
}

type S3 struct {
	bucket    string
	region    string
	publicURL string
	expiry    time.Duration
	presign   *s3.PresignClient
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	publicURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3{
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		publicURL: publicURL,
		expiry:    expiry,
		presign:   s3.NewPresignClient(client),
	}, nil
}

// PresignUpload returns a PUT URL for a new image object under uploads/.
func (s *S3) PresignUpload(ctx context.Context, contentType string) (Upload, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return Upload{}, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	key := "uploads/" + uuid.NewString() + ext
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return Upload{}, fmt.Errorf("unable to presign upload: %w", err)
	}

	return Upload{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   req.SignedHeader,
		Key:       key,
		PublicURL: s.publicURL + "/" + key,
		ExpiresAt: time.Now().Add(s.expiry),
	}, nil
}
