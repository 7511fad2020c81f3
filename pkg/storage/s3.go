// Package storage presigns direct-to-S3 uploads for product images.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// UploadURL is what an admin client needs to PUT an image and then save its
// public URL on the product.
type UploadURL struct {
	URL       string            `json:"upload_url"`
	Key       string            `json:"key"`
	PublicURL string            `json:"public_url"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

type ImageStore struct {
	presign       *s3.PresignClient
	bucket        string
	publicBaseURL string
	expiry        time.Duration
}

// LoadAWSConfig resolves credentials and region the standard SDK way.
func LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	return awscfg.LoadDefaultConfig(ctx)
}

func NewImageStore(cfg aws.Config, bucket, publicBaseURL string, expiry time.Duration) *ImageStore {
	client := s3.NewFromConfig(cfg)
	return &ImageStore{
		presign:       s3.NewPresignClient(client),
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
		expiry:        expiry,
	}
}

func (s *ImageStore) PresignProductImage(ctx context.Context, productID uuid.UUID, filename, contentType string) (*UploadURL, error) {
	key := fmt.Sprintf("products/%s/%s%s", productID, uuid.New(), strings.ToLower(filepath.Ext(filename)))

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := s.presign.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = s.expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range req.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &UploadURL{
		URL:       req.URL,
		Key:       key,
		PublicURL: s.publicURL(key),
		Headers:   headers,
		ExpiresAt: time.Now().Add(s.expiry),
	}, nil
}

func (s *ImageStore) publicURL(key string) string {
	if s.publicBaseURL != "" {
		return strings.TrimRight(s.publicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
