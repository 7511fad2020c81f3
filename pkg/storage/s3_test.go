package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticConfig() aws.Config {
	return aws.Config{
		Region: "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}),
	}
}

func TestPresignProductImage(t *testing.T) {
	store := NewImageStore(staticConfig(), "storefront-images", "", 10*time.Minute)
	productID := uuid.New()

	up, err := store.PresignProductImage(context.Background(), productID, "Mug.PNG", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.Key, "products/"+productID.String()+"/"))
	assert.True(t, strings.HasSuffix(up.Key, ".png"))
	assert.Contains(t, up.URL, "storefront-images")
	assert.Contains(t, up.URL, "X-Amz-Signature")
	assert.Equal(t, "https://storefront-images.s3.amazonaws.com/"+up.Key, up.PublicURL)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), up.ExpiresAt, time.Minute)
}

func TestPublicURL_UsesConfiguredBase(t *testing.T) {
	store := NewImageStore(staticConfig(), "b", "https://cdn.example.com/", time.Minute)
	assert.Equal(t, "https://cdn.example.com/products/x.jpg", store.publicURL("products/x.jpg"))
}
