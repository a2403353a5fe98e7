package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
)

func testS3Exchange() *S3Exchange {
	return NewS3Exchange(S3Settings{
		RootUser:     "minioadmin",
		RootPassword: "minioadmin",
		Bucket:       "transfers",
		Region:       "us-east-1",
		BaseEndpoint: "http://localhost:9000",
		PollInterval: time.Millisecond,
	})
}

func stubAWSConfig(t *testing.T) {
	orig := loadDefaultAWSConfig
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
}

func TestS3Exchange_PutSealedBox(t *testing.T) {
	stubAWSConfig(t)

	var gotKey string
	var gotBody []byte

	orig := putObject
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		gotKey = *in.Key
		var err error
		gotBody, err = io.ReadAll(in.Body)
		require.NoError(t, err)
		return &s3.PutObjectOutput{}, nil
	}
	t.Cleanup(func() { putObject = orig })

	box := &models.SealedBox{
		PublicKey:         []byte("public-key"),
		EncryptedVault:    []byte("ciphertext"),
		KeyDerivationSalt: []byte("salt"),
	}

	key, err := testS3Exchange().PutSealedBox(context.Background(), "transfers/2026/8/30/abc", box)
	require.NoError(t, err)
	assert.Equal(t, "transfers/2026/8/30/abc"+common.SealedBoxFileExt, key)
	assert.Equal(t, key, gotKey)

	var decoded models.SealedBox
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, box.EncryptedVault, decoded.EncryptedVault)
}

func TestS3Exchange_PutOpenBox_UploadError(t *testing.T) {
	stubAWSConfig(t)

	orig := putObject
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return nil, errors.New("access denied")
	}
	t.Cleanup(func() { putObject = orig })

	_, err := testS3Exchange().PutOpenBox(context.Background(), "k", &models.OpenBox{PublicKey: []byte("pk")})
	assert.ErrorContains(t, err, "access denied")
}

func TestS3Exchange_GetOpenBox(t *testing.T) {
	stubAWSConfig(t)

	data, err := json.Marshal(&models.OpenBox{PublicKey: []byte("public-key")})
	require.NoError(t, err)

	orig := getObject
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		assert.Equal(t, "transfers", *in.Bucket)
		return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
	}
	t.Cleanup(func() { getObject = orig })

	box, err := testS3Exchange().GetOpenBox(context.Background(), "k"+common.OpenBoxFileExt)
	require.NoError(t, err)
	assert.Equal(t, []byte("public-key"), []byte(box.PublicKey))
}

func TestS3Exchange_GetOpenBox_Empty(t *testing.T) {
	stubAWSConfig(t)

	orig := getObject
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(`{}`))}, nil
	}
	t.Cleanup(func() { getObject = orig })

	_, err := testS3Exchange().GetOpenBox(context.Background(), "k")
	assert.ErrorContains(t, err, "no public key")
}

func TestS3Exchange_WaitForSealedBox_RetriesUntilPresent(t *testing.T) {
	stubAWSConfig(t)

	data, err := json.Marshal(&models.SealedBox{
		EncryptedVault:    []byte("ciphertext"),
		KeyDerivationSalt: []byte("salt"),
	})
	require.NoError(t, err)

	var calls int
	orig := getObject
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		calls++
		if calls < 3 {
			return nil, &types.NoSuchKey{}
		}
		return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
	}
	t.Cleanup(func() { getObject = orig })

	box, err := testS3Exchange().WaitForSealedBox(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []byte("ciphertext"), []byte(box.EncryptedVault))
}

func TestS3Exchange_WaitForSealedBox_ContextCancelled(t *testing.T) {
	stubAWSConfig(t)

	orig := getObject
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return nil, &types.NoSuchKey{}
	}
	t.Cleanup(func() { getObject = orig })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testS3Exchange().WaitForSealedBox(ctx, "k")
	assert.Error(t, err)
}

func TestS3Exchange_WaitForSealedBox_FatalError(t *testing.T) {
	stubAWSConfig(t)

	var calls int
	orig := getObject
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		calls++
		return nil, errors.New("access denied")
	}
	t.Cleanup(func() { getObject = orig })

	_, err := testS3Exchange().WaitForSealedBox(context.Background(), "k")
	assert.ErrorContains(t, err, "access denied")
	assert.Equal(t, 1, calls)
}

func TestTransferKey_Prefix(t *testing.T) {
	key := TransferKey()
	assert.True(t, strings.HasPrefix(key, "transfers/"))
	assert.NotEqual(t, key, TransferKey())
}
