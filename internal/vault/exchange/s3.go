package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
)

// Test seams for the AWS SDK.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
)

// S3Settings configures the S3-compatible exchange backend (e.g. MinIO).
type S3Settings struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
	PollInterval time.Duration
}

// S3Exchange moves boxes through a bucket instead of a shared directory,
// for parties that do not share a filesystem.
type S3Exchange struct {
	settings S3Settings
}

func NewS3Exchange(settings S3Settings) *S3Exchange {
	if settings.PollInterval <= 0 {
		settings.PollInterval = 3 * time.Second
	}
	return &S3Exchange{settings: settings}
}

// TransferKey generates the object key prefix for one transfer.
func TransferKey() string {
	d := time.Now()
	return fmt.Sprintf("transfers/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (e *S3Exchange) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(e.settings.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.settings.RootUser,
			e.settings.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(e.settings.BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// PutOpenBox uploads an open box under key and returns the full object key.
func (e *S3Exchange) PutOpenBox(ctx context.Context, key string, box *models.OpenBox) (string, error) {
	return e.put(ctx, key+common.OpenBoxFileExt, box)
}

// PutSealedBox uploads a sealed box under key and returns the full object key.
func (e *S3Exchange) PutSealedBox(ctx context.Context, key string, box *models.SealedBox) (string, error) {
	return e.put(ctx, key+common.SealedBoxFileExt, box)
}

// GetOpenBox downloads and decodes the open box stored under key.
func (e *S3Exchange) GetOpenBox(ctx context.Context, key string) (*models.OpenBox, error) {
	var box models.OpenBox
	if err := e.get(ctx, key, &box); err != nil {
		return nil, err
	}
	if len(box.PublicKey) == 0 {
		return nil, fmt.Errorf("open box %s has no public key", key)
	}
	return &box, nil
}

// WaitForSealedBox polls the bucket until the sealed box for the transfer
// appears or ctx is done. Missing objects are retried with a constant
// interval; other failures abort immediately.
func (e *S3Exchange) WaitForSealedBox(ctx context.Context, key string) (*models.SealedBox, error) {
	fullKey := key + common.SealedBoxFileExt

	var box models.SealedBox
	backoff := retry.NewConstant(e.settings.PollInterval)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := e.get(ctx, fullKey, &box)
		if isNoSuchKey(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &box, nil
}

func (e *S3Exchange) put(ctx context.Context, key string, box any) (string, error) {
	client, err := e.getClient(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(box)
	if err != nil {
		return "", fmt.Errorf("failed to encode box: %w", err)
	}

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket: aws.String(e.settings.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

func (e *S3Exchange) get(ctx context.Context, key string, box any) error {
	client, err := e.getClient(ctx)
	if err != nil {
		return err
	}

	out, err := getObject(client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.settings.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	if err := json.Unmarshal(data, box); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}
