package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Client is the durable blob store surface the pipeline depends on.
// Implemented by S3Store; tests substitute a fake.
type Client interface {
	Put(ctx context.Context, localPath, key string) error
	Get(ctx context.Context, key, localPath string) error
	Delete(ctx context.Context, key string) error
	MakePublic(ctx context.Context, key string) (string, error)
}

// S3Store stores pipeline artifacts in a single S3 bucket.
type S3Store struct {
	bucket string
	region string
	client *s3.Client
}

// New builds an S3Store from the environment: S3_BUCKET, S3_REGION and
// optionally S3_ACCESS_KEY/S3_SECRET_KEY (static credentials instead of the
// default chain).
func New(ctx context.Context) (*S3Store, error) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is not set")
	}
	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "us-east-1"
	}

	awsConf, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	if key, secret := os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_SECRET_KEY"); key != "" && secret != "" {
		awsConf.Credentials = credentials.NewStaticCredentialsProvider(key, secret, "")
	}
	awsConf.Region = region

	return &S3Store{
		bucket: bucket,
		region: region,
		client: s3.NewFromConfig(awsConf),
	}, nil
}

// Put uploads a local file under the given key.
func (s *S3Store) Put(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Get downloads an object into localPath.
func (s *S3Store) Get(ctx context.Context, key, localPath string) error {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer output.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, output.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	return nil
}

// Delete removes an object. Deleting a key that does not exist is not an
// error; cleanup relies on that.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			log.Printf("Delete of missing key %s ignored", key)
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// MakePublic marks an object publicly readable and returns its public URL.
func (s *S3Store) MakePublic(ctx context.Context, key string) (string, error) {
	_, err := s.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		ACL:    types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to make %s public: %w", key, err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
