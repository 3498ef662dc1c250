package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/config"
	"github.com/GTDGit/esim_api/internal/models"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3FeedArchiver stores raw aggregator payloads in S3.
type S3FeedArchiver struct {
	client objectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3FeedArchiver loads AWS credentials from the environment.
func NewS3FeedArchiver(ctx context.Context, cfg config.FeedArchiveConfig) (*S3FeedArchiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}
	return &S3FeedArchiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		now:    time.Now,
	}, nil
}

// Archive uploads raw under <prefix>/<source>/<yyyy>/<mm>/<dd>/<runID>.json.
func (a *S3FeedArchiver) Archive(ctx context.Context, source models.Source, runID string, raw []byte) error {
	key := feedKey(a.prefix, source, runID, a.now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload feed %s: %w", key, err)
	}
	log.Debug().Str("key", key).Int("bytes", len(raw)).Msg("Archived raw feed")
	return nil
}

func feedKey(prefix string, source models.Source, runID string, at time.Time) string {
	at = at.UTC()
	return path.Join(prefix, string(source), at.Format("2006"), at.Format("01"), at.Format("02"), runID+".json")
}
