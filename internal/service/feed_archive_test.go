package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/esim_api/internal/models"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestFeedKeyLayout(t *testing.T) {
	at := time.Date(2026, 3, 7, 23, 30, 0, 0, time.FixedZone("ULAT", 8*3600))
	assert.Equal(t, "feeds/mobimatter/2026/03/07/run-1.json", feedKey("feeds", models.SourceMobiMatter, "run-1", at))
}

func TestS3FeedArchiverUploads(t *testing.T) {
	put := &fakePutter{}
	a := &S3FeedArchiver{
		client: put,
		bucket: "esim-feeds",
		prefix: "feeds",
		now:    func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) },
	}

	require.NoError(t, a.Archive(context.Background(), models.SourceAiralo, "r1", []byte(`[]`)))
	assert.Equal(t, "esim-feeds", aws.ToString(put.input.Bucket))
	assert.Equal(t, "feeds/airalo/2026/01/02/r1.json", aws.ToString(put.input.Key))
	assert.Equal(t, []byte(`[]`), put.body)

	put.err = errors.New("denied")
	assert.Error(t, a.Archive(context.Background(), models.SourceAiralo, "r2", []byte(`[]`)))
}
