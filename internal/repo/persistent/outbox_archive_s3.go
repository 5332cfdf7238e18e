package persistent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/s3client"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const archiveContentType = "application/x-ndjson"

// OutboxArchiveRepo keeps finished outbox rows in object storage as JSON
// lines before they are garbage-collected from Postgres.
type OutboxArchiveRepo struct {
	*s3client.S3Client
	bucket string
}

func NewOutboxArchiveRepo(s3c *s3client.S3Client, bucket string) *OutboxArchiveRepo {
	return &OutboxArchiveRepo{s3c, bucket}
}

func (r *OutboxArchiveRepo) Archive(ctx context.Context, key string, entries []*entity.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}

	data, err := encodeJSONLines(entries)
	if err != nil {
		return fmt.Errorf("OutboxArchiveRepo - Archive - encodeJSONLines: %w", err)
	}

	_, err = r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(archiveContentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("OutboxArchiveRepo - Archive - r.Client.PutObject: %w", err)
	}

	return nil
}

// archivedEntry keeps the payload as embedded JSON instead of base64.
type archivedEntry struct {
	*entity.OutboxEntry
	Payload json.RawMessage `json:"payload"`
}

func encodeJSONLines(entries []*entity.OutboxEntry) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(archivedEntry{OutboxEntry: e, Payload: e.Payload}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
