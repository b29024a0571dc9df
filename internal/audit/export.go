package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/opencare/care-scheduler/internal/authz"
)

// ObjectPutter is the slice of the S3 API the exporter needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Exporter writes a filtered slice of the trail to object storage as
// JSON lines. Admin-only; the export itself is recorded in the trail.
type Exporter struct {
	store    Store
	client   ObjectPutter
	bucket   string
	recorder *Recorder
}

func NewExporter(store Store, client ObjectPutter, bucket string, recorder *Recorder) *Exporter {
	return &Exporter{
		store:    store,
		client:   client,
		bucket:   bucket,
		recorder: recorder,
	}
}

func (e *Exporter) Export(ctx context.Context, p authz.Principal, filter Filter, meta RequestMeta) (string, error) {
	if err := authz.Authorize(p, authz.OpAuditExport); err != nil {
		return "", err
	}

	entries, err := e.store.Query(ctx, filter)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return "", err
		}
	}

	key := fmt.Sprintf("audit-exports/%s.jsonl", time.Now().UTC().Format("20060102T150405Z"))

	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", err
	}

	e.recorder.Record(Event{
		ActorID:    &p.UserID,
		Action:     ActionExport,
		TargetType: "audit_entry",
		TargetID:   key,
		Changes: map[string]any{
			"summary": "audit trail exported",
			"count":   len(entries),
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		RequestID: meta.RequestID,
	})

	return key, nil
}
