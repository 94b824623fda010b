package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const contentTypeJSON = "application/json"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// CallbackArchive writes raw callback bodies to <tenant>/<request id>/<timestamp>.json.
// Redeliveries of the same request land next to each other.
type CallbackArchive struct {
	store  ObjectStore
	bucket string
	now    func() time.Time
}

func NewCallbackArchive(store ObjectStore, bucket string) *CallbackArchive {
	return &CallbackArchive{store: store, bucket: bucket, now: time.Now}
}

// Prepare creates the bucket. Call it once at startup.
func (a *CallbackArchive) Prepare(ctx context.Context) error {
	return a.store.EnsureBucketExists(ctx, a.bucket)
}

func (a *CallbackArchive) ArchiveCallback(ctx context.Context, tenantID uuid.UUID, requestID string, body []byte) error {
	if a == nil {
		return nil
	}
	key := fmt.Sprintf("%s%s.json", requestPrefix(tenantID, requestID), a.now().UTC().Format("20060102T150405.000000000Z"))
	return a.store.PutObject(ctx, a.bucket, key, contentTypeJSON, bytes.NewReader(body), int64(len(body)))
}

// Deliveries returns every archived body for a provider request, oldest first.
func (a *CallbackArchive) Deliveries(ctx context.Context, tenantID uuid.UUID, requestID string) ([][]byte, error) {
	keys, err := a.store.ListKeys(ctx, a.bucket, requestPrefix(tenantID, requestID))
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(keys))
	for _, key := range keys {
		body, err := a.read(ctx, key)
		if err != nil {
			return nil, err
		}
		out = append(out, body)
	}
	return out, nil
}

func (a *CallbackArchive) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := a.store.GetObject(ctx, a.bucket, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func requestPrefix(tenantID uuid.UUID, requestID string) string {
	return tenantID.String() + "/" + unsafeKeyChars.ReplaceAllString(requestID, "_") + "/"
}
