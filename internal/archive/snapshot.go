package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"rentledger/pkg/domain"
)

// backupTimeLayout keeps keys filesystem- and S3-safe while preserving
// lexicographic time ordering.
const backupTimeLayout = "20060102T150405Z"

// BackupKey returns the object key for a snapshot of namespace taken at now.
func BackupKey(namespace string, now time.Time) string {
	return fmt.Sprintf("%s/%s.json", namespace, now.UTC().Format(backupTimeLayout))
}

// WriteSnapshot serializes the snapshot and stores it under a timestamped
// key. Keys are create-only; taking two backups within the same second
// collides deliberately rather than silently overwriting.
func WriteSnapshot(ctx context.Context, store Store, namespace string, snapshot domain.Snapshot, now time.Time) (Info, error) {
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("encode snapshot: %w", err)
	}
	key := BackupKey(namespace, now)
	info, err := store.Put(ctx, key, bytes.NewReader(payload), PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"namespace": namespace},
	})
	if err != nil {
		return Info{}, fmt.Errorf("store backup %s: %w", key, err)
	}
	return info, nil
}

// ReadSnapshot loads and decodes the backup stored under key.
func ReadSnapshot(ctx context.Context, store Store, key string) (domain.Snapshot, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch backup %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read backup %s: %w", key, err)
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode backup %s: %w", key, err)
	}
	return snapshot, nil
}

// ListBackups returns the backups recorded for namespace, newest last.
func ListBackups(ctx context.Context, store Store, namespace string) ([]Info, error) {
	prefix := namespace
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return store.List(ctx, prefix)
}
