package fs

import (
	"bytes"
	"context"
	"io"
	"testing"

	"rentledger/internal/archive/core"
)

func TestPutGetHeadDelete(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	payload := []byte(`{"rooms":[]}`)

	info, err := store.Put(ctx, "ns/backup.json", bytes.NewReader(payload), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"namespace": "ns"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}

	if _, err := store.Put(ctx, "ns/backup.json", bytes.NewReader(payload), core.PutOptions{}); err == nil {
		t.Fatalf("put should be create-only")
	}

	got, rc, err := store.Get(ctx, "ns/backup.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("content mismatch: %q", data)
	}
	if got.ContentType != "application/json" || got.Metadata["namespace"] != "ns" {
		t.Fatalf("metadata lost: %+v", got)
	}

	head, err := store.Head(ctx, "ns/backup.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.ETag != info.ETag {
		t.Fatalf("etag mismatch: %q vs %q", head.ETag, info.ETag)
	}

	existed, err := store.Delete(ctx, "ns/backup.json")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "ns/backup.json")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%v err=%v", existed, err)
	}
}

func TestListFiltersByPrefix(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"a/1.json", "a/2.json", "b/1.json"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("{}")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "a/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "a/1.json" || infos[1].Key != "a/2.json" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "/abs.json", "../escape.json", "a/../../b"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("{}")), core.PutOptions{}); err == nil {
			t.Fatalf("key %q should be rejected", key)
		}
	}
}
