package gcs

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/law-makers/sismos/internal/sink/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// fakeBucket accepts each object name once and answers 412 afterwards.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
	queries []string
}

func (b *fakeBucket) roundTrip(r *http.Request) (*http.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queries = append(b.queries, r.URL.RawQuery)
	name := r.URL.Query().Get("name")
	body, _ := io.ReadAll(r.Body)

	respond := func(status int, payload string) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(payload)),
			Header:     http.Header{"Content-Type": {"application/json"}},
			Request:    r,
		}, nil
	}

	if _, taken := b.objects[name]; taken {
		return respond(http.StatusPreconditionFailed,
			`{"error":{"code":412,"message":"At least one of the pre-conditions you specified did not hold."}}`)
	}
	b.objects[name] = string(body)
	return respond(http.StatusOK, `{"bucket":"sismos","name":"`+name+`"}`)
}

func newTestStore(t *testing.T, bucket *fakeBucket) *BlobStore {
	t.Helper()
	client, err := storage.NewClient(
		context.Background(),
		option.WithoutAuthentication(),
		option.WithHTTPClient(&http.Client{Transport: roundTripperFunc(bucket.roundTrip)}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store, err := New(client, "sismos", "igp/")
	require.NoError(t, err)
	return store
}

func TestCreate_UploadsWithDoesNotExistPrecondition(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{}}
	store := newTestStore(t, bucket)

	uri, err := store.Create(context.Background(), "a.json", "application/json", []byte(`{"total_sismos":1}`))
	require.NoError(t, err)
	assert.Equal(t, "gs://sismos/igp/a.json", uri)

	require.Len(t, bucket.queries, 1)
	assert.Contains(t, bucket.queries[0], "ifGenerationMatch=0")
	assert.Contains(t, bucket.objects["igp/a.json"], `{"total_sismos":1}`)
}

func TestCreate_ExistingObject(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{"igp/a.json": "old"}}
	store := newTestStore(t, bucket)

	_, err := store.Create(context.Background(), "a.json", "application/json", []byte("new"))
	assert.ErrorIs(t, err, blob.ErrExist)
	assert.Equal(t, "old", bucket.objects["igp/a.json"])
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "b", "")
	assert.Error(t, err)

	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()
	_, err = New(client, "", "")
	assert.Error(t, err)
}
