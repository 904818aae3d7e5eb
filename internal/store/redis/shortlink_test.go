package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/shortlink/internal/domain"
	"github.com/MrSnakeDoc/shortlink/internal/logger"
)

// fakeDocuments is an in-memory stand-in for a RedisJSON server.
type fakeDocuments struct {
	mu       sync.Mutex
	data     map[string]string
	getErr   error
	setErr   error
	setCalls []setCall
}

type setCall struct {
	key  string
	path string
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{data: make(map[string]string)}
}

func (f *fakeDocuments) GetJSON(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeDocuments) SetJSON(_ context.Context, key, path string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setCalls = append(f.setCalls, setCall{key: key, path: path})
	if f.setErr != nil {
		return f.setErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = string(data)
	return nil
}

func sampleLink() domain.ShortLink {
	return domain.ShortLink{
		Slug:       "bella-pizza-sept-2025",
		Status:     domain.StatusActive,
		MerchantID: "mer_123",
		CampaignID: "cmp_456",
		UpdatedAt:  "2025-09-01T10:00:00Z",
	}
}

func TestStore_SetThenGet(t *testing.T) {
	docs := newFakeDocuments()
	store := newStore(docs, logger.NewNop(), "")
	ctx := context.Background()

	store.Set(ctx, "key:cache", sampleLink())

	require.Len(t, docs.setCalls, 1)
	assert.Equal(t, "key:cache", docs.setCalls[0].key)
	assert.Equal(t, RootPath, docs.setCalls[0].path)

	got := store.Get(ctx, "key:cache")
	require.True(t, got.Found)
	assert.NoError(t, got.Err)
	assert.Equal(t, sampleLink(), got.ShortLink)
}

func TestStore_GetMiss(t *testing.T) {
	store := newStore(newFakeDocuments(), logger.NewNop(), "")

	got := store.Get(context.Background(), "key:missing")
	assert.False(t, got.Found)
	assert.NoError(t, got.Err)
}

func TestStore_GetDocumentShapes(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantFound bool
		wantErr   error
	}{
		{
			name:      "bare object",
			raw:       `{"slug":"bella-pizza-sept-2025","status":"active","merchantId":"mer_123","campaignId":"cmp_456","updatedAt":"2025-09-01T10:00:00Z"}`,
			wantFound: true,
		},
		{
			name:      "jsonpath array",
			raw:       `[{"slug":"bella-pizza-sept-2025","status":"active","merchantId":"mer_123","campaignId":"cmp_456","updatedAt":"2025-09-01T10:00:00Z"}]`,
			wantFound: true,
		},
		{name: "empty reply", raw: "", wantFound: false},
		{name: "json null", raw: "null", wantFound: false},
		{name: "empty array", raw: "[]", wantFound: false, wantErr: ErrDecode},
		{name: "scalar", raw: `"oops"`, wantFound: false, wantErr: ErrDecode},
		{name: "garbage", raw: `{not json`, wantFound: false, wantErr: ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := newFakeDocuments()
			docs.data["k"] = tt.raw
			store := newStore(docs, logger.NewNop(), "")

			got := store.Get(context.Background(), "k")
			assert.Equal(t, tt.wantFound, got.Found)
			if tt.wantFound {
				assert.Equal(t, sampleLink(), got.ShortLink)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, got.Err, tt.wantErr)
			} else {
				assert.NoError(t, got.Err)
			}
		})
	}
}

func TestStore_GetBackendFaultIsLoggedMiss(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	docs := newFakeDocuments()
	docs.getErr = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
	store := newStore(docs, logger.NewWithCore(core), "")

	got := store.Get(context.Background(), "key:err")

	assert.False(t, got.Found)
	assert.True(t, got.Faulted())
	assert.ErrorIs(t, got.Err, docs.getErr)

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "key:err", entries[0].ContextMap()["key"])
}

func TestStore_SetSwallowsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	docs := newFakeDocuments()
	docs.setErr = errors.New("write-fail")
	store := newStore(docs, logger.NewWithCore(core), "")

	assert.NotPanics(t, func() {
		store.Set(context.Background(), "key:cache", sampleLink())
	})
	assert.Len(t, docs.setCalls, 1)
	assert.Equal(t, 1, logs.FilterMessage("redis cache write failed").Len())
}

func TestStore_KeyPrefix(t *testing.T) {
	docs := newFakeDocuments()
	store := newStore(docs, logger.NewNop(), "shortlink:")
	ctx := context.Background()

	store.Set(ctx, "abc", sampleLink())

	_, ok := docs.data["shortlink:abc"]
	assert.True(t, ok)
	assert.True(t, store.Get(ctx, "abc").Found)
}

func TestShortLinkKey(t *testing.T) {
	assert.Equal(t, "abc", ShortLinkKey("", "abc"))
	assert.Equal(t, "sl:abc", ShortLinkKey("sl:", "abc"))
}
