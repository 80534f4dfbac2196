package consumer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeFetcher struct {
	mu        sync.Mutex
	batches   [][]*kgo.Record
	committed []*kgo.Record
	cancel    context.CancelFunc
}

func (f *fakeFetcher) PollFetches(ctx context.Context) kgo.Fetches {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		f.cancel()
		return kgo.Fetches{}
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      batch[0].Topic,
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: batch}},
	}}}}
}

func (f *fakeFetcher) CommitRecords(_ context.Context, rs ...*kgo.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, rs...)
	return nil
}

func TestConsumerRun(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("commits after handling and retries failures", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		fetcher := &fakeFetcher{
			cancel: cancel,
			batches: [][]*kgo.Record{{
				{Topic: "lifecycle.events", Key: []byte("a"), Value: []byte("1")},
				{Topic: "lifecycle.events", Key: []byte("b"), Value: []byte("2")},
			}},
		}

		calls := map[string]int{}
		handler := HandlerFunc(func(_ context.Context, msg *Message) error {
			calls[string(msg.Key)]++
			if string(msg.Key) == "b" && calls["b"] < 2 {
				return errors.New("transient")
			}
			return nil
		})

		c := New(fetcher, handler, WithLogger(logger), WithRetry(3, time.Millisecond))
		require.NoError(t, c.Run(ctx))

		assert.Equal(t, 1, calls["a"])
		assert.Equal(t, 2, calls["b"])
		assert.Len(t, fetcher.committed, 2)
	})

	t.Run("router skips unknown topics", func(t *testing.T) {
		r := NewRouter(logger)
		var hit bool
		r.Register("known", HandlerFunc(func(context.Context, *Message) error { hit = true; return nil }))

		require.NoError(t, r.Handle(context.Background(), &Message{Topic: "other"}))
		assert.False(t, hit)
		require.NoError(t, r.Handle(context.Background(), &Message{Topic: "known"}))
		assert.True(t, hit)
		assert.Equal(t, []string{"known"}, r.Topics())
	})
}
