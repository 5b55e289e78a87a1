package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/types"
)

// streamServer serves a canned body on /price-details with per-write flushes
func streamServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			w.Write([]byte(line))
			flusher.Flush()
		}
	}))
}

func TestConsumer_AccumulatesAndDeduplicates(t *testing.T) {
	srv := streamServer(t,
		"data:{\"link\":\"a\",\"finalCharge\":100}\n",
		"data:{\"link\":\"b\",\"finalCharge\":80}\n",
		"data:{\"link\":\"a\",\"finalCharge\":999}\n", // duplicate link, discarded
		"data:{\"link\":\"c\",\"finalCharge\":90}\n",
	)
	defer srv.Close()

	c := NewConsumer(srv.URL, time.Minute, logger.New("error"))
	quotes, err := c.Fetch(context.Background(), testQuery())
	require.NoError(t, err)

	require.Len(t, quotes, 3)
	// First encounter wins for the duplicated link.
	assert.Equal(t, float64(100), quotes[0].FinalCharge)
	assert.Equal(t, "b", quotes[1].Link)
	assert.Equal(t, "c", quotes[2].Link)
}

func TestConsumer_MalformedLineSkippedNotFatal(t *testing.T) {
	withBad := streamServer(t,
		"data:{\"link\":\"a\"}\n",
		"data:{not json\n",
		"data:{\"link\":\"b\"}\n",
	)
	defer withBad.Close()

	c := NewConsumer(withBad.URL, time.Minute, logger.New("error"))
	got, err := c.Fetch(context.Background(), testQuery())
	require.NoError(t, err)

	withoutBad := streamServer(t,
		"data:{\"link\":\"a\"}\n",
		"data:{\"link\":\"b\"}\n",
	)
	defer withoutBad.Close()

	c2 := NewConsumer(withoutBad.URL, time.Minute, logger.New("error"))
	want, err := c2.Fetch(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestConsumer_NonDataLinesIgnored(t *testing.T) {
	srv := streamServer(t,
		": keep-alive\n",
		"\n",
		"data:{\"link\":\"a\"}\n",
	)
	defer srv.Close()

	c := NewConsumer(srv.URL, time.Minute, logger.New("error"))
	quotes, err := c.Fetch(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "a", quotes[0].Link)
}

func TestConsumer_TrailingLineWithoutNewline(t *testing.T) {
	srv := streamServer(t,
		"data:{\"link\":\"a\"}\n",
		"data:{\"link\":\"b\"}", // stream ends mid-line, still a full record
	)
	defer srv.Close()

	c := NewConsumer(srv.URL, time.Minute, logger.New("error"))
	quotes, err := c.Fetch(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Len(t, quotes, 2)
}

func TestConsumer_ServerErrorFieldPreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"gateway unavailable: upstream returned status 502"}`))
	}))
	defer srv.Close()

	c := NewConsumer(srv.URL, time.Minute, logger.New("error"))
	quotes, err := c.Fetch(context.Background(), testQuery())
	require.Error(t, err)
	assert.Nil(t, quotes, "partial results are discarded on error")
	assert.Contains(t, err.Error(), "gateway unavailable")
}

func TestConsumer_IdleReadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write([]byte("data:{\"link\":\"a\"}\n"))
		flusher.Flush()
		// Go silent until the client gives up.
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewConsumer(srv.URL, 80*time.Millisecond, logger.New("error"))

	start := time.Now()
	quotes, err := c.Fetch(context.Background(), testQuery())
	elapsed := time.Since(start)

	require.Error(t, err)
	var maerr *types.MedAidError
	require.True(t, errors.As(err, &maerr))
	assert.Equal(t, types.ErrorTypeTimeout, maerr.Type)
	assert.Nil(t, quotes)
	assert.Less(t, elapsed, time.Second, "consumer must not hang past the idle window")
}

func TestConsumer_CancellationStopsReading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write([]byte("data:{\"link\":\"a\"}\n"))
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	c := NewConsumer(srv.URL, time.Minute, logger.New("error"))
	_, err := c.Fetch(ctx, testQuery())
	assert.ErrorIs(t, err, context.Canceled)
}
