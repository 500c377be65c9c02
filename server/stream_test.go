package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxarb/arbitrage"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/storage/mock"
)

// newStreamServer serves the full router for the given service
func newStreamServer(t *testing.T, arb Arbitrage) string {
	t.Helper()

	s, err := New(&mock.Storage{}, arb, WithGatherer(prometheus.NewRegistry()))
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/paths/stream"
}

func readMessage(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg StreamMessage

	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func TestHandlers_PathsStream(t *testing.T) {
	t.Parallel()

	t.Run("progress then result", func(t *testing.T) {
		t.Parallel()

		arb := &mockArbitrage{
			searchFn: func(
				_ context.Context,
				q arbitrage.Query,
				observer progress.Observer,
			) (*arbitrage.Result, error) {
				observer.Notify(progress.Event{Message: "Fetching fiat exchange rates..."})
				observer.Notify(progress.Event{Message: "Graph ready: 3 currencies, 6 edges"})
				observer.Notify(progress.Event{Checked: 100})

				return &arbitrage.Result{
					ID:    "stream",
					Query: q,
					Found: 2,
				}, nil
			},
		}

		url := newStreamServer(t, arb) + "?from=USD&to=EUR&amount=10"

		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)

		defer resp.Body.Close()
		defer conn.Close()

		expected := []progress.Event{
			{Message: "Fetching fiat exchange rates..."},
			{Message: "Graph ready: 3 currencies, 6 edges"},
			{Checked: 100},
		}

		for _, e := range expected {
			msg := readMessage(t, conn)

			assert.Equal(t, MessageProgress, msg.Type)
			require.NotNil(t, msg.Progress)
			assert.Equal(t, e, *msg.Progress)
		}

		msg := readMessage(t, conn)

		assert.Equal(t, MessageResult, msg.Type)
		require.NotNil(t, msg.Result)
		assert.Equal(t, "stream", msg.Result.ID)
		assert.Equal(t, 2, msg.Result.Found)
		assert.InDelta(t, 10.0, msg.Result.Query.Amount, 1e-12)

		// The server closes the stream after the result
		_, _, err = conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	})

	t.Run("search error", func(t *testing.T) {
		t.Parallel()

		arb := &mockArbitrage{
			searchFn: func(
				context.Context,
				arbitrage.Query,
				progress.Observer,
			) (*arbitrage.Result, error) {
				return nil, arbitrage.ErrEmptyGraph
			},
		}

		conn, resp, err := websocket.DefaultDialer.Dial(newStreamServer(t, arb)+"?from=USD&to=EUR", nil)
		require.NoError(t, err)

		defer resp.Body.Close()
		defer conn.Close()

		msg := readMessage(t, conn)

		assert.Equal(t, MessageError, msg.Type)
		assert.Equal(t, arbitrage.ErrEmptyGraph.Error(), msg.Error)
		assert.Nil(t, msg.Result)
	})

	t.Run("invalid query is rejected before upgrade", func(t *testing.T) {
		t.Parallel()

		_, resp, err := websocket.DefaultDialer.Dial(
			newStreamServer(t, &mockArbitrage{})+"?from=USD",
			nil,
		)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)

		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("client disconnect cancels the search", func(t *testing.T) {
		t.Parallel()

		var (
			started   = make(chan struct{})
			cancelled = make(chan struct{})

			arb = &mockArbitrage{
				searchFn: func(
					ctx context.Context,
					_ arbitrage.Query,
					_ progress.Observer,
				) (*arbitrage.Result, error) {
					close(started)

					<-ctx.Done()
					close(cancelled)

					return nil, ctx.Err()
				},
			}
		)

		conn, resp, err := websocket.DefaultDialer.Dial(newStreamServer(t, arb)+"?from=USD&to=EUR", nil)
		require.NoError(t, err)

		defer resp.Body.Close()

		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("search was not started")
		}

		require.NoError(t, conn.Close())

		select {
		case <-cancelled:
		case <-time.After(5 * time.Second):
			t.Fatal("search was not cancelled")
		}
	})
}
