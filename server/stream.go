package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sig-0/fxarb/arbitrage"
	"github.com/sig-0/fxarb/progress"
)

const (
	streamWriteWait  = 10 * time.Second
	streamBufferSize = 64
)

// The API is read-only, origins are policed by the CORS config
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

type searchOutcome struct {
	result *arbitrage.Result
	err    error
}

// PathsStream runs a path search over a WebSocket connection,
// streaming the build and search progress before the final result.
// The search is cancelled when the client goes away
func (s *Server) PathsStream(w http.ResponseWriter, r *http.Request) {
	q, err := parsePathQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("unable to upgrade connection", "err", err)

		return // the upgrader already replied
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain the client side, to notice a close
	go func() {
		defer cancel()

		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	var (
		events  = make(chan progress.Event, streamBufferSize)
		outcome = make(chan searchOutcome, 1)

		// Progress is best-effort, a slow client misses events
		observer = progress.Func(func(e progress.Event) {
			select {
			case events <- e:
			default:
			}
		})
	)

	go func() {
		res, err := s.arbitrage.Search(ctx, q, observer)

		outcome <- searchOutcome{
			result: res,
			err:    err,
		}
	}()

	for {
		select {
		case e := <-events:
			if err := s.writeMessage(conn, progressMessage(e)); err != nil {
				cancel()

				return
			}
		case out := <-outcome:
			// The search is over, flush the pending events
			for drained := false; !drained; {
				select {
				case e := <-events:
					if err := s.writeMessage(conn, progressMessage(e)); err != nil {
						return
					}
				default:
					drained = true
				}
			}

			msg := &StreamMessage{
				Type:   MessageResult,
				Result: out.result,
			}

			if out.err != nil {
				_, resErr := searchError(out.err)

				msg = &StreamMessage{
					Type:  MessageError,
					Error: resErr.Error(),
				}
			}

			if err := s.writeMessage(conn, msg); err != nil {
				return
			}

			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait),
			)

			return
		}
	}
}

func progressMessage(e progress.Event) *StreamMessage {
	return &StreamMessage{
		Type:     MessageProgress,
		Progress: &e,
	}
}

func (s *Server) writeMessage(conn *websocket.Conn, msg *StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}

	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug("unable to write stream message", "type", msg.Type, "err", err)

		return err
	}

	return nil
}
