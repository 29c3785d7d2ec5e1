package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/quiz"
	"github.com/stemsi/exstem-drill/internal/response"
	"github.com/stemsi/exstem-drill/internal/service"
	"github.com/stemsi/exstem-drill/internal/validator"
	ws "github.com/stemsi/exstem-drill/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a quiz session over a WebSocket.
type WSHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(quizService *service.QuizService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		quizService: quizService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// wsConn serialises writes: translations are written from their own
// goroutine while the read loop answers actions.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeErr(err error) error {
	_, code := errorStatus(err)
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteError(w.conn, string(code), response.GetMessage(code))
}

func (w *wsConn) writeNotice(msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteNotice(w.conn, msg)
}

// SessionStream godoc
// WS /ws/v1/sessions/:id/stream
// Accepts quiz actions and pushes snapshots, translations and notices.
func (h *WSHandler) SessionStream(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if _, err := h.quizService.Snapshot(id); err != nil {
		failWith(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	ws.Prepare(conn)

	out := &wsConn{conn: conn}
	wsLog := h.log.With().Str("session_id", id).Str("request_id", response.RequestID(c)).Logger()
	wsLog.Info().Msg("Client connected")

	ctx, cancel := context.WithCancel(context.Background())
	var inflight sync.WaitGroup
	defer func() {
		cancel()
		inflight.Wait()
	}()

	if snap, err := h.quizService.Snapshot(id); err == nil {
		if err := h.writeSnapshot(out, id, snap); err != nil {
			wsLog.Debug().Err(err).Msg("Initial snapshot write failed")
			return
		}
	}

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var werr error
		switch msg.Action {
		case ws.ActionPing:
			werr = out.write(ws.PongResponse{Event: ws.EventPong})

		case ws.ActionSelect:
			if !validator.IsOptionLetter(msg.Letter) {
				werr = out.writeErr(quiz.ErrUnknownOption)
				break
			}
			werr = h.reply(out, id, func() (model.SessionSnapshot, error) { return h.quizService.Select(id, msg.Letter) })

		case ws.ActionSubmit:
			werr = h.reply(out, id, func() (model.SessionSnapshot, error) { return h.quizService.Submit(ctx, id) })

		case ws.ActionPrevious:
			werr = h.reply(out, id, func() (model.SessionSnapshot, error) { return h.quizService.Previous(id) })

		case ws.ActionNext:
			werr = h.reply(out, id, func() (model.SessionSnapshot, error) { return h.quizService.Next(id) })

		case ws.ActionEnd:
			werr = h.reply(out, id, func() (model.SessionSnapshot, error) { return h.quizService.End(id) })

		case ws.ActionTranslate:
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				h.translate(ctx, out, wsLog, id)
			}()

		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			werr = out.write(ws.ErrorResponse{
				Event: ws.EventError,
				Code:  string(response.ErrValidation),
				Error: "unknown action: " + string(msg.Action),
			})
		}

		if werr != nil {
			wsLog.Debug().Err(werr).Str("action", string(msg.Action)).Msg("Write failed, closing")
			return
		}
	}
}

// reply runs an action and writes the resulting snapshot. A persistence
// failure becomes a notice next to the snapshot.
func (h *WSHandler) reply(out *wsConn, id string, action func() (model.SessionSnapshot, error)) error {
	snap, err := action()
	if err != nil {
		if _, ok := service.AsPersistenceError(err); !ok {
			return out.writeErr(err)
		}
		if err := out.writeNotice(snap.Notice); err != nil {
			return err
		}
	}
	return h.writeSnapshot(out, id, snap)
}

func (h *WSHandler) writeSnapshot(out *wsConn, id string, snap model.SessionSnapshot) error {
	resp := ws.SnapshotResponse{Event: ws.EventSnapshot, Snapshot: snap}
	if snap.State == model.SessionStateCompleted {
		if res, err := h.quizService.Result(id); err == nil {
			resp.Result = &res
		}
	}
	return out.write(resp)
}

// translate pushes the translation of the current question. Stale results
// are dropped without telling the client.
func (h *WSHandler) translate(ctx context.Context, out *wsConn, log zerolog.Logger, id string) {
	tr, err := h.quizService.Translate(ctx, id)
	var werr error
	switch {
	case err == nil:
		werr = out.write(ws.TranslationResponse{Event: ws.EventTranslation, Translation: tr})
	case service.IsStale(err):
		log.Debug().Msg("stale translation dropped")
	case ctx.Err() != nil:
		// connection gone
	default:
		werr = out.writeErr(err)
	}
	if werr != nil {
		log.Debug().Err(werr).Msg("translation write failed")
	}
}
