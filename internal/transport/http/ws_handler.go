package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"vocab-progress-service/internal/app"
	"vocab-progress-service/internal/domain"
)

type WSHandler struct {
	service  *app.ProgressService
	feed     *app.LeaderboardFeed
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ProgressService, feed *app.LeaderboardFeed) *WSHandler {
	return &WSHandler{
		service: service,
		feed:    feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	WordID string `json:"wordId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorBody(err)}
}

// ServePractice runs one practice session over a websocket. The server owns
// the per-question countdown; a question whose deadline passes is scored as
// a timeout. Disconnecting before the session ends records nothing.
func (h *WSHandler) ServePractice(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	rank, err := strconv.Atoi(r.URL.Query().Get("rank"))
	if userID == "" || err != nil {
		http.Error(w, "missing userId or rank", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	info, err := h.service.StartSession(ctx, userID, rank)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	sessionID := info.ID
	defer h.service.AbandonSession(ctx, sessionID)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		broken := false
		for msg := range send {
			if broken {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				broken = true
			}
		}
	}()
	defer func() {
		close(send)
		<-writerDone
	}()

	inbound := make(chan inboundMessage)
	readerDone := make(chan struct{})
	go func() {
		defer close(inbound)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-readerDone:
				return
			}
		}
	}()
	defer close(readerDone)

	send <- outboundMessage[any]{Type: "sessionStarted", Payload: info}

	var (
		timer    *time.Timer
		deadline <-chan time.Time
		current  domain.Question
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, deadline = nil, nil
	}
	defer stopTimer()

	// ask sends the current question and arms its countdown.
	ask := func() bool {
		stopTimer()
		q, err := h.service.CurrentQuestion(ctx, sessionID)
		if err != nil {
			return false
		}
		current = q
		send <- outboundMessage[any]{Type: "question", Payload: q}
		if !q.Deadline.IsZero() {
			timer = time.NewTimer(max(time.Until(q.Deadline), 0))
			deadline = timer.C
		}
		return true
	}

	// finish ends the session and reports whether the connection is done.
	finish := func() bool {
		stopTimer()
		result, err := h.service.EndSession(ctx, sessionID)
		if err != nil {
			var partial *domain.PartialProgressUpdateError
			if errors.As(err, &partial) {
				send <- outboundMessage[any]{Type: "sessionResult", Payload: result}
				send <- errorMessage(err)
				return true
			}
			send <- errorMessage(err)
			// a refused or failed end leaves any open question in play
			ask()
			return false
		}
		send <- outboundMessage[any]{Type: "sessionResult", Payload: result}
		return true
	}

	// resolved forwards an answer outcome and moves the session along.
	resolved := func(outcome domain.AnswerOutcome) bool {
		send <- outboundMessage[any]{Type: "answerResult", Payload: outcome}
		if outcome.SessionOver {
			return finish()
		}
		return !ask()
	}

	ask()
	for {
		select {
		case <-deadline:
			timer, deadline = nil, nil
			outcome, err := h.service.ExpireQuestion(ctx, sessionID, current.Index)
			if err != nil {
				continue
			}
			if resolved(outcome) {
				return
			}
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			switch msg.Type {
			case "answer":
				var payload answerPayload
				if err := json.Unmarshal(msg.Payload, &payload); err != nil {
					send <- errorMessage(domain.New(domain.KindInvalidArgument, "invalid answer payload"))
					continue
				}
				outcome, err := h.service.SubmitAnswer(ctx, sessionID, payload.WordID)
				if err != nil {
					send <- errorMessage(err)
					continue
				}
				if resolved(outcome) {
					return
				}
			case "end":
				if finish() {
					return
				}
			default:
				send <- errorMessage(domain.New(domain.KindInvalidArgument, "unsupported message type"))
			}
		}
	}
}

// ServeLeaderboard streams leaderboard snapshots. The first message is the
// current standings; later ones follow every recorded session.
func (h *WSHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe()
	defer cancel()
	select {
	case <-updates:
	default:
	}

	lb, err := h.service.Leaderboard(r.Context(), userID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	if err := conn.WriteJSON(outboundMessage[any]{Type: "leaderboard", Payload: lb}); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if entry, found := update.Find(userID); found && userID != "" {
				update.Self = &entry
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "leaderboard", Payload: update}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
