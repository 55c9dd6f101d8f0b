package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/franckalain/nutritrack/internal/models"
	"github.com/franckalain/nutritrack/internal/tracker"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// requestTimeout bounds the handling of one websocket message
const requestTimeout = 30 * time.Second

// message is the envelope of every frame the server writes
type message struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
}

// inbound is the envelope of every frame a client sends
type inbound struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts any origin unless CORS origins are configured
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.origins) == 0 {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, o := range s.origins {
		if o == "*" || o == origin || o == u.Host {
			return true
		}
	}
	return false
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxUploadBytes * 2)

	c := &client{id: uuid.New().String(), userID: userID, conn: conn}
	s.hub.register(c)
	defer s.hub.unregister(c)
	s.logger.Debug("WebSocket connected", slog.String("client", c.id), slog.String("user", userID))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Error reading message", slog.String("client", c.id), slog.String("error", err.Error()))
			}
			break
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendError(c, "", "Invalid message format")
			continue
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		s.handleWebSocketMessage(ctx, c, msg)
		cancel()
	}
}

func (s *Server) handleWebSocketMessage(ctx context.Context, c *client, msg inbound) {
	var (
		result any
		err    error
	)

	switch msg.Type {
	case "log_meal":
		var in tracker.MealInput
		if !s.decode(c, msg, &in) {
			return
		}
		result, err = s.svc.LogMeal(ctx, c.userID, in)
	case "log_water":
		var req waterRequest
		if !s.decode(c, msg, &req) {
			return
		}
		result, err = s.svc.LogWater(ctx, c.userID, req.Amount)
	case "delete_meal":
		var req struct {
			ID string `json:"id"`
		}
		if !s.decode(c, msg, &req) {
			return
		}
		err = s.svc.DeleteMeal(ctx, c.userID, req.ID)
		result = map[string]string{"id": req.ID}
	case "get_dashboard":
		var req struct {
			Date string `json:"date"`
		}
		if !s.decode(c, msg, &req) {
			return
		}
		result, err = s.svc.Dashboard(ctx, c.userID, req.Date)
	case "get_weekly":
		var req struct {
			Ref string `json:"ref"`
		}
		if !s.decode(c, msg, &req) {
			return
		}
		result, err = s.svc.Weekly(ctx, c.userID, req.Ref)
	case "get_history":
		result, err = s.svc.History(ctx, c.userID)
	case "get_achievements":
		result, err = s.svc.Achievements(ctx, c.userID)
	case "analyze_image", "analyze_audio":
		result, err = s.handleAnalyzeMessage(ctx, c, msg)
		if result == nil && err == nil {
			return
		}
	case "get_insights":
		result, err = s.svc.Insights(ctx, c.userID)
	case "get_meal_plan":
		var req mealPlanRequest
		if !s.decode(c, msg, &req) {
			return
		}
		result, err = s.svc.MealPlan(ctx, c.userID, req.Preferences)
	case "accept_plan_item":
		var item models.MealPlanItem
		if !s.decode(c, msg, &item) {
			return
		}
		result, err = s.svc.AcceptPlanItem(ctx, c.userID, item)
	default:
		s.sendError(c, msg.RequestID, "Unknown message type")
		return
	}

	if err != nil {
		s.logger.Debug("WebSocket request failed",
			slog.String("type", msg.Type),
			slog.String("user", c.userID),
			slog.String("error", err.Error()))
		if statusFor(err) == http.StatusInternalServerError {
			s.sendError(c, msg.RequestID, "Internal error")
		} else {
			s.sendError(c, msg.RequestID, err.Error())
		}
		return
	}
	s.sendMessage(c, msg.Type+"_result", msg.RequestID, result)
}

// handleAnalyzeMessage decodes {"image"|"audio": base64, "mime_type": "..."}.
// A nil result and nil error mean an error reply was already sent.
func (s *Server) handleAnalyzeMessage(ctx context.Context, c *client, msg inbound) (any, error) {
	var req struct {
		Image    string `json:"image"`
		Audio    string `json:"audio"`
		MimeType string `json:"mime_type"`
	}
	if !s.decode(c, msg, &req) {
		return nil, nil
	}

	encoded, analyze := req.Image, s.svc.AnalyzeImage
	if msg.Type == "analyze_audio" {
		encoded, analyze = req.Audio, s.svc.AnalyzeAudio
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		s.sendError(c, msg.RequestID, "Invalid media data")
		return nil, nil
	}
	return analyze(ctx, data, req.MimeType)
}

// decode unmarshals the message data into v, replying with an error when
// it does not fit. Absent data leaves v zero.
func (s *Server) decode(c *client, msg inbound, v any) bool {
	if len(msg.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		s.sendError(c, msg.RequestID, "Invalid "+msg.Type+" data")
		return false
	}
	return true
}

func (s *Server) sendMessage(c *client, messageType, requestID string, data any) {
	msg := message{Type: messageType, RequestID: requestID, Data: data}
	if err := c.writeJSON(msg); err != nil {
		s.logger.Warn("Error sending message", slog.String("client", c.id), slog.String("error", err.Error()))
	}
}

func (s *Server) sendError(c *client, requestID, text string) {
	msg := message{Type: "error", RequestID: requestID, Message: text}
	if err := c.writeJSON(msg); err != nil {
		s.logger.Warn("Error sending error message", slog.String("client", c.id), slog.String("error", err.Error()))
	}
}
