// Package app exposes the directory over HTTP and a websocket event feed.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/1cedrus/squid-chat/internal/auth"
	"github.com/1cedrus/squid-chat/internal/config"
	"github.com/1cedrus/squid-chat/internal/directory"
)

type HTTPServer struct {
	service *directory.Service
	hub     *Hub
	cfg     config.Config
}

func NewHTTPServer(service *directory.Service, hub *Hub, cfg config.Config) *HTTPServer {
	return &HTTPServer{service: service, hub: hub, cfg: cfg}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withCORS(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/ws" {
		s.hub.HandleWebSocket(w, r)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.service.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	// Dev token issuance. Production deployments front this with a real
	// identity provider; the directory only ever sees the attested account.
	if r.Method == http.MethodPost && r.URL.Path == "/api/session/login" {
		var body struct {
			Account string `json:"account"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if strings.TrimSpace(body.Account) == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "account is required")
			return
		}
		token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), body.Account, s.cfg.AccessTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "token issuance failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "account": body.Account})
		return
	}

	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), bearerToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}
	caller := directory.AccountID(claims.Account)

	parts := splitPath(r.URL.Path)
	if len(parts) >= 2 && parts[0] == "api" {
		switch {
		case len(parts) == 2 && parts[1] == "channels":
			s.handleChannels(w, r, caller)
			return
		case len(parts) == 3 && parts[1] == "me" && parts[2] == "channels" && r.Method == http.MethodGet:
			s.handleMemberChannels(w, r, caller)
			return
		case len(parts) >= 3 && parts[1] == "channels":
			channelID, ok := parseChannelID(parts[2])
			if !ok {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
				return
			}
			s.handleChannel(w, r, caller, channelID, parts[3:])
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

func (s *HTTPServer) handleChannels(w http.ResponseWriter, r *http.Request, caller directory.AccountID) {
	switch r.Method {
	case http.MethodGet:
		from, perPage := pageParams(r)
		page, err := s.service.ListChannels(r.Context(), from, perPage)
		respond(w, page, err)
	case http.MethodPost:
		var body struct {
			Name   string  `json:"name"`
			ImgURL *string `json:"imgUrl"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if strings.TrimSpace(body.Name) == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required")
			return
		}
		channelID, err := s.service.NewChannel(r.Context(), caller, body.Name, body.ImgURL)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"channelId": channelID})
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	}
}

func (s *HTTPServer) handleMemberChannels(w http.ResponseWriter, r *http.Request, caller directory.AccountID) {
	records, err := s.service.GetMemberChannels(r.Context(), caller)
	if err != nil {
		s.fail(w, err)
		return
	}
	if records == nil {
		records = []directory.ChannelRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": records})
}

func (s *HTTPServer) handleChannel(w http.ResponseWriter, r *http.Request, caller directory.AccountID, channelID directory.ChannelID, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		ch, err := s.service.GetChannelInfo(r.Context(), channelID)
		respond(w, ch, err)

	case len(rest) == 0 && r.Method == http.MethodPut:
		var body struct {
			Name   string  `json:"name"`
			ImgURL *string `json:"imgUrl"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if strings.TrimSpace(body.Name) == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required")
			return
		}
		if err := s.service.UpdateChannel(r.Context(), caller, channelID, body.Name, body.ImgURL); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 1 && rest[0] == "members" && r.Method == http.MethodGet:
		from, perPage := pageParams(r)
		page, err := s.service.ListMembers(r.Context(), channelID, from, perPage)
		respond(w, page, err)

	case len(rest) == 2 && rest[0] == "members" && rest[1] == "all" && r.Method == http.MethodGet:
		members, err := s.service.GetChannelMembers(r.Context(), channelID)
		if err != nil {
			s.fail(w, err)
			return
		}
		if members == nil {
			members = []directory.AccountID{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})

	case len(rest) == 1 && rest[0] == "requests" && r.Method == http.MethodPost:
		requestID, err := s.service.SendRequest(r.Context(), caller, channelID)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"requestId": requestID})

	case len(rest) == 1 && rest[0] == "requests" && r.Method == http.MethodGet:
		from, perPage := pageParams(r)
		page, err := s.service.ListPendingRequests(r.Context(), channelID, from, perPage)
		respond(w, page, err)

	case len(rest) == 2 && rest[0] == "requests" && rest[1] == "count" && r.Method == http.MethodGet:
		count, err := s.service.PendingRequestsCount(r.Context(), channelID)
		respond(w, map[string]any{"count": count}, err)

	case len(rest) == 2 && rest[0] == "requests" && rest[1] == "approve" && r.Method == http.MethodPost:
		var body struct {
			Decisions []directory.RequestDecision `json:"decisions"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		result, err := s.service.ApproveRequests(r.Context(), caller, channelID, body.Decisions)
		respond(w, result, err)

	case len(rest) == 1 && rest[0] == "leave" && r.Method == http.MethodPost:
		if err := s.service.LeaveChannel(r.Context(), caller, channelID); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 1 && rest[0] == "kick" && r.Method == http.MethodPost:
		var body struct {
			Account directory.AccountID `json:"account"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if err := s.service.KickMember(r.Context(), caller, body.Account, channelID); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 1 && rest[0] == "messages" && r.Method == http.MethodPost:
		var body struct {
			Content string `json:"content"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		messageID, err := s.service.SendMessage(r.Context(), caller, channelID, body.Content)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"messageId": messageID})

	case len(rest) == 1 && rest[0] == "messages" && r.Method == http.MethodGet:
		from, perPage := pageParams(r)
		page, err := s.service.ListMessages(r.Context(), channelID, from, perPage)
		respond(w, page, err)

	case len(rest) == 2 && rest[0] == "messages" && rest[1] == "nonce" && r.Method == http.MethodGet:
		nonce, err := s.service.MessageNonce(r.Context(), channelID)
		respond(w, map[string]any{"nonce": nonce}, err)

	case len(rest) == 2 && rest[0] == "messages" && r.Method == http.MethodDelete:
		messageID, ok := parseChannelID(rest[1])
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
			return
		}
		if err := s.service.RemoveMessage(r.Context(), caller, channelID, messageID); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
	}
}

func (s *HTTPServer) fail(w http.ResponseWriter, err error) {
	status, code, message := mapError(err)
	writeError(w, status, code, message)
}

func respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		status, code, message := mapError(err)
		writeError(w, status, code, message)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func mapError(err error) (status int, code, message string) {
	var domainErr *directory.Error
	if errors.As(err, &domainErr) {
		if domainErr.Kind == directory.KindUnauthorized {
			return http.StatusForbidden, "UNAUTHORIZED", domainErr.Message
		}
		switch domainErr.Reason {
		case directory.ReasonChannelNotFound, directory.ReasonMessageNotFound:
			return http.StatusNotFound, domainErr.Reason, domainErr.Message
		default:
			return http.StatusConflict, domainErr.Reason, domainErr.Message
		}
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": code, "message": message})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parseChannelID(raw string) (uint32, bool) {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func pageParams(r *http.Request) (from, perPage uint32) {
	from = queryUint32(r, "from", 0)
	perPage = queryUint32(r, "perPage", 20)
	return from, perPage
}

func queryUint32(r *http.Request, key string, fallback uint32) uint32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return uint32(n)
}
