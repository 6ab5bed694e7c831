package httpadapter

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
	"github.com/kirillkom/startup-scout/internal/presentation"
)

const (
	defaultEvaluationsLimit = 20
	maxJSONBodyBytes        = 1 << 20
)

type sessionResponse struct {
	Snapshot   domain.Snapshot `json:"snapshot"`
	LoadingTip string          `json:"loading_tip,omitempty"`
}

type eventFile struct {
	Name   string `json:"name"`
	Base64 string `json:"base64"`
}

type sessionEventRequest struct {
	Event   string     `json:"event"`
	Query   string     `json:"query,omitempty"`
	File    *eventFile `json:"file,omitempty"`
	Message string     `json:"message,omitempty"`
	Wait    bool       `json:"wait,omitempty"`
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := rt.sessionFor(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.sessionResponse(session.Flow.Snapshot()))
}

func (rt *Router) postSessionEvent(w http.ResponseWriter, r *http.Request) {
	var req sessionEventRequest
	if err := decodeJSONBody(w, r, rt.jsonBodyLimit(), &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := rt.sessionFor(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pending, err := rt.dispatchEvent(r, session.Flow, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Wait && pending != nil {
		select {
		case <-pending:
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, http.StatusOK, rt.sessionResponse(session.Flow.Snapshot()))
}

func (rt *Router) dispatchEvent(r *http.Request, flow ports.ViewFlow, req sessionEventRequest) (ports.Pending, error) {
	switch strings.TrimSpace(req.Event) {
	case "start":
		return nil, flow.Start()
	case "edit_query":
		return nil, flow.EditQuery(req.Query)
	case "select_file":
		if req.File == nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "select file", fmt.Errorf("file is required"))
		}
		data, err := decodeBase64(req.File.Base64)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "select file", err)
		}
		handle, cleanup, err := rt.stageUpload(r.Context(), req.File.Name, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		pending, err := flow.SelectFile(handle)
		if err != nil {
			cleanup()
			return nil, err
		}
		go func() {
			<-pending
			cleanup()
		}()
		return pending, nil
	case "clear_file":
		return nil, flow.ClearFile()
	case "launch":
		if req.Query != "" {
			if err := flow.EditQuery(req.Query); err != nil {
				return nil, err
			}
		}
		return flow.Launch()
	case "cancel":
		return nil, flow.Cancel()
	case "back":
		return nil, flow.GoBack()
	case "open_chat":
		return nil, flow.OpenChat()
	case "close_chat":
		return nil, flow.CloseChat()
	case "send_chat":
		return flow.SendChat(req.Message)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "session event", fmt.Errorf("unknown event %q", req.Event))
	}
}

func (rt *Router) sessionResponse(snap domain.Snapshot) sessionResponse {
	resp := sessionResponse{Snapshot: snap}
	if snap.State == domain.ViewLoading {
		resp.LoadingTip = presentation.LoadingTip(rt.now().Sub(snap.LoadingSince))
	}
	return resp
}

func (rt *Router) extractPDF(w http.ResponseWriter, r *http.Request) {
	if rt.extractor == nil {
		writeError(w, r, domain.WrapError(domain.ErrNotFound, "extract", fmt.Errorf("extraction is disabled")))
		return
	}
	var req struct {
		Base64 string `json:"base64"`
	}
	if err := decodeJSONBody(w, r, rt.jsonBodyLimit(), &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Base64) == "" {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "extract", fmt.Errorf("base64 is required")))
		return
	}

	text, err := rt.extractor.Extract(r.Context(), domain.EncodedDocument{Filename: "upload.pdf", Base64: req.Base64})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (rt *Router) findLogo(w http.ResponseWriter, r *http.Request) {
	if rt.logos == nil {
		writeError(w, r, domain.WrapError(domain.ErrNotFound, "find logo", fmt.Errorf("logo lookup is disabled")))
		return
	}
	var companyName string
	if err := runtime.BindQueryParameter("form", true, true, "company_name", r.URL.Query(), &companyName); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "find logo", err))
		return
	}
	logoURL, err := rt.logos.FindLogo(r.Context(), companyName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"logoUrl": logoURL})
}

func (rt *Router) listEvaluations(w http.ResponseWriter, r *http.Request) {
	if rt.journal == nil {
		writeError(w, r, domain.WrapError(domain.ErrNotFound, "list evaluations", fmt.Errorf("evaluation journal is disabled")))
		return
	}

	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "list evaluations", err))
		return
	}
	if limit == nil {
		limit = ptr(defaultEvaluationsLimit)
	}
	if *limit <= 0 {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "list evaluations", fmt.Errorf("limit must be a positive integer")))
		return
	}

	records, err := rt.journal.ListRecent(r.Context(), *limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.EvaluationRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

func (rt *Router) jsonBodyLimit() int64 {
	return bodyLimitFor(rt.cfg.MaxUploadBytes)
}

func bodyLimitFor(maxUploadBytes int64) int64 {
	if maxUploadBytes <= 0 {
		return maxJSONBodyBytes
	}
	// base64 inflates by 4/3.
	return maxUploadBytes*4/3 + maxJSONBodyBytes
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", err)
	}
	return nil
}

func decodeBase64(raw string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}

func ptr[T any](v T) *T {
	return &v
}
