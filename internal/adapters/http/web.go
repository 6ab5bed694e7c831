package httpadapter

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
	"github.com/kirillkom/startup-scout/internal/infrastructure/report"
	"github.com/kirillkom/startup-scout/internal/presentation"
)

//go:embed templates/*.html
var templateFS embed.FS

const multipartOverheadBytes = 1 << 20

func parsePages() (*template.Template, error) {
	pages, err := template.New("page.html").Funcs(template.FuncMap{
		"score": presentation.FormatScore,
		"pct": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v)
		},
		"typingNotice": func() string {
			return presentation.ChatTypingNotice
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return pages, nil
}

type pageData struct {
	Snapshot  domain.Snapshot
	Error     string
	Tip       string
	Refresh   bool
	Dashboard presentation.DashboardView
	Chat      presentation.ChatPanelView
}

func (rt *Router) page(w http.ResponseWriter, r *http.Request) {
	session, err := rt.sessionFor(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap := session.Flow.Snapshot()
	data := pageData{
		Snapshot: snap,
		Error:    r.URL.Query().Get("error"),
		Refresh:  snap.State == domain.ViewLoading || snap.Ingesting || snap.Chat.Pending > 0,
	}
	switch snap.State {
	case domain.ViewLoading:
		data.Tip = presentation.LoadingTip(rt.now().Sub(snap.LoadingSince))
	case domain.ViewResult:
		data.Dashboard = presentation.BuildDashboard(snap.Result, rt.baseline)
		data.Chat = presentation.BuildChatPanel(snap.Chat)
	}

	var buf bytes.Buffer
	if err := rt.pages.Execute(&buf, data); err != nil {
		slog.Error("page_render_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (rt *Router) webStart(w http.ResponseWriter, r *http.Request) {
	rt.webEvent(w, r, func(flow ports.ViewFlow) error {
		return flow.Start()
	})
}

func (rt *Router) webLaunch(w http.ResponseWriter, r *http.Request) {
	rt.webEvent(w, r, func(flow ports.ViewFlow) error {
		if err := flow.EditQuery(r.FormValue("company")); err != nil {
			return err
		}
		_, err := flow.Launch()
		return err
	})
}

func (rt *Router) webCancel(w http.ResponseWriter, r *http.Request) {
	rt.webEvent(w, r, func(flow ports.ViewFlow) error {
		return flow.Cancel()
	})
}

func (rt *Router) webBack(w http.ResponseWriter, r *http.Request) {
	rt.webEvent(w, r, func(flow ports.ViewFlow) error {
		return flow.GoBack()
	})
}

func (rt *Router) webOpenChat(w http.ResponseWriter, r *http.Request) {
	rt.webEvent(w, r, func(flow ports.ViewFlow) error {
		return flow.OpenChat()
	})
}

func (rt *Router) webCloseChat(w http.ResponseWriter, r *http.Request) {
	rt.webEvent(w, r, func(flow ports.ViewFlow) error {
		return flow.CloseChat()
	})
}

func (rt *Router) webSendChat(w http.ResponseWriter, r *http.Request) {
	rt.webEvent(w, r, func(flow ports.ViewFlow) error {
		_, err := flow.SendChat(r.FormValue("message"))
		return err
	})
}

// webUpload stages the multipart file, hands it to the flow and waits for the
// ingest to settle so the redirected page shows the extracted text.
func (rt *Router) webUpload(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes+multipartOverheadBytes)
	}
	rt.webEvent(w, r, func(flow ports.ViewFlow) error {
		if q := r.FormValue("company"); q != "" {
			if err := flow.EditQuery(q); err != nil {
				return err
			}
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return domain.WrapError(domain.ErrInvalidInput, "upload", err)
		}
		defer file.Close()

		handle, cleanup, err := rt.stageUpload(r.Context(), header.Filename, file)
		if err != nil {
			return err
		}
		pending, err := flow.SelectFile(handle)
		if err != nil {
			cleanup()
			return err
		}
		go func() {
			<-pending
			cleanup()
		}()

		select {
		case <-pending:
		case <-r.Context().Done():
		}
		return nil
	})
}

func (rt *Router) webEvent(w http.ResponseWriter, r *http.Request, event func(ports.ViewFlow) error) {
	session, err := rt.sessionFor(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	target := "/"
	if err := event(session.Flow); err != nil {
		status := mapErrorToHTTPStatus(err)
		if status >= 500 {
			writeError(w, r, err)
			return
		}
		slog.Info("web_event_rejected",
			"request_id", requestIDFromContext(r.Context()),
			"session_id", session.ID,
			"path", r.URL.Path,
			"error", err,
		)
		target = "/?error=" + url.QueryEscape(userMessage(err))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return "Please enter a company name."
	case domain.IsKind(err, domain.ErrInvalidTransition):
		return "That action is not available right now."
	case domain.IsKind(err, domain.ErrUnreadableFile):
		return "The file could not be read."
	default:
		return "The request could not be processed."
	}
}

// stageUpload stores the upload and returns a handle to it plus the cleanup
// that removes the staged object.
func (rt *Router) stageUpload(ctx context.Context, filename string, src io.Reader) (domain.FileHandle, func(), error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "stage upload", fmt.Errorf("file name is empty"))
	}

	if rt.uploads == nil {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, nil, domain.WrapError(domain.ErrUnreadableFile, "stage upload", err)
		}
		return memoryFile{name: name, data: data}, func() {}, nil
	}

	key := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	if err := rt.uploads.Save(ctx, key, src); err != nil {
		return nil, nil, fmt.Errorf("stage upload %s: %w", name, err)
	}
	cleanup := func() {
		if err := rt.uploads.Delete(context.Background(), key); err != nil {
			slog.Warn("upload_cleanup_failed", "key", key, "error", err)
		}
	}
	return storedFile{storage: rt.uploads, key: key, name: name}, cleanup, nil
}

type storedFile struct {
	storage ports.ObjectStorage
	key     string
	name    string
}

func (f storedFile) Name() string { return f.name }

func (f storedFile) Open() (io.ReadCloser, error) {
	return f.storage.Open(context.Background(), f.key)
}

type memoryFile struct {
	name string
	data []byte
}

func (f memoryFile) Name() string { return f.name }

func (f memoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (rt *Router) exportXLSX(w http.ResponseWriter, r *http.Request) {
	session, err := rt.sessionFor(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := session.Flow.Snapshot()
	if snap.State != domain.ViewResult || snap.Result == nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidTransition, "export", fmt.Errorf("no result to export in state %s", snap.State)))
		return
	}

	view := presentation.BuildDashboard(snap.Result, rt.baseline)
	var buf bytes.Buffer
	if err := report.WriteDashboard(&buf, view, rt.now().UTC()); err != nil {
		writeError(w, r, err)
		return
	}

	filename := report.Filename(view.CompanyName, rt.now())
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = buf.WriteTo(w)
}
