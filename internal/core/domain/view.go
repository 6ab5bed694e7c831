package domain

import (
	"io"
	"time"
)

type ViewState string

const (
	ViewLanding ViewState = "landing"
	ViewIntake  ViewState = "intake"
	ViewLoading ViewState = "loading"
	ViewResult  ViewState = "result"
)

func (s ViewState) String() string {
	return string(s)
}

// FileHandle references a user-selected file that has not been read yet.
type FileHandle interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// EncodedDocument is a file in its transferable form.
type EncodedDocument struct {
	Filename string `json:"filename"`
	Base64   string `json:"base64"`
}

// UploadState tracks the file picker of the intake form.
type UploadState struct {
	Selected  FileHandle
	Ingesting bool
	Failure   string
}

func (u UploadState) FileName() string {
	if u.Selected == nil {
		return ""
	}
	return u.Selected.Name()
}

type IntakeDraft struct {
	CompanyQuery  string
	Upload        UploadState
	ExtractedText string
}

// Snapshot is an immutable copy of a view controller's state for rendering.
type Snapshot struct {
	State         ViewState       `json:"state"`
	CompanyQuery  string          `json:"company_query"`
	FileName      string          `json:"file_name,omitempty"`
	Ingesting     bool            `json:"ingesting"`
	UploadFailure string          `json:"upload_failure,omitempty"`
	ExtractedText string          `json:"extracted_text,omitempty"`
	Notice        string          `json:"notice,omitempty"`
	LoadingSince  time.Time       `json:"loading_since,omitempty"`
	Result        *AnalysisResult `json:"result,omitempty"`
	Chat          ChatSnapshot    `json:"chat"`
}

type ChatSnapshot struct {
	Open     bool          `json:"open"`
	Pending  int           `json:"pending"`
	Messages []ChatMessage `json:"messages"`
}
