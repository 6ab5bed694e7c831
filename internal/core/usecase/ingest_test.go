package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

type extractorFake struct {
	text string
	err  error
	doc  domain.EncodedDocument
}

func (f *extractorFake) Extract(_ context.Context, doc domain.EncodedDocument) (string, error) {
	f.doc = doc
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestIngestEncodesFileAsBase64(t *testing.T) {
	extractor := &extractorFake{text: "  pitch deck text \n"}
	client := NewFileIngestClient(extractor, 0)

	text, err := client.Ingest(context.Background(), memoryFile{name: "deck.pdf", data: "%PDF-1.4 body"})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if text != "pitch deck text" {
		t.Fatalf("expected trimmed text, got %q", text)
	}
	if extractor.doc.Filename != "deck.pdf" {
		t.Fatalf("expected filename deck.pdf, got %q", extractor.doc.Filename)
	}
	decoded, err := base64.StdEncoding.DecodeString(extractor.doc.Base64)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if string(decoded) != "%PDF-1.4 body" {
		t.Fatalf("unexpected decoded payload %q", decoded)
	}
}

func TestIngestOpenFailureIsUnreadable(t *testing.T) {
	extractor := &extractorFake{}
	client := NewFileIngestClient(extractor, 0)

	_, err := client.Ingest(context.Background(), memoryFile{name: "locked.pdf", err: errors.New("permission denied")})
	if !domain.IsKind(err, domain.ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile, got %v", err)
	}
	if extractor.doc.Base64 != "" {
		t.Fatalf("extractor must not be called for unreadable files")
	}
}

func TestIngestRejectsEmptyAndOversizedFiles(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		maxBytes int64
		kind     error
	}{
		{name: "empty", data: "", kind: domain.ErrUnreadableFile},
		{name: "oversized", data: strings.Repeat("x", 11), maxBytes: 10, kind: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewFileIngestClient(&extractorFake{text: "x"}, tt.maxBytes)
			_, err := client.Ingest(context.Background(), memoryFile{name: "f.pdf", data: tt.data})
			if !domain.IsKind(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestIngestPropagatesExtractorError(t *testing.T) {
	client := NewFileIngestClient(&extractorFake{err: errors.New("corrupt xref table")}, 0)

	_, err := client.Ingest(context.Background(), memoryFile{name: "bad.pdf", data: "junk"})
	if err == nil || !strings.Contains(err.Error(), "corrupt xref table") {
		t.Fatalf("expected extractor error, got %v", err)
	}
}
