package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
)

// FileIngestClient reads a selected file, encodes it for transfer and asks the
// extraction collaborator for its plain text.
type FileIngestClient struct {
	extractor ports.TextExtractor
	maxBytes  int64
}

func NewFileIngestClient(extractor ports.TextExtractor, maxBytes int64) *FileIngestClient {
	return &FileIngestClient{
		extractor: extractor,
		maxBytes:  maxBytes,
	}
}

func (c *FileIngestClient) Ingest(ctx context.Context, file domain.FileHandle) (string, error) {
	if file == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "ingest file", fmt.Errorf("no file selected"))
	}

	doc, err := c.encode(file)
	if err != nil {
		return "", err
	}

	text, err := c.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", doc.Filename, err)
	}
	return strings.TrimSpace(text), nil
}

func (c *FileIngestClient) encode(file domain.FileHandle) (domain.EncodedDocument, error) {
	reader, err := file.Open()
	if err != nil {
		return domain.EncodedDocument{}, domain.WrapError(domain.ErrUnreadableFile, "open file", err)
	}
	defer reader.Close()

	var src io.Reader = reader
	if c.maxBytes > 0 {
		src = io.LimitReader(reader, c.maxBytes+1)
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return domain.EncodedDocument{}, domain.WrapError(domain.ErrUnreadableFile, "read file", err)
	}
	if c.maxBytes > 0 && int64(len(raw)) > c.maxBytes {
		return domain.EncodedDocument{}, domain.WrapError(domain.ErrInvalidInput, "read file", fmt.Errorf("file exceeds %d bytes", c.maxBytes))
	}
	if len(raw) == 0 {
		return domain.EncodedDocument{}, domain.WrapError(domain.ErrUnreadableFile, "read file", fmt.Errorf("%s is empty", file.Name()))
	}

	return domain.EncodedDocument{
		Filename: file.Name(),
		Base64:   base64.StdEncoding.EncodeToString(raw),
	}, nil
}
