package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

var pdfMagic = []byte("%PDF-")

// Extractor pulls plain text out of uploaded PDFs and text files in process.
type Extractor struct {
	maxTextBytes int64
}

func NewExtractor(maxTextBytes int64) *Extractor {
	return &Extractor{maxTextBytes: maxTextBytes}
}

func (e *Extractor) Extract(ctx context.Context, doc domain.EncodedDocument) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(doc.Base64))
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableFile, "decode document", err)
	}
	if len(raw) == 0 {
		return "", domain.WrapError(domain.ErrUnreadableFile, "decode document", fmt.Errorf("%s is empty", doc.Filename))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if bytes.HasPrefix(raw, pdfMagic) {
		return e.extractPDF(doc.Filename, raw)
	}
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrUnreadableFile, "extract text", fmt.Errorf("unsupported binary format: %s", doc.Filename))
	}
	return strings.TrimSpace(string(raw)), nil
}

func (e *Extractor) extractPDF(filename string, raw []byte) (text string, err error) {
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = domain.WrapError(domain.ErrUnreadableFile, "parse pdf", fmt.Errorf("%s: %v", filename, r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableFile, "parse pdf", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableFile, "read pdf text", err)
	}

	var src io.Reader = plain
	if e.maxTextBytes > 0 {
		src = io.LimitReader(plain, e.maxTextBytes)
	}
	out, err := io.ReadAll(src)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableFile, "read pdf text", err)
	}
	return strings.TrimSpace(string(out)), nil
}
