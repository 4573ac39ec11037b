package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"multimodal-chat-backend/internal/metrics"
)

// ErrUnsupportedMedia marks uploads that are neither an image nor a PDF.
var ErrUnsupportedMedia = errors.New("file must be an image or a PDF")

const pdfContentType = "application/pdf"

// normalizeUpload turns an uploaded file into a base64 payload the vision
// API accepts. Images are encoded as-is; the first page of a PDF is
// rasterized to PNG first.
func normalizeUpload(data []byte, contentType string) (string, string, error) {
	start := time.Now()
	format, err := uploadFormat(contentType)
	if err != nil {
		metrics.ImagePreprocess("rejected", contentType, time.Since(start))
		return "", "", err
	}

	if contentType == pdfContentType {
		pngData, err := renderPDFPage(data)
		if err != nil {
			metrics.ImagePreprocess("error", format, time.Since(start))
			return "", "", fmt.Errorf("failed to render pdf: %w", err)
		}
		data = pngData
	}

	metrics.ImagePreprocess("ok", format, time.Since(start))
	return base64.StdEncoding.EncodeToString(data), format, nil
}

func uploadFormat(contentType string) (string, error) {
	if contentType == pdfContentType {
		return "png", nil
	}
	if sub, ok := strings.CutPrefix(contentType, "image/"); ok && sub != "" {
		return sub, nil
	}
	return "", ErrUnsupportedMedia
}

func renderPDFPage(data []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
