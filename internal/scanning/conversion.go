package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"net/http"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// pdfToImage renders the first page of a PDF export of the summary
func pdfToImage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// isHEIC checks the ftyp box brand used by HEIC/HEIF files (iPhone photos)
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// detectMimeType normalizes the declared content type and sniffs the data when
// the declaration is missing or generic
func detectMimeType(data []byte, contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if isHEIC(data) || strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif") {
		return "image/heic"
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return mimeType
}

// prepareImage returns the image as PNG, the one format every provider accepts
func prepareImage(data []byte, contentType string) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrExtraction)
	}

	mimeType := detectMimeType(data, contentType)
	if mimeType == "image/png" {
		return data, nil
	}

	var (
		img image.Image
		err error
	)
	switch mimeType {
	case "application/pdf":
		img, err = pdfToImage(data)
	case "image/heic":
		img, err = heic.Decode(bytes.NewReader(data))
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported or corrupt image (%s). Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF: %v", ErrExtraction, mimeType, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
