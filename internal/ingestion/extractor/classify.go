package extractor

import (
	"strings"

	types "github.com/yungbote/techlearn-backend/internal/domain"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MimeText = "text/plain"
)

var allowed = map[string]types.ContentKind{
	MimePDF:           types.ContentKindDocument,
	MimeDOCX:          types.ContentKindDocument,
	MimePPTX:          types.ContentKindDocument,
	MimeText:          types.ContentKindDocument,
	"video/mp4":       types.ContentKindVideo,
	"video/mpeg":      types.ContentKindVideo,
	"video/quicktime": types.ContentKindVideo,
	"video/x-msvideo": types.ContentKindVideo,
	"image/jpeg":      types.ContentKindImage,
	"image/png":       types.ContentKindImage,
}

// NormalizeMime lowercases a declared media type and drops parameters such as charset.
func NormalizeMime(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// ClassifyKind maps an upload's media type to a content kind. ok is false for
// anything outside the upload allow-list.
func ClassifyKind(mimeType string) (kind types.ContentKind, ok bool) {
	kind, ok = allowed[NormalizeMime(mimeType)]
	return kind, ok
}

// AllowedMimeTypes lists every accepted upload media type.
func AllowedMimeTypes() []string {
	out := make([]string, 0, len(allowed))
	for mt := range allowed {
		out = append(out, mt)
	}
	return out
}
