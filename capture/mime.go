package capture

import "strings"

// extByMIME maps clipboard payload MIME types to file extensions for
// upload filenames.
var extByMIME = map[string]string{
	"image/png":          ".png",
	"image/jpeg":         ".jpg",
	"image/gif":          ".gif",
	"image/webp":         ".webp",
	"image/bmp":          ".bmp",
	"image/tiff":         ".tiff",
	"image/svg+xml":      ".svg",
	"text/plain":         ".txt",
	"text/html":          ".html",
	"text/csv":           ".csv",
	"text/rtf":           ".rtf",
	"application/pdf":    ".pdf",
	"application/json":   ".json",
	"application/xml":    ".xml",
	"application/zip":    ".zip",
	"application/rtf":    ".rtf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
	"audio/mpeg": ".mp3",
	"audio/wav":  ".wav",
	"video/mp4":  ".mp4",
}

// ExtensionForMIME maps a MIME type to a file extension. It is total:
// unknown or empty types map to ".bin". Parameters ("; charset=...")
// are ignored.
func ExtensionForMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if ext, ok := extByMIME[mimeType]; ok {
		return ext
	}
	return ".bin"
}

// kindForMIME coarsely classifies a payload for the sense-clipboard
// "type" form field.
func kindForMIME(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "text/"):
		return "text"
	default:
		return "file"
	}
}
