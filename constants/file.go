package constants

import "strings"

// Media types the extraction pipeline knows how to label.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypePNG  = "image/png"
	MediaTypeGIF  = "image/gif"
	MediaTypeWebP = "image/webp"
	MediaTypeJPEG = "image/jpeg"
)

// extMediaTypes maps normalized local-file extensions to media types.
// Local files are labeled by extension only; their content is never sniffed.
var extMediaTypes = map[string]string{
	"pdf":  MediaTypePDF,
	"png":  MediaTypePNG,
	"gif":  MediaTypeGIF,
	"webp": MediaTypeWebP,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MediaTypeForExt returns the media type for a local-file extension.
// Anything unrecognized (including an empty extension) is treated as JPEG.
func MediaTypeForExt(ext string) string {
	if mt, ok := extMediaTypes[NormalizeExt(ext)]; ok {
		return mt
	}
	return MediaTypeJPEG
}
