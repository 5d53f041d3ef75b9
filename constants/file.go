package constants

import "strings"

// Source formats accepted by the ingestor (canonical tags, not extensions).
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatGIF  = "gif"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
	FormatWEBP = "webp"
	FormatHEIC = "heic"
)

// SupportedMIMETypes maps sniffed MIME types to source format tags.
var SupportedMIMETypes = map[string]string{
	"image/png":  FormatPNG,
	"image/jpeg": FormatJPEG,
	"image/gif":  FormatGIF,
	"image/bmp":  FormatBMP,
	"image/tiff": FormatTIFF,
	"image/webp": FormatWEBP,
	"image/heic": FormatHEIC,
	"image/heif": FormatHEIC,
}

// AllowedExtensions holds the file extensions picked up by batch and watch modes.
var AllowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"bmp":  {},
	"tif":  {},
	"tiff": {},
	"webp": {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without dot) is a supported image extension.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
