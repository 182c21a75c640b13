package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for tax form ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// PageImageExt is the extension of rasterized page images.
const PageImageExt = "png"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
