package middlewares

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

var excludedExtensions = []string{
	".png", ".gif", ".jpeg", ".jpg", ".webp", ".ico",
	".zip", ".tar", ".gz", ".bz2", ".rar", ".7z", ".xz", ".zst",
	".mp3", ".mp4", ".mkv", ".webm",
	".woff", ".woff2",
	".docx", ".xlsx", ".pptx",
}

// GZIP compresses listings, multistatus bodies and compressible files for
// clients that accept it.
func GZIP() gin.HandlerFunc {
	return gzip.Gzip(
		gzip.BestSpeed,
		gzip.WithExcludedExtensions(excludedExtensions),
	)
}
