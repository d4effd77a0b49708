package gateway

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

var objectNameUnsafe = regexp.MustCompile(`[^\w.\-]+`)

// SanitizeObjectName collapses characters outside [A-Za-z0-9_.-] to
// underscores so upload path hints are safe to embed in object keys.
func SanitizeObjectName(name string) string {
	return objectNameUnsafe.ReplaceAllString(name, "_")
}

// ObjectPath builds the storage key for an uploaded file: a millisecond
// timestamp prefix keeps repeated uploads of the same filename distinct.
func ObjectPath(now time.Time, name string) string {
	return "uploads/" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + SanitizeObjectName(name)
}

// InlineObjectURL produces a self-contained data URL for the file. It is
// the degraded form of UploadObject used when no gateway is configured.
func InlineObjectURL(pathHint string, data []byte) string {
	mimeType := mime.TypeByExtension(filepath.Ext(pathHint))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
