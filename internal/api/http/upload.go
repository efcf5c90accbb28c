package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/yehyu2004/cosmo/internal/storage"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// POST /upload: accepts one PDF as multipart "file". Extension, size cap,
// and %PDF- magic bytes are all checked before the blob write.
func UploadReportHandler(blobs storage.BlobStore, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		name := hdr.Filename
		ct := hdr.Header.Get("Content-Type")
		if ct != "application/pdf" && !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			http.Error(w, "only pdf files are allowed", http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, fmt.Sprintf("file too large (max %dMB)", maxBytes>>20), http.StatusRequestEntityTooLarge)
			return
		}
		if int64(len(data)) > maxBytes {
			http.Error(w, fmt.Sprintf("file too large (max %dMB)", maxBytes>>20), http.StatusRequestEntityTooLarge)
			return
		}
		if len(data) < 5 || !bytes.HasPrefix(data, []byte("%PDF-")) {
			http.Error(w, "invalid pdf file", http.StatusBadRequest)
			return
		}

		safeName := unsafeNameChars.ReplaceAllString(name, "_")
		key := fmt.Sprintf("uploads/%d-%s", time.Now().UnixMilli(), safeName)
		if _, err := blobs.Put(key, bytes.NewReader(data)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"url": key, "name": name},
		})
	}
}
