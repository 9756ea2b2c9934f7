package handler

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/Joeboy77/chat-app/internal/storage"
)

// maxUploadSize caps a single upload at 10MB.
const maxUploadSize = 10 << 20

// allowedFileTypes is the explicit allow-list for generic file
// uploads. 音声アップロードは別エンドポイントなのでここには含めない。
var allowedFileTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"text/plain":      true,
	"text/csv":        true,
	"application/zip": true,
	"application/x-zip-compressed": true,
	"application/msword":           true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"video/mp4":  true,
	"audio/mpeg": true,
}

// UploadAudio handles POST /upload/audio. The stored URL is what the
// client then passes in a sendAudioMessage event.
func (h *Handler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	log.Printf("[POST /upload/audio] Request received from %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Printf("[POST /upload/audio] ❌ Bad Request: %v", err)
		writeError(w, http.StatusRequestEntityTooLarge, "audio file too large or malformed")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "audio/") && ct != "application/octet-stream" {
		log.Printf("[POST /upload/audio] ❌ Unsupported type: %s", ct)
		writeError(w, http.StatusUnsupportedMediaType, "file type not allowed")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}

	url, err := h.Blobs.Save(storage.BucketAudio, header.Filename, data)
	if err != nil {
		log.Printf("[POST /upload/audio] ❌ Storage error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store audio file")
		return
	}

	log.Printf("[POST /upload/audio] ✅ Stored %s (%d bytes)", url, len(data))
	writeJSON(w, http.StatusCreated, map[string]any{"url": url})
}

// UploadFile handles POST /upload/file. Rejections (type, size)
// surface as 4xx before the chat core ever sees the message.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	log.Printf("[POST /upload/file] Request received from %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Printf("[POST /upload/file] ❌ Bad Request: %v", err)
		writeError(w, http.StatusRequestEntityTooLarge, "file too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedFileTypes[contentType] {
		log.Printf("[POST /upload/file] ❌ Unsupported type: %s", contentType)
		writeError(w, http.StatusUnsupportedMediaType, "file type not allowed")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	url, err := h.Blobs.Save(storage.BucketFiles, header.Filename, data)
	if err != nil {
		log.Printf("[POST /upload/file] ❌ Storage error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	log.Printf("[POST /upload/file] ✅ Stored %s (%d bytes)", url, len(data))
	writeJSON(w, http.StatusCreated, map[string]any{
		"url":      url,
		"fileName": header.Filename,
		"fileType": contentType,
		"fileSize": int64(len(data)),
		"isImage":  strings.HasPrefix(contentType, "image/"),
	})
}
