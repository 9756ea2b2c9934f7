package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Joeboy77/chat-app/internal/chat"
	"github.com/Joeboy77/chat-app/internal/config"
	"github.com/Joeboy77/chat-app/internal/storage"
)

// Handler holds application dependencies
type Handler struct {
	Config   config.Config
	Hub      *chat.Hub
	Registry *chat.Registry
	Service  *chat.Service
	Blobs    *storage.Store
}

// New creates a new Handler with the given dependencies
func New(cfg config.Config, hub *chat.Hub, registry *chat.Registry, service *chat.Service, blobs *storage.Store) *Handler {
	return &Handler{
		Config:   cfg,
		Hub:      hub,
		Registry: registry,
		Service:  service,
		Blobs:    blobs,
	}
}

// SetupRouter configures and returns the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	// Upload API（本体のチャットはWebSocket側）
	r.HandleFunc("/upload/audio", h.UploadAudio).Methods("POST")
	r.HandleFunc("/upload/file", h.UploadFile).Methods("POST")

	// 保存済みブロブの配信
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.Config.UploadDir))))

	// WebSocket
	r.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
