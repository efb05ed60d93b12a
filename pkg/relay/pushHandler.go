package relay

import (
	"errors"
	"io"
	"net/http"

	"github.com/Layr-Labs/multisig-go/pkg/logger"
	"go.uber.org/zap"
)

const maxPushBodySize = 64 << 10

// PushHandler accepts pushes forwarded over HTTP and hands them to a IPushMessageHandler.
type PushHandler struct {
	handler IPushMessageHandler
	logger  *zap.Logger
}

// NewPushHandler creates the HTTP ingress for pushes.
func NewPushHandler(handler IPushMessageHandler, logger *zap.Logger) *PushHandler {
	return &PushHandler{handler: handler, logger: logger}
}

// Routes returns the ingress mux wrapped in request logging.
//
// Routes:
//   - POST /v1/push accepts one JSON push message
//   - GET /v1/health reports liveness
func (h *PushHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/push", h.handlePush)
	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return logger.HttpLoggerMiddleware(mux, h.logger)
}

func (h *PushHandler) handlePush(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPushBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	msg, err := ParsePushMessage(body)
	if err != nil {
		h.logger.Sugar().Warnw("Rejected push", zap.Error(err))
		status := http.StatusBadRequest
		if errors.Is(err, ErrUnknownMessageType) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	h.handler.HandlePushMessage(msg)
	w.WriteHeader(http.StatusAccepted)
}
