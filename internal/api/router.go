package api

import "net/http"

// NewRouter registers the service routes. Prediction routes answer with and
// without the trailing slash.
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("POST /predict-single/{$}", h.PredictSingle)
	mux.HandleFunc("POST /predict-single", h.PredictSingle)
	mux.HandleFunc("POST /predict-multiple/{$}", h.PredictMultiple)
	mux.HandleFunc("POST /predict-multiple", h.PredictMultiple)
	mux.HandleFunc("GET /model", h.Model)
	mux.HandleFunc("GET /predictions", h.Predictions)

	return Chain(mux,
		RequestID(),
		AccessLog(),
		Trace(),
		RecoverPanic(),
	)
}
