package api

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/usecase"
)

// Server wires the gateway redirect route to PaymentUseCase. The redirect is
// a convenience only: verification is idempotent and the reconciler covers
// payers who never come back.
type Server struct {
	payUC  usecase.PaymentUseCase
	cbPath string
}

// NewServer constructs the HTTP server layer for gateway callbacks.
// callbackPath must match the path portion of payment.paystack.callback_url
// in config (e.g. /api/v1/payments/callback).
func NewServer(payUC usecase.PaymentUseCase, callbackPath string) *Server {
	if callbackPath == "" {
		callbackPath = "/api/v1/payments/callback"
	}
	return &Server{payUC: payUC, cbPath: callbackPath}
}

// Register attaches handlers to the provided mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc(s.cbPath, s.handleCallback)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	reference := q.Get("reference")
	if reference == "" {
		// Paystack sends both; older integrations only set trxref.
		reference = q.Get("trxref")
	}
	if reference == "" {
		s.renderHTML(w, http.StatusBadRequest, false, "missing reference")
		return
	}

	outcome, err := s.payUC.Verify(ctx, reference)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.renderHTML(w, http.StatusNotFound, false, "unknown payment reference")
		return
	case err != nil:
		s.renderHTML(w, http.StatusBadRequest, false, "verification failed, please retry shortly")
		return
	}

	if outcome.Payment.Status == model.PaymentStatusSuccessful {
		s.renderHTML(w, http.StatusOK, true, "payment verified. your purchase is now active.")
		return
	}
	s.renderHTML(w, http.StatusOK, false, "payment was not approved by the gateway")
}

var page = template.Must(template.New("cb").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Payment {{if .OK}}Success{{else}}Result{{end}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}Payment Successful{{else}}Payment Processed{{end}}</h2>
  <p>{{.Msg}}</p>
  <div class="small">You can close this tab and return to your courses.</div>
</div>
</body>
</html>`))

func (s *Server) renderHTML(w http.ResponseWriter, code int, ok bool, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = page.Execute(w, struct {
		OK  bool
		Msg string
	}{
		OK:  ok,
		Msg: msg,
	})
}
