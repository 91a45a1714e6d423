package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/chronoshop/storefront/internal/auth/application"
	"github.com/chronoshop/storefront/internal/auth/domain"
	"github.com/chronoshop/storefront/internal/notify"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("auth-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// Register attaches the auth endpoints to an existing router, for callers
// that share the root path with other handlers.
func (h *Handler) Register(r chi.Router) {
	r.Post("/otp/send", h.sendOTP)
	r.Post("/otp/verify", h.verifyOTP)
	r.Post("/auth/login", h.login)
	r.Post("/auth/reset-password", h.resetPassword)
}

type otpSendReq struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Type    string `json:"type"`    // email | sms | whatsapp
	Purpose string `json:"purpose"` // SIGNUP | LOGIN | RESET_PASSWORD
}

func (h *Handler) sendOTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SendOTP")
	defer span.End()

	var req otpSendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	identifier, channel, ok := resolveChannel(req.Email, req.Phone, req.Type)
	if !ok {
		http.Error(w, "email or phone with a matching type is required", http.StatusBadRequest)
		return
	}

	err := h.service.SendOTP(ctx, identifier, channel, domain.Purpose(strings.ToUpper(req.Purpose)))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, application.ErrCooldown):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, notify.ErrNotConfigured):
		h.log.Error("otp provider not configured", "channel", channel)
		http.Error(w, "verification channel unavailable", http.StatusServiceUnavailable)
	default:
		h.handleError(w, err)
	}
}

type otpVerifyReq struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
	Type  string `json:"type"`
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VerifyOTP")
	defer span.End()

	var req otpVerifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	identifier, _, ok := resolveChannel(req.Email, req.Phone, req.Type)
	if !ok || req.OTP == "" {
		http.Error(w, "identifier and otp are required", http.StatusBadRequest)
		return
	}

	user, token, err := h.service.CompleteOTPLogin(ctx, identifier, req.OTP)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]any{"verified": true, "token": token, "user": user})
		return
	}

	var invalid *application.InvalidCodeError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"verified":          false,
			"remainingAttempts": invalid.Remaining,
		})
	case errors.Is(err, application.ErrTokenExpired),
		errors.Is(err, application.ErrTokenConsumed),
		errors.Is(err, application.ErrTokenNotFound),
		errors.Is(err, application.ErrAttemptsExceeded):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"verified": false, "error": err.Error()})
	default:
		h.handleError(w, err)
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Login")
	defer span.End()

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	user, token, err := h.service.Login(ctx, req.Email, req.Password)
	if errors.Is(err, application.ErrBadCredentials) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

type resetPasswordReq struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ResetPassword")
	defer span.End()

	var req resetPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Phone
	}
	if identifier == "" || req.OTP == "" || len(req.NewPassword) < 8 {
		http.Error(w, "identifier, otp and a password of 8+ characters are required", http.StatusBadRequest)
		return
	}

	err := h.service.ResetPassword(ctx, identifier, req.OTP, req.NewPassword)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, application.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, application.ErrTokenExpired),
		errors.Is(err, application.ErrTokenNotFound),
		errors.Is(err, application.ErrTokenConsumed),
		errors.Is(err, application.ErrAttemptsExceeded):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		h.handleError(w, err)
	}
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var invalid *application.InvalidCodeError
	if errors.As(err, &invalid) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	h.log.Error("auth handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func resolveChannel(email, phone, typ string) (identifier string, channel domain.Channel, ok bool) {
	switch strings.ToLower(typ) {
	case "email":
		return email, domain.ChannelEmail, email != ""
	case "sms":
		return phone, domain.ChannelSMS, phone != ""
	case "whatsapp":
		return phone, domain.ChannelWhatsApp, phone != ""
	case "":
		// Infer from whichever identifier is present.
		if email != "" {
			return email, domain.ChannelEmail, true
		}
		if phone != "" {
			return phone, domain.ChannelSMS, true
		}
	}
	return "", "", false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
