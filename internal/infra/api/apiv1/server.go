// Package apiv1 exposes the commerce and progress operations over a
// versioned JSON API.
package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/infra/logging"
	"course-commerce/internal/infra/web"
	"course-commerce/internal/usecase"
)

type Server struct {
	payments      usecase.PaymentUseCase
	enrollments   *usecase.EnrollmentUseCase
	subscriptions *usecase.SubscriptionUseCase
	quizzes       *usecase.QuizUseCase
	progress      *usecase.ProgressUseCase
	lessons       *usecase.LessonUseCase
	users         *usecase.UserUseCase
	auth          *web.AuthManager
	log           *zerolog.Logger
}

func NewServer(
	payments usecase.PaymentUseCase,
	enrollments *usecase.EnrollmentUseCase,
	subscriptions *usecase.SubscriptionUseCase,
	quizzes *usecase.QuizUseCase,
	progress *usecase.ProgressUseCase,
	lessons *usecase.LessonUseCase,
	users *usecase.UserUseCase,
	auth *web.AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		payments:      payments,
		enrollments:   enrollments,
		subscriptions: subscriptions,
		quizzes:       quizzes,
		progress:      progress,
		lessons:       lessons,
		users:         users,
		auth:          auth,
		log:           logger,
	}
}

// RegisterAPIV1 mounts all v1 routes on the router. Mount at root: the
// registered paths are absolute (/api/v1/...).
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/password-reset/request", s.handlePasswordResetRequest)
		r.Post("/auth/password-reset/confirm", s.handlePasswordResetConfirm)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/payments/initialize", s.handleInitializePayment)
			r.Post("/enrollments", s.handleEnroll)
			r.Post("/enrollments/group", s.handleEnrollGroup)
			r.Post("/quizzes/{quizID}/attempts", s.handleSubmitQuiz)
			r.Post("/lessons", s.handleCreateLesson)
			r.Post("/lessons/{lessonID}/quiz", s.handleGenerateQuiz)
			r.Post("/lessons/{lessonID}/complete", s.handleCompleteLesson)
			r.Get("/lessons/search", s.handleSearchLessons)
			r.Get("/progress/{courseID}", s.handleGetProgress)
			r.Get("/subscriptions/{organizationID}/status", s.handleSubscriptionStatus)
		})

		// Verification is deliberately unauthenticated: the gateway redirect
		// and the reconciler both land here, and the operation is idempotent.
		r.Post("/payments/{reference}/verify", s.handleVerifyPayment)
	})
}

// ---------------- auth ----------------

type ctxKey string

const userIDKey ctxKey = "user_id"

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		ctx := logging.WithUserID(r.Context(), claims.Subject)
		ctx = contextWithUserID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func requestUserID(r *http.Request) string {
	if v, ok := r.Context().Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// ---------------- handlers: auth ----------------

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	user, err := s.users.Register(r.Context(), in.Email, in.Name, in.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	user, err := s.users.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.auth.Mint(w, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not mint session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "user_id": user.ID})
}

func (s *Server) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	// The raw token is delivered out of band; the response never reveals
	// whether the address exists.
	if _, err := s.users.RequestPasswordReset(r.Context(), in.Email); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID      string `json:"user_id"`
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	if err := s.users.ResetPassword(r.Context(), in.UserID, in.Token, in.NewPassword); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------- handlers: payments ----------------

type paymentView struct {
	ID               string `json:"id"`
	Reference        string `json:"reference"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
}

func toPaymentView(p *model.Payment) paymentView {
	return paymentView{
		ID:               p.ID,
		Reference:        p.Reference,
		Status:           string(p.Status),
		Amount:           p.Amount,
		Currency:         p.Currency,
		AuthorizationURL: p.AuthorizationURL,
	}
}

func (s *Server) handleInitializePayment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Kind           string `json:"kind"` // course | subscription
		CourseID       string `json:"course_id"`
		OrganizationID string `json:"organization_id"`
		Plan           string `json:"plan"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	var intent model.PaymentIntent
	switch in.Kind {
	case "course":
		intent = model.CoursePurchase{CourseID: in.CourseID}
	case "subscription":
		intent = model.SubscriptionPurchase{OrganizationID: in.OrganizationID, Plan: in.Plan}
	default:
		writeError(w, http.StatusBadRequest, "unknown intent kind")
		return
	}

	payment, err := s.payments.Initialize(r.Context(), requestUserID(r), intent)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentView(payment))
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	outcome, err := s.payments.Verify(r.Context(), reference)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	resp := struct {
		paymentView
		Settled bool `json:"settled"`
	}{toPaymentView(outcome.Payment), outcome.Settled}
	writeJSON(w, http.StatusOK, resp)
}

// ---------------- handlers: enrollments ----------------

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID   string `json:"user_id"`
		CourseID string `json:"course_id"`
		Strict   bool   `json:"strict"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	if in.UserID == "" {
		in.UserID = requestUserID(r)
	}
	enr, created, err := s.enrollments.Enroll(r.Context(), in.UserID, in.CourseID, in.Strict)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{
		"id":        enr.ID,
		"user_id":   enr.UserID,
		"course_id": enr.CourseID,
		"status":    string(enr.Status),
		"created":   created,
	})
}

func (s *Server) handleEnrollGroup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		GroupID  string `json:"group_id"`
		CourseID string `json:"course_id"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	res, err := s.enrollments.EnrollGroup(r.Context(), in.GroupID, in.CourseID)
	if err != nil {
		if errors.Is(err, domain.ErrNothingToDo) && res != nil {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":                  "all members already enrolled",
				"enrolled_count":         res.EnrolledCount,
				"already_enrolled_count": res.AlreadyEnrolledCount,
			})
			return
		}
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"enrolled_count":         res.EnrolledCount,
		"already_enrolled_count": res.AlreadyEnrolledCount,
	})
}

// ---------------- handlers: quizzes & lessons ----------------

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	var in struct {
		Answers json.RawMessage `json:"answers"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	result, err := s.quizzes.Submit(r.Context(), requestUserID(r), quizID, in.Answers)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	resp := map[string]interface{}{
		"attempt_id": result.Attempt.ID,
		"score":      result.Attempt.Score,
		"passed":     result.Attempt.Passed,
	}
	if result.Progress != nil {
		resp["progress_percent"] = result.Progress.Percent
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CourseID       string   `json:"course_id"`
		Title          string   `json:"title"`
		Topic          string   `json:"topic"`
		Position       int      `json:"position"`
		ReferenceTexts []string `json:"reference_texts"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	lesson, err := s.lessons.CreateLesson(r.Context(), in.CourseID, in.Title, in.Topic, in.Position, in.ReferenceTexts)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        lesson.ID,
		"course_id": lesson.CourseID,
		"title":     lesson.Title,
		"position":  lesson.Position,
	})
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")
	var in struct {
		Count        int `json:"count"`
		PassingScore int `json:"passing_score"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	quiz, err := s.lessons.GenerateQuiz(r.Context(), lessonID, in.Count, in.PassingScore)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":             quiz.ID,
		"course_id":      quiz.CourseID,
		"lesson_id":      quiz.LessonID,
		"question_count": len(quiz.Questions),
		"passing_score":  quiz.PassingScore,
	})
}

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")
	progress, err := s.lessons.CompleteLesson(r.Context(), requestUserID(r), lessonID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressBody(progress))
}

func (s *Server) handleSearchLessons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	k, _ := strconv.Atoi(r.URL.Query().Get("k"))
	if k <= 0 {
		k = 10
	}
	var tags []string
	if course := r.URL.Query().Get("course_id"); course != "" {
		// Documents are indexed under "course:<id>" tags.
		tags = append(tags, "course:"+course)
	}
	lessons, err := s.lessons.SearchLessons(r.Context(), q, k, tags)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	items := make([]map[string]interface{}, 0, len(lessons))
	for _, l := range lessons {
		items = append(items, map[string]interface{}{
			"id":        l.ID,
			"course_id": l.CourseID,
			"title":     l.Title,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// ---------------- handlers: progress & subscriptions ----------------

func progressBody(p *model.Progress) map[string]interface{} {
	return map[string]interface{}{
		"user_id":           p.UserID,
		"course_id":         p.CourseID,
		"completed_lessons": p.CompletedLessons,
		"total_lessons":     p.TotalLessons,
		"percent":           p.Percent,
	}
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = requestUserID(r)
	}
	progress, err := s.progress.Get(r.Context(), userID, courseID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressBody(progress))
}

func (s *Server) handleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "organizationID")
	view, err := s.subscriptions.Status(r.Context(), orgID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	resp := map[string]interface{}{"active": view.Active}
	if view.Active {
		resp["plan"] = view.Plan
		resp["period_end"] = view.PeriodEnd
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---------------- plumbing ----------------

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinels onto HTTP statuses. Unknown errors
// are logged and hidden behind a 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNothingToDo):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrGatewayUnavailable):
		writeError(w, http.StatusBadGateway, "payment gateway unavailable")
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
