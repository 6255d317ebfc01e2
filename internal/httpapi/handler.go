package httpapi

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"oneonone/agenda-service/internal/agenda"
	"oneonone/agenda-service/internal/logging"
	"oneonone/agenda-service/internal/models"
	"oneonone/agenda-service/internal/pdf"
	"oneonone/agenda-service/internal/session"
	"oneonone/agenda-service/internal/store"
)

const (
	// FailureModeDocument delivers the PDF with an "agenda unavailable" section.
	FailureModeDocument = "document"
	// FailureModeError answers with an error page instead of a PDF.
	FailureModeError = "error"

	maxFormBytes = 1 << 20
)

type Handler struct {
	store       store.UserStore
	sessions    *session.Manager
	generator   agenda.Generator
	renderer    *pdf.Renderer
	limiter     *RateLimiter
	log         logging.Logger
	failureMode string
	pages       map[string]*template.Template
}

type Options struct {
	FailureMode string
	RateLimit   RateLimitConfig
}

type healthResponse struct {
	Status string `json:"status"`
}

func NewHandler(
	userStore store.UserStore,
	sessions *session.Manager,
	generator agenda.Generator,
	renderer *pdf.Renderer,
	log logging.Logger,
	options Options,
) (*Handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	failureMode := options.FailureMode
	if failureMode != FailureModeError {
		failureMode = FailureModeDocument
	}
	h := &Handler{
		store:       userStore,
		sessions:    sessions,
		generator:   generator,
		renderer:    renderer,
		limiter:     NewRateLimiter(options.RateLimit),
		log:         log,
		failureMode: failureMode,
		pages:       pages,
	}
	h.limiter.onLimit = func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, http.StatusTooManyRequests, "Too many requests", "Too many agendas were requested in a short time. Please wait a minute and try again.")
	}
	return h, nil
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/login", h.handleLogin)
	mux.Handle("/logout", h.requireLogin(http.HandlerFunc(h.handleLogout)))
	mux.Handle("/", h.requireLogin(http.HandlerFunc(h.handleMenu)))
	mux.Handle("/agenda", h.requireLogin(http.HandlerFunc(h.handleAgendaForm)))
	mux.Handle("/resume", h.requireLogin(http.HandlerFunc(h.handleResume)))
	mux.Handle("/generate", h.requireLogin(h.limiter.Middleware(http.HandlerFunc(h.handleGenerate))))
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := h.authenticate(w, r); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.renderPage(w, r, http.StatusOK, "login", pageData{
			Title: "Log in",
			Next:  r.URL.Query().Get("next"),
		})
	case http.MethodPost:
		h.login(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Bad request", "The login form could not be read.")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	next := r.PostForm.Get("next")

	err := h.store.Verify(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, store.ErrInvalidCredentials) {
			h.log.Error(r.Context(), "credential check failed", "error", err)
		}
		h.log.Info(r.Context(), "login failed", "user", username, "unknown_user", errors.Is(err, store.ErrUserNotFound))
		h.renderPage(w, r, http.StatusUnauthorized, "login", pageData{
			Title:     "Log in",
			Error:     "The username or password is incorrect.",
			Next:      next,
			LoginName: username,
		})
		return
	}

	identity, err := h.sessions.Login(w, username)
	if err != nil {
		h.log.Error(r.Context(), "issue session", "user", username, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "Login failed", "The session could not be created.")
		return
	}
	setRequestUser(r.Context(), identity.Username)
	h.log.Info(r.Context(), "login succeeded", "user", identity.Username, "session_id", identity.SessionID)
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if identity, ok := IdentityFromContext(r.Context()); ok {
		h.log.Info(r.Context(), "logout", "user", identity.Username, "session_id", identity.SessionID)
	}
	h.sessions.Logout(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleMenu(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.handleStatic(w, r, "menu", "Menu")
}

func (h *Handler) handleAgendaForm(w http.ResponseWriter, r *http.Request) {
	h.handleStatic(w, r, "agenda", "1on1 Meeting Agenda")
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	h.handleStatic(w, r, "resume", "Resume")
}

func (h *Handler) handleStatic(w http.ResponseWriter, r *http.Request, page, title string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	identity, _ := IdentityFromContext(r.Context())
	h.renderPage(w, r, http.StatusOK, page, pageData{Title: title, Username: identity.Username})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	identity, _ := IdentityFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return
	}
	intake := intakeFromForm(r)
	if missing := intake.Missing(); len(missing) > 0 {
		h.renderPage(w, r, http.StatusBadRequest, "agenda", pageData{
			Title:    "1on1 Meeting Agenda",
			Username: identity.Username,
			Error:    "Please fill in every required field.",
			Intake:   intake,
			Missing:  missing,
		})
		return
	}

	start := time.Now()
	result := h.generator.Generate(r.Context(), intake)
	generationsTotal.Add(1)
	status := "generated"
	if result.Failed() {
		generationFailures.Add(1)
		status = "failed"
		h.log.Warn(r.Context(), "agenda generation failed", "user", identity.Username, "error", result.Err)
		if h.failureMode == FailureModeError {
			h.writeError(w, r, http.StatusBadGateway, "Agenda unavailable", result.Reason())
			return
		}
	}

	document, err := h.renderer.Render(pdf.Document{Intake: intake, Result: result, Author: identity.Username})
	if err != nil {
		h.log.Error(r.Context(), "render agenda pdf", "user", identity.Username, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "PDF error", "The agenda PDF could not be created.")
		return
	}

	h.log.Info(r.Context(), "agenda delivered",
		"user", identity.Username,
		"status", status,
		"bytes", len(document),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	w.Header().Set("Content-Type", pdf.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+pdf.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(document)))
	w.Header().Set("X-Agenda-Status", status)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

func intakeFromForm(r *http.Request) models.Intake {
	return models.Intake{
		Personality:     r.PostForm.Get("personality"),
		Role:            r.PostForm.Get("role"),
		Skills:          r.PostForm.Get("skills"),
		Experience:      r.PostForm.Get("experience"),
		CareerGoal:      r.PostForm.Get("career_goal"),
		Motivation:      r.PostForm.Get("motivation"),
		AdditionalNotes: r.PostForm.Get("additional_notes"),
	}.Normalize()
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
