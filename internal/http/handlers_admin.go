package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"contributi/internal/auth"
	"contributi/internal/core"
	"contributi/internal/log"
)

type loginPage struct {
	Username string
	Next     string
	Error    string
}

type adminPage struct {
	Admin         string
	Contributions []core.Contribution
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.Current(r); ok {
		http.Redirect(w, r, panelPath, http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "admin_login.html", loginPage{Next: r.URL.Query().Get("next")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentAuth)

	form, err := parseLoginForm(w, r)
	if err != nil {
		logger.WarnContext(ctx, "Login rejected", log.FieldOperation, log.OpLogin, log.FieldError, err)
		s.render(w, r, http.StatusBadRequest, "admin_login.html", loginPage{
			Username: form.Username, Next: form.Next, Error: validationMessage(err),
		})
		return
	}

	admin, err := s.authenticator.Authenticate(ctx, form.Username)
	switch {
	case errors.Is(err, core.ErrValidation):
		s.render(w, r, http.StatusBadRequest, "admin_login.html", loginPage{
			Username: form.Username, Next: form.Next, Error: validationMessage(err),
		})
		return
	case errors.Is(err, auth.ErrUnknownAdmin):
		logger.WarnContext(ctx, "Login refused", log.FieldOperation, log.OpLogin,
			log.FieldAdmin, form.Username, log.FieldErrorType, log.ErrorTypeAuth)
		s.render(w, r, http.StatusUnauthorized, "admin_login.html", loginPage{
			Username: form.Username, Next: form.Next, Error: "unknown admin",
		})
		return
	case err != nil:
		s.writeError(w, r, err, log.OpLogin)
		return
	}

	if err := s.sessions.Login(w, admin); err != nil {
		s.writeError(w, r, err, log.OpLogin)
		return
	}

	logger.InfoContext(ctx, "Admin logged in", log.FieldOperation, log.OpLogin, log.FieldAdmin, admin.Username)
	http.Redirect(w, r, safeNext(form.Next, panelPath), http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(w)
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Admin logged out",
			log.FieldOperation, log.OpLogout, log.FieldAdmin, id.Username)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleAdminPanel(w http.ResponseWriter, r *http.Request) {
	all, err := s.contributions.All(r.Context())
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	s.render(w, r, http.StatusOK, "admin_panel.html", adminPage{
		Admin:         id.Username,
		Contributions: all,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}

	if err := s.contributions.Remove(r.Context(), id); err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}

	admin, _ := auth.IdentityFrom(r.Context())
	s.events.LogContributionDeleted(r.Context(), id, admin.Username)
	http.Redirect(w, r, panelPath, http.StatusFound)
}
