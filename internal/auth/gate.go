package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"contributi/internal/core"
)

// Gate rejects anonymous requests to admin-only handlers.
type Gate struct {
	sessions  *SessionManager
	admins    AdminStore
	loginPath string
}

func NewGate(sessions *SessionManager, admins AdminStore, loginPath string) *Gate {
	return &Gate{sessions: sessions, admins: admins, loginPath: loginPath}
}

// RequireAdmin runs next only for a session whose admin still exists.
// Everyone else is redirected to the login page and next never runs.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := g.sessions.Current(r)
		if !ok {
			g.redirectToLogin(w, r)
			return
		}

		admin, err := g.admins.GetAdmin(r.Context(), id.AdminID)
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(r.Context(), "Session refers to a missing admin", "admin_id", id.AdminID)
			g.sessions.Logout(w)
			g.redirectToLogin(w, r)
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Admin lookup failed", "admin_id", id.AdminID, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		ctx := WithIdentity(r.Context(), Identity{AdminID: admin.ID, Username: admin.Username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := g.loginPath + "?next=" + url.QueryEscape(r.URL.Path)
	slog.InfoContext(r.Context(), "Admin-only route requested anonymously", "path", r.URL.Path)
	http.Redirect(w, r, target, http.StatusFound)
}
