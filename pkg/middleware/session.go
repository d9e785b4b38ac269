package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/session"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// WithSession binds the sid cookie to store and gives every request its own
// tenancy.Context backed by that session.
func WithSession(store session.Store, finder tenancy.Finder, opts SessionOptions) mux.MiddlewareFunc {
	if opts.CookieName == "" {
		opts.CookieName = "sid"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setCookie := func(sid string) {
				setSessionCookie(w, &http.Cookie{
					Name:     opts.CookieName,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(opts.TTL.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			sid := ""
			if c, err := r.Cookie(opts.CookieName); err == nil {
				sid = c.Value
			}
			if sid == "" {
				id, err := session.NewID()
				if err != nil {
					composables.UseLogger(r.Context()).WithError(err).Error("failed to create session id")
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				sid = id
				setCookie(sid)
			}

			sess := session.New(store, sid).OnRotate(setCookie)
			ctx := session.WithSession(r.Context(), sess)
			tc := tenancy.NewContext(sess, finder).WithLogger(composables.UseLogger(ctx))
			ctx = tenancy.WithContext(ctx, tc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// setSessionCookie replaces any session cookie already queued on w.
func setSessionCookie(w http.ResponseWriter, c *http.Cookie) {
	h := w.Header()
	prefix := c.Name + "="
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	http.SetCookie(w, c)
}
