package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/listkeep/listkeep-server/internal/logger"
)

const (
	viewerCookieName   = "lk_viewer"
	viewerCookieMaxAge = 365 * 24 * time.Hour
)

// requestLogger attaches a request-scoped logger and the client IP to the
// context and logs each request once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := s.logger.With("request_id", middleware.GetReqID(r.Context()))

		ctx := logger.NewContext(r.Context(), log)
		ctx = context.WithValue(ctx, clientIPKey, getClientIP(r))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		log.Debug("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// authMiddleware resolves an optional bearer token. Missing or invalid
// tokens leave the request anonymous; handlers decide what that means.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ref, err := s.services.Auth.ResolveIdentity(r.Context(), token)
		if err != nil {
			logger.FromContext(r.Context(), s.logger).Warn("identity lookup failed, continuing anonymously", "error", err)
		}
		if ref == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, ref)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withViewerKey derives the key used to de-duplicate list views. Known
// identities are keyed by id in the service; anonymous viewers by the
// lk_viewer cookie, or by client IP until the browser returns the cookie.
func (s *Server) withViewerKey(ctx huma.Context, next func(huma.Context)) {
	key := ""
	if cookies, err := http.ParseCookie(ctx.Header("Cookie")); err == nil {
		for _, c := range cookies {
			if c.Name != viewerCookieName {
				continue
			}
			if id, err := uuid.Parse(c.Value); err == nil {
				key = "anon:" + id.String()
			}
		}
	}

	if key == "" {
		key = "ip:" + clientIPFromContext(ctx.Context())
		cookie := &http.Cookie{
			Name:     viewerCookieName,
			Value:    uuid.NewString(),
			Path:     "/",
			MaxAge:   int(viewerCookieMaxAge.Seconds()),
			HttpOnly: true,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteLaxMode,
		}
		ctx.AppendHeader("Set-Cookie", cookie.String())
	}

	next(huma.WithValue(ctx, viewerKey, key))
}

// limitAuth throttles credential endpoints per client IP.
func (s *Server) limitAuth(ctx huma.Context, next func(huma.Context)) {
	ip := clientIPFromContext(ctx.Context())
	if s.authLimiter != nil && !s.authLimiter.Allow(ip) {
		s.rejectRateLimited(ctx, ip)
		return
	}
	next(ctx)
}

// limitAnonymousViews throttles list fetches by anonymous callers per
// client IP. Identified callers are not limited here.
func (s *Server) limitAnonymousViews(ctx huma.Context, next func(huma.Context)) {
	if Identity(ctx.Context()) == nil && s.viewLimiter != nil {
		ip := clientIPFromContext(ctx.Context())
		if !s.viewLimiter.Allow(ip) {
			s.rejectRateLimited(ctx, ip)
			return
		}
	}
	next(ctx)
}

func (s *Server) rejectRateLimited(ctx huma.Context, ip string) {
	logger.FromContext(ctx.Context(), s.logger).Warn("rate limit exceeded",
		"ip", ip,
		"operation", ctx.Operation().OperationID,
	)
	_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests, please try again later")
}

// getClientIP extracts the client IP. chi's RealIP middleware has already
// folded X-Forwarded-For and X-Real-IP into RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
