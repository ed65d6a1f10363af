package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// PageMiddleware is the chain applied to every page.
func (s *Server) PageMiddleware() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.FrameSecurityMiddleware,
		s.CorsMiddleware(),
	}
}

func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		if s.env == "DEV" {
			log.Debug().Msgf("[%s] %s %s%d%s %s", colourMethod(r.Method), r.URL.Path,
				colourStatus(ww.Status()), ww.Status(), ResetColor, time.Since(start).Round(time.Microsecond))
			return
		}
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) FrameSecurityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent embedding on other sites
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic")
			writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred", nil)
		}()
		next.ServeHTTP(w, r)
	})
}

// CorsMiddleware allows the configured origins. Credentials are only
// allowed for explicit origins, never for a wildcard.
func (s *Server) CorsMiddleware() func(http.Handler) http.Handler {
	origins := s.allowedOrigins.List()
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   s.allowedMethods,
		AllowedHeaders:   s.allowedHeaders,
		AllowCredentials: !s.allowedOrigins.IsAllowedOrigin("*"),
		MaxAge:           86400,
	})
}
