package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alexanderramin/phasehours/internal/contract"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type actorKey struct{}

func actorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// requireActor rejects requests without an X-User-ID header.
func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" {
			writeJSON(w, http.StatusUnauthorized, contract.ErrorFrom(domain.Validationf("missing %s header", ActorHeader)))
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("actor", r.Header.Get(ActorHeader)),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()))
		}()
		next.ServeHTTP(ww, r)
	})
}
