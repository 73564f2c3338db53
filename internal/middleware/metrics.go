package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestRecorder はHTTPリクエストのメトリクスを記録する。
type RequestRecorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
}

// NewMetricsMiddleware はリクエスト数とレイテンシを記録するミドルウェアを返す。
// routeにはchiのルートパターン（/api/users/{id}等）を使い、IDごとにラベルが増えないようにする。
// パターンが解決できない場合（404等）は"unmatched"とする。
func NewMetricsMiddleware(recorder RequestRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			recorder.RecordRequest(r.Method, route, rec.statusCode, time.Since(start))
		})
	}
}
