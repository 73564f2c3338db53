package middleware

import (
	"net"
	"net/http"
)

// ClientKey はリクエスト元クライアントの識別キー（RemoteAddrのホスト部）を返す。
// X-Forwarded-For等のヘッダーは信頼しない。
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}
