package middleware

import (
	"bytes"
	"crypto/subtle"
	"strings"

	"github.com/valyala/fasthttp"

	"flightdash/internal/config"
)

// BearerImport validates the Bearer token of import requests against
// APP_IMPORT_TOKEN. Imports are refused outright when no token is configured.
func BearerImport(cfg *config.Config) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if cfg.ImportToken == "" {
				reject(ctx, fasthttp.StatusForbidden, "flight import is disabled")
				return
			}

			auth := ctx.Request.Header.Peek("Authorization")
			if len(auth) == 0 {
				reject(ctx, fasthttp.StatusUnauthorized, "missing Authorization header")
				return
			}

			const prefix = "Bearer "
			if !bytes.HasPrefix(auth, []byte(prefix)) {
				reject(ctx, fasthttp.StatusUnauthorized, "invalid Authorization header")
				return
			}

			token := strings.TrimSpace(string(auth[len(prefix):]))
			if token == "" {
				reject(ctx, fasthttp.StatusUnauthorized, "empty bearer token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.ImportToken)) != 1 {
				reject(ctx, fasthttp.StatusUnauthorized, "invalid import token")
				return
			}

			next(ctx)
		}
	}
}

func reject(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"status":"error","message":"` + msg + `"}`)
}
