package middleware

import (
	"bytes"
	"context"
	"errors"
	"log"

	"github.com/valyala/fasthttp"

	"flightdash/internal/config"
	dbpkg "flightdash/internal/db"
	httpctx "flightdash/internal/http/ctx"
)

type UserFinder interface {
	FindUser(ctx context.Context, username string) (*dbpkg.User, error)
}

// AdminAuth returns middleware that loads the signed session user and sets it
// on the context. Pages redirect to /login; API calls get a 401 JSON body.
func AdminAuth(users UserFinder, cfg *config.Config) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			cookie := ctx.Request.Header.Cookie(httpctx.SessionCookieKey)
			if len(cookie) == 0 {
				deny(ctx)
				return
			}
			username, ok := httpctx.VerifySession(cfg.SecretKey, string(cookie))
			if !ok {
				deny(ctx)
				return
			}

			user, err := users.FindUser(ctx, username)
			if err != nil {
				if !errors.Is(err, dbpkg.ErrNotFound) {
					log.Printf("admin auth: load user %q: %v", username, err)
				}
				deny(ctx)
				return
			}

			if user.Username == cfg.AdminUser {
				user.IsAdmin = true
			}
			if !user.IsAdmin {
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				ctx.SetContentType("application/json")
				ctx.SetBodyString(`{"status":"error","message":"forbidden"}`)
				return
			}

			httpctx.SetUser(ctx, user)
			next(ctx)
		}
	}
}

func deny(ctx *fasthttp.RequestCtx) {
	if bytes.HasPrefix(ctx.Path(), []byte("/api/")) {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"status":"error","message":"login required"}`)
		return
	}
	ctx.Redirect("/login", fasthttp.StatusSeeOther)
}
