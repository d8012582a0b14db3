package handlers

import (
	"bytes"
	"errors"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	"flightdash/internal/config"
	dbpkg "flightdash/internal/db"
	httpctx "flightdash/internal/http/ctx"
	ui "flightdash/web"
)

func LoginForm(_ *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		renderLogin(ctx, fasthttp.StatusOK, nil)
	}
}

func LoginSubmit(users UserFinder, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		username := string(ctx.PostArgs().Peek("username"))
		password := string(ctx.PostArgs().Peek("password"))

		user, err := users.FindUser(ctx, username)
		if err != nil {
			if errors.Is(err, dbpkg.ErrNotFound) {
				renderLoginError(ctx, "Invalid username or password.")
				return
			}
			internalError(ctx, "database error", err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			renderLoginError(ctx, "Invalid username or password.")
			return
		}

		var c fasthttp.Cookie
		c.SetKey(httpctx.SessionCookieKey)
		c.SetValue(httpctx.SignSession(cfg.SecretKey, user.Username))
		c.SetPath("/")
		c.SetHTTPOnly(true)
		c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
		ctx.Response.Header.SetCookie(&c)

		ctx.Redirect("/", fasthttp.StatusSeeOther)
	}
}

func renderLoginError(ctx *fasthttp.RequestCtx, errMsg string) {
	renderLogin(ctx, fasthttp.StatusUnauthorized, map[string]any{"Error": errMsg})
}

func renderLogin(ctx *fasthttp.RequestCtx, code int, data map[string]any) {
	t := ui.Templates().Lookup("login.html")
	if t == nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("login template not found")
		return
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("render error")
		return
	}
	ctx.SetStatusCode(code)
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

func Logout() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var c fasthttp.Cookie
		c.SetKey(httpctx.SessionCookieKey)
		c.SetValue("")
		c.SetPath("/")
		c.SetMaxAge(-1)
		ctx.Response.Header.SetCookie(&c)
		ctx.Redirect("/login", fasthttp.StatusSeeOther)
	}
}
