package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/valyala/fasthttp"

	httpctx "flightdash/internal/http/ctx"
)

// now is replaced in tests.
var now = time.Now

// RequestLogger returns fasthttp middleware that logs method, path, status, duration.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		log.Printf("%s %s -> %d (%s) ip=%s", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start), ctx.RemoteAddr())
	}
}

// actor names the session user for audit log lines.
func actor(ctx *fasthttp.RequestCtx) string {
	if user, ok := httpctx.UserFromCtx(ctx); ok {
		return user.Username
	}
	return "anonymous"
}

func jsonResponse(ctx *fasthttp.RequestCtx, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Printf("encode response for %s: %v", ctx.Path(), err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"status":"error","message":"failed to encode response"}`)
		return
	}
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func success(ctx *fasthttp.RequestCtx, data any) {
	jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"status": "success", "data": data})
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	jsonResponse(ctx, code, map[string]any{"status": "error", "message": msg})
}

// internalError logs err and answers with a generic 500.
func internalError(ctx *fasthttp.RequestCtx, msg string, err error) {
	log.Printf("%s %s: %s: %v", ctx.Method(), ctx.Path(), msg, err)
	errResponse(ctx, fasthttp.StatusInternalServerError, msg)
}

func invalidate(ctx context.Context, cache DashboardCache) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateDashboard(ctx); err != nil {
		log.Printf("warning: invalidate dashboard cache: %v", err)
	}
}
