package handlers

import (
	"bytes"
	"log"

	"github.com/valyala/fasthttp"

	"flightdash/internal/analytics"
	"flightdash/internal/collector"
	"flightdash/internal/config"
	httpctx "flightdash/internal/http/ctx"
	ui "flightdash/web"
)

type LayoutData struct {
	Title         string
	ActivePage    string
	PageTemplate  string
	Username      string
	LoggedIn      bool
	DashboardDays int
	Airlines      []string
	Statuses      []analytics.Status
	Categories    []string
}

// getLayoutData fills the data every page shares. Pages are public; the
// session cookie only decides whether admin controls are shown.
func getLayoutData(ctx *fasthttp.RequestCtx, cfg *config.Config, activePage, title, pageTemplate string) LayoutData {
	data := LayoutData{
		Title:         title,
		ActivePage:    activePage,
		PageTemplate:  pageTemplate,
		DashboardDays: cfg.DashboardDays,
		Airlines:      collector.Airlines,
		Statuses:      []analytics.Status{analytics.StatusHigh, analytics.StatusMedium, analytics.StatusLow},
		Categories:    analytics.Categories,
	}
	if cookie := ctx.Request.Header.Cookie(httpctx.SessionCookieKey); len(cookie) > 0 {
		if username, ok := httpctx.VerifySession(cfg.SecretKey, string(cookie)); ok {
			data.Username = username
			data.LoggedIn = true
		}
	}
	return data
}

func renderLayout(ctx *fasthttp.RequestCtx, data LayoutData) {
	var buf bytes.Buffer
	if err := ui.Templates().ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("render %s: %v", data.PageTemplate, err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("render error")
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

func Dashboard(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		renderLayout(ctx, getLayoutData(ctx, cfg, "dashboard", "Dashboard", "dashboard"))
	}
}

func RoutesPage(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		renderLayout(ctx, getLayoutData(ctx, cfg, "routes", "Route Analysis", "routes"))
	}
}

func InsightsPage(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		renderLayout(ctx, getLayoutData(ctx, cfg, "insights", "Market Insights", "insights"))
	}
}

// NotFound answers API paths with a JSON error and everything else with
// the 404 page.
func NotFound(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if bytes.HasPrefix(ctx.Path(), []byte("/api/")) {
			errResponse(ctx, fasthttp.StatusNotFound, "not found")
			return
		}
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		renderLayout(ctx, getLayoutData(ctx, cfg, "", "Page not found", "notfound"))
	}
}
