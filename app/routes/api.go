// Package routes mounts the gateway's HTTP surface onto the router: the
// screen endpoints, the WebSocket state stream, the GraphQL query surface,
// and the operational endpoints.
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	gql "github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/session"
	"github.com/shashiranjanraj/storefront/pkg/sse"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

const maxUploadBytes = 32 << 20

// Deps carries everything the route handlers need.
type Deps struct {
	Registry    *controllers.Registry
	Schema      gql.Schema
	Hub         *ws.Hub
	SessionOpts session.Options
}

// Register mounts all routes.
func Register(r *router.Router, deps Deps) {
	h := &handlers{deps: deps}

	r.Use(
		metrics.Middleware(),
		reqid.Middleware(),
		middleware.Recovery,
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.Authenticate,
	)

	screens := r.Group("/api/screens")
	screens.Get("/orders/{id}", "screens.order", h.orderVisit)
	screens.Post("/orders/{id}/payment", "screens.order.payment", h.orderPayment)
	screens.Post("/orders/{id}/deliver", "screens.order.deliver", h.orderDeliver, middleware.RequireAdmin)

	screens.Get("/products/{id}", "screens.product", h.productVisit)
	screens.Put("/products/{id}/qty", "screens.product.qty", h.productQty)
	screens.Post("/products/{id}/reviews", "screens.product.review", h.productReview)
	screens.Post("/products/{id}/cart", "screens.product.cart", h.productCart)

	admin := screens.Group("/admin", middleware.RequireAdmin)
	admin.Get("/products/{id}/edit", "screens.edit", h.editVisit)
	admin.Put("/products/{id}", "screens.edit.submit", h.editSubmit)
	admin.Post("/products/{id}/image", "screens.edit.image", h.editImage)

	r.Get("/ws/screens", "screens.stream", h.stream)
	r.Get("/sse/screens", "screens.stream.sse", h.streamSSE)
	r.Post("/graphql", "graphql", graphql.Handler(deps.Schema))
	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/healthz", "healthz", h.healthz)
}

type handlers struct {
	deps Deps
}

func (h *handlers) viewer(r *http.Request) *controllers.Viewer {
	claims := middleware.CurrentUser(r.Context())
	if claims == nil {
		return nil
	}
	return &controllers.Viewer{
		UserID:  claims.UserID,
		Name:    claims.Name,
		IsAdmin: claims.IsAdmin,
		Token:   middleware.BearerToken(r.Context()),
	}
}

func (h *handlers) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := session.ID(w, r, h.deps.SessionOpts)
	if err != nil {
		logger.WithCtx(r.Context()).Error("session id", "error", err)
		response.Error(w, http.StatusInternalServerError, "Session unavailable")
		return "", false
	}
	return id, true
}

// lastScreenKey stores the session's active screen in the session value
// store, so a stream that (re)connects can replay the current snapshot
// instead of waiting for the next transition.
const lastScreenKey = "last_screen"

type lastScreen struct {
	Screen string `json:"screen"`
	ID     string `json:"id"`
}

func (h *handlers) rememberScreen(ctx context.Context, sid, screen, id string) {
	err := session.Put(sid, lastScreenKey, lastScreen{Screen: screen, ID: id}, h.deps.SessionOpts.TTL)
	if err != nil {
		logger.WithCtx(ctx).Debug("remember screen", "error", err)
	}
}

// replaySnapshot resolves the session's active screen to its current
// snapshot, viewer-adjusted, for stream replay on connect.
func (h *handlers) replaySnapshot(r *http.Request, sid string) (controllers.ScreenEvent, bool) {
	var last lastScreen
	if !session.Get(sid, lastScreenKey, &last) {
		return controllers.ScreenEvent{}, false
	}

	var snap interface{}
	switch last.Screen {
	case "order":
		snap = h.deps.Registry.Order(sid).Snapshot(h.viewer(r))
	case "product":
		snap = h.deps.Registry.Product(sid).Snapshot(h.viewer(r))
	case "product_edit":
		snap = h.deps.Registry.ProductEdit(sid).Snapshot()
	default:
		return controllers.ScreenEvent{}, false
	}
	return controllers.ScreenEvent{Session: sid, Screen: last.Screen, Snapshot: snap}, true
}

// fail maps the controller sentinels onto HTTP responses.
func (h *handlers) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, controllers.ErrSignInRequired):
		response.Redirect(w, config.SignInRoute())
	case errors.Is(err, controllers.ErrNotPermitted):
		response.Forbidden(w)
	case errors.Is(err, controllers.ErrUploadInFlight):
		response.Error(w, http.StatusConflict, err.Error())
	default:
		response.Error(w, http.StatusBadRequest, err.Error())
	}
}

// ─── Order screen ────────────────────────────────────────────────────────────

func (h *handlers) orderVisit(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	snap, err := h.deps.Registry.Order(sid).Visit(r.Context(), h.viewer(r), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.rememberScreen(r.Context(), sid, "order", id)
	response.Success(w, snap)
}

func (h *handlers) orderPayment(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var result models.PaymentResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid payment payload")
		return
	}

	snap, err := h.deps.Registry.Order(sid).ConfirmPayment(r.Context(), h.viewer(r), result)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.Success(w, snap)
}

func (h *handlers) orderDeliver(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	snap, err := h.deps.Registry.Order(sid).MarkDelivered(r.Context(), h.viewer(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	response.Success(w, snap)
}

// ─── Product screen ──────────────────────────────────────────────────────────

func (h *handlers) productVisit(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	snap := h.deps.Registry.Product(sid).Visit(r.Context(), h.viewer(r), id)
	h.rememberScreen(r.Context(), sid, "product", id)
	response.Success(w, snap)
}

func (h *handlers) productQty(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var body struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid quantity payload")
		return
	}

	snap, err := h.deps.Registry.Product(sid).SetQty(h.viewer(r), body.Qty)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.Success(w, snap)
}

func (h *handlers) productReview(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var draft models.ReviewDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review payload")
		return
	}

	snap, err := h.deps.Registry.Product(sid).SubmitReview(r.Context(), h.viewer(r), draft)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.Success(w, snap)
}

func (h *handlers) productCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	target, err := h.deps.Registry.Product(sid).AddToCart(h.viewer(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	response.Redirect(w, target)
}

// ─── Product edit screen (admin) ─────────────────────────────────────────────

func (h *handlers) editVisit(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	snap, err := h.deps.Registry.ProductEdit(sid).Visit(r.Context(), h.viewer(r), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.rememberScreen(r.Context(), sid, "product_edit", id)
	response.Success(w, snap)
}

func (h *handlers) editSubmit(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var draft models.ProductDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid draft payload")
		return
	}

	snap, redirect, err := h.deps.Registry.ProductEdit(sid).Submit(r.Context(), h.viewer(r), draft)
	if err != nil {
		h.fail(w, err)
		return
	}
	// The client navigates to the product list; a reconnecting stream must
	// not replay the screen that was just left.
	if err := session.Forget(sid, lastScreenKey); err != nil {
		logger.WithCtx(r.Context()).Debug("forget screen", "error", err)
	}
	response.Success(w, map[string]interface{}{
		"snapshot": snap,
		"redirect": redirect,
	})
}

func (h *handlers) editImage(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing image field")
		return
	}
	defer file.Close()

	snap, err := h.deps.Registry.ProductEdit(sid).UploadImage(r.Context(), h.viewer(r), header.Filename, file)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.Success(w, snap)
}

// ─── Stream & ops ────────────────────────────────────────────────────────────

func (h *handlers) stream(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := ws.Upgrade(w, r, h.deps.Hub, sid); err != nil {
		logger.WithCtx(r.Context()).Warn("ws upgrade failed", "error", err)
		return
	}

	// Upgrade returns with the client registered, so the replay lands on
	// this connection.
	if ev, ok := h.replaySnapshot(r, sid); ok {
		if data, err := json.Marshal(ev); err == nil {
			h.deps.Hub.SendTo(sid, data)
		}
	}
}

// streamSSE is the EventSource fallback for clients that cannot hold a
// WebSocket. It delivers the same snapshots, filtered to the session.
func (h *handlers) streamSSE(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	stream := sse.New(w, r)
	if stream == nil {
		return
	}

	updates, cancel := event.Subscribe(event.ScreenUpdated, 16)
	defer cancel()

	if ev, ok := h.replaySnapshot(r, sid); ok {
		if err := stream.Send("screen", ev); err != nil {
			return
		}
	}

	stream.Pump(updates, func(payload interface{}) bool {
		ev, ok := payload.(controllers.ScreenEvent)
		return ok && ev.Session == sid
	})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{"status": "ok"})
}
