// AngelaMos | 2026
// handler.go

package cart

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts /cart. checkoutLimiter, if set, applies only to
// checkout.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	checkoutLimiter func(http.Handler) http.Handler,
) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Get)
		r.Post("/", h.Add)
		r.Put("/", h.Update)
		r.Delete("/{itemID}", h.Remove)

		if checkoutLimiter != nil {
			r.With(checkoutLimiter).Post("/checkout", h.Checkout)
		} else {
			r.Post("/checkout", h.Checkout)
		}
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCart(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToCartResponse(c))
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := core.DecodeAndValidate(w, r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	c, err := h.service.AddItem(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.ProductID,
		req.Quantity,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToCartResponse(c))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := core.DecodeAndValidate(w, r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	c, err := h.service.UpdateItem(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.ProductID,
		req.Quantity,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToCartResponse(c))
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	if err := h.service.RemoveItem(r.Context(), middleware.GetUserID(r.Context()), itemID); err != nil {
		writeError(w, err)
		return
	}

	core.Message(w, "item removed from cart")
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Checkout(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToCheckoutResponse(o))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		core.BadRequest(w, "quantity must be between 1 and 10000")
	case errors.Is(err, ErrEmptyCart):
		core.BadRequest(w, "cart is empty")
	case errors.Is(err, ErrItemNotFound):
		core.JSONError(w, core.NewAppError(
			err,
			"item not found in cart",
			http.StatusNotFound,
			"NOT_FOUND",
		))
	case errors.Is(err, ErrProductNotFound):
		core.NotFound(w, "product")
	case errors.Is(err, ErrCartNotFound):
		core.NotFound(w, "cart")
	default:
		core.InternalServerError(w, err)
	}
}
