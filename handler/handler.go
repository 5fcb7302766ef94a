package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	models "storefront/model"
	"storefront/service"
	"storefront/store"
)

// SessionStore is the session/cart boundary the handlers need.
type SessionStore interface {
	Create(ctx context.Context, customerID int64) (string, error)
	Customer(ctx context.Context, token string) (int64, error)
	Destroy(ctx context.Context, token string) error
	SetCartLine(ctx context.Context, token string, productID int64, quantity int) error
	RemoveCartLine(ctx context.Context, token string, productID int64) error
	Cart(ctx context.Context, token string) (map[int64]int, error)
	ClearCart(ctx context.Context, token string) error
}

// Handler is the HTTP layer over the service and session store.
type Handler struct {
	svc      service.ServiceInterface
	sessions SessionStore
}

func NewHandler(svc service.ServiceInterface, sessions SessionStore) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// RegisterRoutes registers all routes on the provided router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Customers
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/logout", h.RequireSession(h.Logout)).Methods("POST")

	// Products; create and stock update are admin operations and require a
	// session like every other mutating route
	r.HandleFunc("/products", h.RequireSession(h.CreateProduct)).Methods("POST")
	r.HandleFunc("/products/list", h.ListProducts).Methods("GET")
	r.HandleFunc("/products/stock", h.RequireSession(h.UpdateStock)).Methods("POST")

	// Cart
	r.HandleFunc("/cart/add", h.RequireSession(h.AddToCart)).Methods("POST")
	r.HandleFunc("/cart/remove", h.RequireSession(h.RemoveFromCart)).Methods("POST")
	r.HandleFunc("/cart/list", h.RequireSession(h.ListCart)).Methods("GET")

	// Checkout & receipt
	r.HandleFunc("/checkout/order", h.RequireSession(h.Checkout)).Methods("POST")
	r.HandleFunc("/receipt", h.RequireSession(h.Receipt)).Methods("POST")

	r.HandleFunc("/health", h.Health).Methods("GET")
}

// --- request / response shapes ---

type registerReq struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createProductReq struct {
	Name  string  `json:"name"`
	Brand string  `json:"brand"`
	Size  string  `json:"size"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type updateStockReq struct {
	ProductID int64 `json:"product_id"`
	NewStock  int   `json:"new_stock"`
}

type cartLineReq struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity,omitempty"`
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeServiceErr maps the typed checkout/receipt errors onto HTTP codes.
func writeServiceErr(w http.ResponseWriter, err error) {
	var notFound *store.ProductNotFoundError
	var noStock *store.InsufficientStockError

	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":      "product not found",
			"product_id": notFound.ProductID,
		})
	case errors.As(err, &noStock):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":      "insufficient stock",
			"product_id": noStock.ProductID,
			"available":  noStock.Available,
			"requested":  noStock.Requested,
		})
	case errors.Is(err, store.ErrNoSalesFound):
		writeErr(w, http.StatusNotFound, "no sales found")
	case errors.Is(err, service.ErrEmptyCart):
		writeErr(w, http.StatusBadRequest, "cart is empty")
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Customers ---

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.svc.Register(r.Context(), req.Name, req.Surname, req.Email, req.Password, req.Phone)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeErr(w, http.StatusConflict, "email already registered")
			return
		}
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// Login handles POST /login and opens a session on success.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	customer, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeErr(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := h.sessions.Create(r.Context(), customer.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "could not create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":    token,
		"customer": customer,
	})
}

// Logout handles POST /logout; destroys the session and its cart.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), SessionToken(r.Context())); err != nil {
		writeErr(w, http.StatusInternalServerError, "logout failed")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// --- Products ---

// CreateProduct handles POST /products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.svc.CreateProduct(r.Context(), req.Name, req.Brand, req.Size, req.Price, req.Stock)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// ListProducts handles GET /products/list
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// UpdateStock handles POST /products/stock
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req updateStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == 0 {
		writeErr(w, http.StatusBadRequest, "product_id required")
		return
	}
	if err := h.svc.UpdateStock(r.Context(), req.ProductID, req.NewStock); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Cart ---

// AddToCart handles POST /cart/add. The stored quantity is the requested
// one; adding the same product again replaces the line.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Quantity <= 0 {
		writeErr(w, http.StatusBadRequest, "quantity must be > 0")
		return
	}

	// reject unknown products before they reach the cart
	if _, _, err := h.svc.PriceCart(r.Context(), map[int64]int{req.ProductID: req.Quantity}); err != nil {
		writeServiceErr(w, err)
		return
	}

	if err := h.sessions.SetCartLine(r.Context(), SessionToken(r.Context()), req.ProductID, req.Quantity); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

// RemoveFromCart handles POST /cart/remove
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.sessions.RemoveCartLine(r.Context(), SessionToken(r.Context()), req.ProductID); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListCart handles GET /cart/list
func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.sessions.Cart(r.Context(), SessionToken(r.Context()))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	lines, total, err := h.svc.PriceCart(r.Context(), cart)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": lines, "total": total})
}

// --- Checkout & receipt ---

// Checkout handles POST /checkout/order. The cart is cleared only after
// the checkout committed.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := SessionToken(ctx)

	cart, err := h.sessions.Cart(ctx, token)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	sales, err := h.svc.Checkout(ctx, CustomerID(ctx), cart)
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	if err := h.sessions.ClearCart(ctx, token); err != nil {
		// the sale is committed; an uncleaned cart is recoverable
		log.Printf("clear cart after checkout: %v", err)
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"sales": sales})
}

// Receipt handles POST /receipt and streams the PDF as a download.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	var shipping models.ShippingDetails
	if err := json.NewDecoder(r.Body).Decode(&shipping); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	doc, err := h.svc.Receipt(r.Context(), CustomerID(r.Context()), shipping)
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="receipt.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
