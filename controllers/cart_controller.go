package controllers

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/DanielTrujilloS/DafaMedicSistema/cart"
	"github.com/DanielTrujilloS/DafaMedicSistema/models"
	"github.com/DanielTrujilloS/DafaMedicSistema/repository"
)

type ProductFinder interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

// CartController keeps one cart per browser, keyed by the cart cookie.
type CartController struct {
	storage  cart.Storage
	products ProductFinder
	cookie   CookieOptions
	locks    cartLocks
}

const cartLockStripes = 64

// cartLocks serializes mutations of one cart within this process. Several
// instances sharing Redis can still interleave writes to the same cart.
type cartLocks [cartLockStripes]sync.Mutex

func (l *cartLocks) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	m := &l[h.Sum32()%cartLockStripes]
	m.Lock()
	return m.Unlock
}

func NewCartController(storage cart.Storage, products ProductFinder, cookie CookieOptions) *CartController {
	return &CartController{storage: storage, products: products, cookie: cookie}
}

type cartView struct {
	Items           []cart.Line `json:"items"`
	TotalItems      int         `json:"totalItems"`
	SubtotalCents   int64       `json:"subtotalCents"`
	ShippingCents   int64       `json:"shippingCents"`
	TotalCents      int64       `json:"totalCents"`
	SubtotalDisplay string      `json:"subtotalDisplay"`
	TotalDisplay    string      `json:"totalDisplay"`
}

func viewOf(s *cart.Store) cartView {
	return cartView{
		Items:           s.Items(),
		TotalItems:      s.TotalItems(),
		SubtotalCents:   s.SubtotalCents(),
		ShippingCents:   s.ShippingCents(),
		TotalCents:      s.TotalCents(),
		SubtotalDisplay: models.FormatMoney(s.SubtotalCents(), models.DefaultCurrency),
		TotalDisplay:    models.FormatMoney(s.TotalCents(), models.DefaultCurrency),
	}
}

// cartID reuses the cookie when it holds a UUID and mints a new one
// otherwise.
func (cc *CartController) cartID(c *gin.Context) string {
	if v, err := c.Cookie(cc.cookie.Name); err == nil {
		if id, err := uuid.Parse(v); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	cc.cookie.set(c, id, cc.cookie.MaxAge)
	return id
}

// mutate loads the cart, applies fn and saves it. fn returning an error
// aborts without saving.
func (cc *CartController) mutate(c *gin.Context, fn func(*cart.Store) error) {
	id := cc.cartID(c)
	ctx := c.Request.Context()
	if fn != nil {
		defer cc.locks.lock(id)()
	}

	store, err := cart.Load(ctx, cc.storage, id)
	if err != nil {
		slog.Error("Failed to load cart", "cart_id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al cargar el carrito"})
		return
	}
	if fn != nil {
		if err := fn(store); err != nil {
			cc.fail(c, err)
			return
		}
		if err := cart.Save(ctx, cc.storage, id, store); err != nil {
			slog.Error("Failed to save cart", "cart_id", id, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al guardar el carrito"})
			return
		}
	}
	c.JSON(http.StatusOK, viewOf(store))
}

var errUnavailable = errors.New("product unavailable")

func (cc *CartController) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
	case errors.Is(err, errUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "Producto sin stock o inactivo"})
	default:
		slog.Error("Cart operation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al actualizar el carrito"})
	}
}

func (cc *CartController) GetCart(c *gin.Context) {
	cc.mutate(c, nil)
}

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (cc *CartController) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := cc.products.FindByID(c.Request.Context(), req.ProductID)
	if err != nil {
		cc.fail(c, err)
		return
	}

	cc.mutate(c, func(s *cart.Store) error {
		if !s.AddItem(cart.FromProduct(*p), req.Quantity) {
			return errUnavailable
		}
		return nil
	})
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (cc *CartController) SetQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	productID := c.Param("productId")
	cc.mutate(c, func(s *cart.Store) error {
		s.SetQuantity(productID, req.Quantity)
		return nil
	})
}

type stepRequest struct {
	Step int `json:"step"`
}

// bindStep accepts an empty body, meaning a step of one.
func bindStep(c *gin.Context) (int, bool) {
	var req stepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return 0, false
		}
	}
	return req.Step, true
}

func (cc *CartController) Increase(c *gin.Context) {
	step, ok := bindStep(c)
	if !ok {
		return
	}
	productID := c.Param("productId")
	cc.mutate(c, func(s *cart.Store) error {
		s.Increase(productID, step)
		return nil
	})
}

func (cc *CartController) Decrease(c *gin.Context) {
	step, ok := bindStep(c)
	if !ok {
		return
	}
	productID := c.Param("productId")
	cc.mutate(c, func(s *cart.Store) error {
		s.Decrease(productID, step)
		return nil
	})
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	productID := c.Param("productId")
	cc.mutate(c, func(s *cart.Store) error {
		s.RemoveItem(productID)
		return nil
	})
}

func (cc *CartController) Clear(c *gin.Context) {
	cc.mutate(c, func(s *cart.Store) error {
		s.Clear()
		return nil
	})
}
