package http

import (
	_ "github.com/DRSN-tech/shop-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(orderUC usecase.OrderUC, prUC usecase.ProductUC, cartUC usecase.CartUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		prHandler := NewProductHandler(prUC, r.logger)
		registerProductRoutes(v1, prHandler)

		v1.Group(func(authed chi.Router) {
			authed.Use(authMiddleware)

			orderHandler := NewOrderHandler(orderUC, r.logger)
			registerOrderRoutes(authed, orderHandler)

			cartHandler := NewCartHandler(cartUC, r.logger)
			registerCartRoutes(authed, cartHandler)
		})
	})
}

// Каталог читается без идентификации, изменения доступны только админу.
func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)

		pr.Group(func(admin chi.Router) {
			admin.Use(authMiddleware, adminOnly)
			admin.Post("/", prHandler.addProduct)
			admin.Put("/{id}", prHandler.updateProduct)
			admin.Delete("/{id}", prHandler.archiveProduct)
		})
	})
}

func registerOrderRoutes(router chi.Router, orderHandler *OrderHandler) {
	router.Route("/orders", func(ord chi.Router) {
		ord.Post("/", orderHandler.placeOrder)
		ord.Post("/checkout", orderHandler.checkout)
		ord.Get("/", orderHandler.listOrders)

		ord.Group(func(admin chi.Router) {
			admin.Use(adminOnly)
			admin.Put("/{id}/deliver", orderHandler.markDelivered)
			admin.Get("/revenue-by-category", orderHandler.revenueByCategory)
		})
	})
}

func registerCartRoutes(router chi.Router, cartHandler *CartHandler) {
	router.Route("/cart", func(cart chi.Router) {
		cart.Post("/", cartHandler.addToCart)
		cart.Get("/", cartHandler.listCart)
		cart.Delete("/{productID}", cartHandler.removeFromCart)
	})

	router.Route("/wishlist", func(wl chi.Router) {
		wl.Post("/", cartHandler.addToWishlist)
		wl.Get("/", cartHandler.listWishlist)
		wl.Delete("/{productID}", cartHandler.removeFromWishlist)
	})
}
