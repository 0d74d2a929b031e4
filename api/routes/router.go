package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andreshoyos/gymdesk-backend/api/controllers"
	"github.com/andreshoyos/gymdesk-backend/api/middleware"
	"github.com/andreshoyos/gymdesk-backend/internal/paymentmethods"
	"github.com/andreshoyos/gymdesk-backend/internal/pos"
	"github.com/andreshoyos/gymdesk-backend/internal/products"
	"github.com/andreshoyos/gymdesk-backend/internal/sales"
	"github.com/andreshoyos/gymdesk-backend/pkg/config"
	"github.com/andreshoyos/gymdesk-backend/pkg/logger"
	pkgredis "github.com/andreshoyos/gymdesk-backend/pkg/redis"
)

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config           *config.Config
	Logger           *logger.Logger
	DBPinger         controllers.Pinger
	RedisPinger      controllers.Pinger
	IdempotencyStore pkgredis.IdempotencyStore
	MetricsGatherer  prometheus.Gatherer

	Products       products.Service
	PaymentMethods paymentmethods.Service
	POS            pos.Service
	Sales          sales.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": deps.DBPinger,
			"redis":    deps.RedisPinger,
		}))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.IdempotencyStore, logg, cfg.POS.IdempotencyTTL))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListCatalog(deps.Products, logg))
			r.Get("/all", controllers.ListProducts(deps.Products, logg))
			r.Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Route("/{productID}", func(r chi.Router) {
				r.Get("/", controllers.GetProduct(deps.Products, logg))
				r.Patch("/", controllers.UpdateProduct(deps.Products, logg))
				r.Delete("/", controllers.DeleteProduct(deps.Products, logg))
			})
		})

		r.Route("/payment-methods", func(r chi.Router) {
			r.Get("/", controllers.ListPaymentMethods(deps.PaymentMethods, logg))
			r.Get("/all", controllers.ListAllPaymentMethods(deps.PaymentMethods, logg))
			r.Post("/", controllers.CreatePaymentMethod(deps.PaymentMethods, logg))
			r.Patch("/{paymentMethodID}", controllers.UpdatePaymentMethod(deps.PaymentMethods, logg))
		})

		r.Route("/pos/sessions", func(r chi.Router) {
			r.Post("/", controllers.StartPOSSession(deps.POS, logg))
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", controllers.GetPOSCart(deps.POS, logg))
				r.Delete("/", controllers.ClearPOSCart(deps.POS, logg))
				r.Post("/lines", controllers.AddPOSLine(deps.POS, logg))
				r.Patch("/lines/{productID}", controllers.UpdatePOSLine(deps.POS, logg))
				r.Delete("/lines/{productID}", controllers.RemovePOSLine(deps.POS, logg))
				r.Post("/checkout", controllers.CheckoutPOSSession(deps.POS, logg))
			})
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(deps.Sales, logg))
			r.Post("/", controllers.CreateSale(deps.Sales, logg))
			r.Get("/reports", controllers.SalesReport(deps.Sales, logg))
			r.Get("/reports/products", controllers.SalesReportByProduct(deps.Sales, logg))
			r.Route("/{saleID}", func(r chi.Router) {
				r.Get("/", controllers.GetSale(deps.Sales, logg))
				r.Post("/void", controllers.VoidSale(deps.Sales, logg))
			})
		})
	})

	return r
}
