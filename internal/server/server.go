package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"stargifty/internal/handler"
	appmw "stargifty/internal/middleware"
	"stargifty/internal/service"
)

type Server struct {
	echo           *echo.Echo
	paymentHandler *handler.PaymentHandler
	accountHandler *handler.AccountHandler
}

func NewServer(paymentService service.PaymentService, accountService service.AccountService, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		paymentHandler: handler.NewPaymentHandler(paymentService, logger),
		accountHandler: handler.NewAccountHandler(accountService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// platform callbacks carry their own identity
	api.POST("/telegram/webhook", s.paymentHandler.TelegramWebhook)

	user := api.Group("", appmw.UserIdentity())
	user.GET("/wallet", s.accountHandler.GetWallet)
	user.POST("/wallet/deposit", s.paymentHandler.Deposit)
	user.POST("/purchases", s.paymentHandler.Purchase)
	user.GET("/collections/:collection/listings", s.paymentHandler.Listings)
	user.GET("/subscriptions", s.accountHandler.ListSubscriptions)
	user.POST("/subscriptions", s.accountHandler.CreateSubscription)
	user.PATCH("/subscriptions/:id", s.accountHandler.ToggleSubscription)
	user.GET("/orders", s.accountHandler.ListOrders)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
