package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"stargifty/internal/dto"
	appmw "stargifty/internal/middleware"
	"stargifty/internal/service"
)

type AccountHandler struct {
	accountService service.AccountService
}

func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

func (h *AccountHandler) GetWallet(c echo.Context) error {
	ctx := c.Request().Context()
	userID := appmw.UserID(c)

	balance, err := h.accountService.GetBalance(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.WalletResponse{BalanceStars: balance})
}

func (h *AccountHandler) CreateSubscription(c echo.Context) error {
	ctx := c.Request().Context()
	userID := appmw.UserID(c)

	var req dto.SubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sub, err := h.accountService.CreateSubscription(ctx, userID,
		req.Collection, req.MaxPriceStars, req.Recipient, req.CardMsg)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, sub)
}

func (h *AccountHandler) ListSubscriptions(c echo.Context) error {
	ctx := c.Request().Context()
	userID := appmw.UserID(c)

	subs, err := h.accountService.ListSubscriptions(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, subs)
}

func (h *AccountHandler) ToggleSubscription(c echo.Context) error {
	ctx := c.Request().Context()
	userID := appmw.UserID(c)

	subID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subscription id")
	}

	var req dto.ToggleSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err = h.accountService.SetSubscriptionActive(ctx, userID, uint(subID), req.Active)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "subscription not found")
	}
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// ListOrders also exposes orders stuck in "bought" so an operator can
// reconcile undelivered purchases by hand.
func (h *AccountHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	userID := appmw.UserID(c)

	orders, err := h.accountService.ListOrders(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}
