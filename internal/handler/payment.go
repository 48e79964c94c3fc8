package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"stargifty/internal/dto"
	appmw "stargifty/internal/middleware"
	"stargifty/internal/model"
	"stargifty/internal/service"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         zerolog.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// TelegramWebhook receives Bot API updates. The platform retries non-2xx
// responses, so rejected payloads (bad format, payer mismatch) are logged
// and acknowledged — the rejection already happened with no ledger change.
func (h *PaymentHandler) TelegramWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	var update model.TelegramUpdate
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid update body")
	}

	if update.PreCheckoutQuery != nil {
		if err := h.paymentService.AnswerPreCheckout(ctx, update.PreCheckoutQuery.ID); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	}

	msg := update.Message
	if msg == nil || msg.SuccessfulPayment == nil || msg.From == nil {
		return c.NoContent(http.StatusOK)
	}

	err := h.paymentService.HandleSuccessfulPayment(ctx, msg.From.ID,
		msg.SuccessfulPayment.TelegramPaymentChargeID, msg.SuccessfulPayment.InvoicePayload)
	if err != nil {
		if errors.Is(err, service.ErrPayloadIntegrity) || errors.Is(err, service.ErrBadPayload) {
			h.logger.Warn().Err(err).Int64("payer_id", msg.From.ID).Msg("rejected payment payload")
			return c.NoContent(http.StatusOK)
		}
		return err
	}

	return c.NoContent(http.StatusOK)
}

func (h *PaymentHandler) Deposit(c echo.Context) error {
	ctx := c.Request().Context()
	userID := appmw.UserID(c)

	var req dto.DepositRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.AmountStars <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount_stars must be positive")
	}

	if err := h.paymentService.CreateDepositInvoice(ctx, userID, req.AmountStars); err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, dto.InvoiceIssuedResponse{Status: "invoice_sent"})
}

func (h *PaymentHandler) Purchase(c echo.Context) error {
	ctx := c.Request().Context()
	userID := appmw.UserID(c)

	var req dto.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ItemID == "" || req.Recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "item_id and recipient are required")
	}
	if req.PriceStars <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price_stars must be positive")
	}

	item := model.MarketItem{
		ItemID:     req.ItemID,
		Title:      req.ItemID,
		PriceStars: req.PriceStars,
	}
	if err := h.paymentService.CreatePurchaseInvoice(ctx, userID, item, req.Recipient, req.CardMsg); err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, dto.InvoiceIssuedResponse{Status: "invoice_sent"})
}

func (h *PaymentHandler) Listings(c echo.Context) error {
	ctx := c.Request().Context()

	collection := c.Param("collection")
	limit := 0 // service applies the configured default
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	items, err := h.paymentService.ListCurrentListings(ctx, collection, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}
