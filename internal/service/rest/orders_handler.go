package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/validation"
)

type orderHandler struct {
	svc       *orders.Service
	validator *validation.Validator
}

// create обрабатывает POST /orders и возвращает заголовок созданного заказа.
func (h *orderHandler) create(c echo.Context) error {
	var req orders.CreateOrderRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	order, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newOrderResponse(order))
}

func (h *orderHandler) list(c echo.Context) error {
	details, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]orderDetailsResponse, 0, len(details))
	for _, d := range details {
		resp = append(resp, newOrderDetailsResponse(d))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *orderHandler) get(c echo.Context) error {
	details, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newOrderDetailsResponse(details))
}

// delete удаляет строки и заголовок заказа, возвращая удалённый заголовок.
func (h *orderHandler) delete(c echo.Context) error {
	order, err := h.svc.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newOrderResponse(order))
}
