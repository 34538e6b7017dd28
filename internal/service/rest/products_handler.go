package rest

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/validation"
)

type productHandler struct {
	svc       *catalog.Service
	validator *validation.Validator
}

func (h *productHandler) create(c echo.Context) error {
	var in catalog.ProductInput
	if err := bindJSON(c, h.validator, &in); err != nil {
		return err
	}

	product, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newProductResponse(product))
}

// list поддерживает фильтры ?name=&description=&maxPrice=.
func (h *productHandler) list(c echo.Context) error {
	filter, err := parseProductFilter(c)
	if err != nil {
		return err
	}

	products, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newProductResponses(products))
}

func (h *productHandler) get(c echo.Context) error {
	product, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newProductResponse(product))
}

func (h *productHandler) replace(c echo.Context) error {
	var in catalog.ProductInput
	if err := bindJSON(c, h.validator, &in); err != nil {
		return err
	}

	product, err := h.svc.Replace(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newProductResponse(product))
}

func (h *productHandler) delete(c echo.Context) error {
	product, err := h.svc.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newProductResponse(product))
}

func parseProductFilter(c echo.Context) (domain.ProductFilter, error) {
	filter := domain.ProductFilter{
		NameContains:        strings.TrimSpace(c.QueryParam("name")),
		DescriptionContains: strings.TrimSpace(c.QueryParam("description")),
	}

	if raw := strings.TrimSpace(c.QueryParam("maxPrice")); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.ProductFilter{}, domain.NewValidationError("maxPrice", "decimal", "must be a decimal number")
		}
		filter.MaxPrice = &maxPrice
	}
	return filter, nil
}
