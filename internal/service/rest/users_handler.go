package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/service/users"
	"github.com/vladislavdragonenkov/storefront/internal/validation"
)

type userHandler struct {
	svc       *users.Service
	validator *validation.Validator
}

func (h *userHandler) create(c echo.Context) error {
	var in users.CreateUserInput
	if err := bindJSON(c, h.validator, &in); err != nil {
		return err
	}

	user, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newUserResponse(user))
}

func (h *userHandler) list(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]userResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, newUserResponse(u))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *userHandler) get(c echo.Context) error {
	user, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

// replace обрабатывает PUT: все поля обязательны.
func (h *userHandler) replace(c echo.Context) error {
	var in users.CreateUserInput
	if err := bindJSON(c, h.validator, &in); err != nil {
		return err
	}

	user, err := h.svc.Replace(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

// patch обрабатывает PATCH: меняются только переданные поля.
func (h *userHandler) patch(c echo.Context) error {
	var in users.PatchUserInput
	if err := bindJSON(c, h.validator, &in); err != nil {
		return err
	}

	user, err := h.svc.Patch(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *userHandler) delete(c echo.Context) error {
	user, err := h.svc.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}
