package rest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestUsers_CRUD(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	created := env.do(t, http.MethodPost, "/users", `{"email":"Bob@Example.com","name":"Bob","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	require.NotContains(t, created.Body.String(), "password")
	require.NotContains(t, created.Body.String(), "s3cret")

	var user userResponse
	decodeJSON(t, created, &user)
	require.Equal(t, "bob@example.com", user.Email)

	patched := env.do(t, http.MethodPatch, "/users/"+user.ID, `{"name":"Robert"}`)
	require.Equal(t, http.StatusOK, patched.Code, patched.Body.String())
	decodeJSON(t, patched, &user)
	require.Equal(t, "Robert", user.Name)
	require.Equal(t, "bob@example.com", user.Email)

	replaced := env.do(t, http.MethodPut, "/users/"+user.ID, `{"email":"rob@example.com","name":"Rob","password":"another-pass"}`)
	require.Equal(t, http.StatusOK, replaced.Code, replaced.Body.String())

	list := env.do(t, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, list.Code)
	var users []userResponse
	decodeJSON(t, list, &users)
	require.Len(t, users, 2)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/users/"+user.ID, "").Code)
	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/users/"+user.ID, "").Code)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/users", `{"email":"ann@example.com","name":"Ann 2","password":"password1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body apiError
	decodeJSON(t, rec, &body)
	require.Equal(t, string(domain.KindConflict), body.Error.Code)
}

func TestUsers_PatchNothingToUpdate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPatch, "/users/u1", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body apiError
	decodeJSON(t, rec, &body)
	require.Equal(t, string(domain.KindValidation), body.Error.Code)
	require.Equal(t, "nothing to update", body.Error.Message)
}

func TestUsers_PutRequiresAllFields(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/users/u1", `{"name":"Ann"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body apiError
	decodeJSON(t, rec, &body)
	require.Equal(t, map[string]string{"email": "required", "password": "required"}, body.fieldRules())
}
