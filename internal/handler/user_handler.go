package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/driveu/backend/internal/models"
	"github.com/driveu/backend/internal/service"
	"github.com/driveu/backend/pkg/utils"
)

type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/users", h.Register)
	r.Get("/users", h.Lookup)
	r.Get("/users/{id}", h.GetUser)
}

// POST /v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, user.ToResponse())
}

// GET /v1/users?auth_uid=...&fcm_token=...
//
// The login lookup. A new fcm_token on the query refreshes the stored one.
func (h *UserHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	authUID := r.URL.Query().Get("auth_uid")
	if authUID == "" {
		utils.BadRequest(w, "auth_uid is required")
		return
	}

	user, err := h.userService.Lookup(r.Context(), authUID, r.URL.Query().Get("fcm_token"))
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, user.ToResponse())
}

// GET /v1/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "user id is required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, user.ToResponse())
}
