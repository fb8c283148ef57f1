package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/global-academic-forum/backend/internal/middleware"
	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/pkg/response"
	"github.com/global-academic-forum/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	FullName      string `json:"full_name" binding:"required"`
	Role          string `json:"role"` // optional, defaults to participant
	InstitutionID string `json:"institution_id"`
	Title         string `json:"title"`
	Bio           string `json:"bio"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest is the body for PATCH /users/:id (platform admin only).
type UpdateUserRequest struct {
	Role          string  `json:"role"`
	InstitutionID *string `json:"institution_id"` // null clears the affiliation
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleParticipant
	if req.Role != "" {
		if !models.ValidRole(req.Role) || models.Role(req.Role) == models.RolePlatformAdmin {
			response.BadRequest(c, "invalid role")
			return
		}
		role = models.Role(req.Role)
	}

	var institutionID *uuid.UUID
	if req.InstitutionID != "" {
		id, err := uuid.Parse(req.InstitutionID)
		if err != nil {
			response.BadRequest(c, "invalid institution_id")
			return
		}
		institutionID = &id
	}

	existing, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("lookup email failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}
	if existing != nil {
		response.Conflict(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, role, institutionID, req.Title, req.Bio)
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role), user.InstitutionID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("lookup email failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}
	if user == nil || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role), user.InstitutionID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Me handles GET /me. Returns the caller's profile.
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load profile")
		return
	}
	if user == nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, user.ToPublic())
}

// List handles GET /users (platform admin only).
func (h *Handler) List(c *gin.Context) {
	users, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, users)
}

// UpdateUser handles PATCH /users/:id (platform admin only). Role and
// affiliation are the only administratively mutable fields.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	if user == nil {
		response.NotFound(c, "user not found")
		return
	}

	role := user.Role
	if req.Role != "" {
		if !models.ValidRole(req.Role) {
			response.BadRequest(c, "invalid role")
			return
		}
		role = models.Role(req.Role)
	}

	institutionID := user.InstitutionID
	if req.InstitutionID != nil {
		if *req.InstitutionID == "" {
			institutionID = nil
		} else {
			parsed, err := uuid.Parse(*req.InstitutionID)
			if err != nil {
				response.BadRequest(c, "invalid institution_id")
				return
			}
			institutionID = &parsed
		}
	}

	updated, err := h.repo.UpdateRoleAndAffiliation(c.Request.Context(), id, role, institutionID)
	if err != nil {
		h.logger.Error("update user failed", zap.Error(err), zap.String("user_id", id.String()))
		response.Internal(c, "failed to update user")
		return
	}
	response.OK(c, updated.ToPublic())
}
