package handlers

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/dating-platform/internal/auth"
	"github.com/suPer8Hu/dating-platform/internal/common"
	"github.com/suPer8Hu/dating-platform/internal/models"
)

const minPasswordLen = 8

type createUserReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		common.Fail(c, http.StatusBadRequest, 10010, "invalid email")
		return
	}
	if len(req.Password) < minPasswordLen {
		common.Fail(c, http.StatusBadRequest, 10010, "password must be at least 8 characters")
		return
	}

	user, err := h.Users.Register(c.Request.Context(), req.Email, req.Password, strings.TrimSpace(req.DisplayName))
	if err != nil {
		h.fail(c, err)
		return
	}
	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, h.Cfg.JWTTTL)
	if err != nil {
		h.fail(c, err)
		return
	}

	common.OK(c, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"token":    token,
	})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	user, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, h.Cfg.JWTTTL)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{"id": user.ID, "token": token})
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.Users.Find(c.Request.Context(), uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"username":      user.Username,
		"display_name":  user.DisplayName,
		"type":          user.Type,
		"total_likes":   user.TotalLikes,
		"total_matches": user.TotalMatches,
		"total_rejects": user.TotalRejects,
		"created_at":    user.CreatedAt,
	})
}

func (h *Handler) GetUserByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, 10010, "invalid user id")
		return
	}
	user, err := h.Users.FindActive(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, publicProfile(user))
}

func publicProfile(u *models.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"username":     u.Username,
		"display_name": u.DisplayName,
		"is_bot":       u.IsBot(),
		"created_at":   u.CreatedAt,
	}
}
