package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/dating-platform/internal/chat"
	"github.com/suPer8Hu/dating-platform/internal/common"
)

type createChatReq struct {
	UserID uint64 `json:"user_id"`
}

// CreateChat opens (or returns) the direct chat between the caller and user_id.
func (h *Handler) CreateChat(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req createChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.UserID == 0 || req.UserID == uid {
		common.Fail(c, http.StatusBadRequest, 10010, "invalid user_id")
		return
	}

	ctx := c.Request.Context()
	me, err := h.Users.Find(ctx, uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	other, err := h.Users.FindActive(ctx, req.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	ch, err := h.Chats.GetOrCreate(ctx,
		chat.Participant{ID: me.ID, IsBot: me.IsBot()},
		chat.Participant{ID: other.ID, IsBot: other.IsBot()},
	)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, ch)
}
