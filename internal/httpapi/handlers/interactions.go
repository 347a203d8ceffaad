package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/dating-platform/internal/common"
	"github.com/suPer8Hu/dating-platform/internal/match"
	"gorm.io/gorm"
)

type interactionReq struct {
	TargetUserID uint64 `json:"target_user_id"`
}

func (h *Handler) bindTarget(c *gin.Context) (uint64, bool) {
	var req interactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return 0, false
	}
	return req.TargetUserID, true
}

func (h *Handler) Like(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	target, ok := h.bindTarget(c)
	if !ok {
		return
	}
	res, err := h.Engine.Like(c.Request.Context(), uid, target)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, res)
}

func (h *Handler) Reject(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	target, ok := h.bindTarget(c)
	if !ok {
		return
	}
	if err := h.Engine.Reject(c.Request.Context(), uid, target); err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{})
}

type matchItem struct {
	UserID    uint64    `json:"user_id"`
	ChatID    *uint64   `json:"chat_id"`
	MatchedAt time.Time `json:"matched_at"`
}

func (h *Handler) ListMatches(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(match.DefaultPageSize)))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10010, "invalid limit")
		return
	}
	limit = match.PageLimit(limit)
	beforeID, err := strconv.ParseUint(c.DefaultQuery("before_id", "0"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10010, "invalid before_id")
		return
	}

	ctx := c.Request.Context()
	rows, err := h.Matches.ListMatches(ctx, uid, limit, beforeID)
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]matchItem, 0, len(rows))
	for _, r := range rows {
		it := matchItem{UserID: r.TargetID, MatchedAt: r.UpdatedAt}
		ch, err := h.Chats.FindByUsers(ctx, uid, r.TargetID)
		switch {
		case err == nil:
			id := ch.ID
			it.ChatID = &id
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			h.fail(c, fmt.Errorf("find chat with %d: %w", r.TargetID, err))
			return
		}
		items = append(items, it)
	}

	// a short page is the last one
	var next *uint64
	if len(rows) == limit {
		last := rows[len(rows)-1].TargetID
		next = &last
	}
	common.OK(c, gin.H{"items": items, "next_before_id": next})
}
