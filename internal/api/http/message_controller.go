package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_chat/internal/api/http/converter"
	"github.com/immxrtalbeast/axenix_chat/internal/service"
)

type MessageController struct {
	access    service.AccessInteractor
	messages  service.MessageInteractor
	maxUpload int64
}

func NewMessageController(access service.AccessInteractor, messages service.MessageInteractor, maxUpload int64) *MessageController {
	if maxUpload <= 0 {
		maxUpload = service.DefaultMaxImageBytes
	}
	return &MessageController{access: access, messages: messages, maxUpload: maxUpload}
}

// RequireMembership rejects requests from users who have not joined the
// room in the path.
func (c *MessageController) RequireMembership(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	roomID, ok := parseRoomID(ctx)
	if !ok {
		return
	}
	if err := c.access.RequireMember(ctx.Request.Context(), roomID, user.ID); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Next()
}

func (c *MessageController) History(ctx *gin.Context) {
	roomID, ok := parseRoomID(ctx)
	if !ok {
		return
	}

	msgs, err := c.messages.History(ctx.Request.Context(), roomID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"messages": converter.MessagesToApi(msgs)})
}

func (c *MessageController) Post(ctx *gin.Context) {
	type request struct {
		Text string `json:"text"`
	}
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	roomID, ok := parseRoomID(ctx)
	if !ok {
		return
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	msg, err := c.messages.Post(ctx.Request.Context(), roomID, user, req.Text)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": converter.MessageToApi(msg)})
}

func (c *MessageController) PostImage(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	roomID, ok := parseRoomID(ctx)
	if !ok {
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > c.maxUpload {
		writeError(ctx, service.ErrImageTooLarge)
		return
	}

	f, err := header.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, c.maxUpload+1))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}

	msg, err := c.messages.PostImage(ctx.Request.Context(), roomID, user, service.ImageFile{
		Name: header.Filename,
		Data: data,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": converter.MessageToApi(msg)})
}
