package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/api/http/converter"
	"github.com/immxrtalbeast/axenix_chat/internal/service"
)

type RoomController struct {
	rooms     service.RoomInteractor
	access    service.AccessInteractor
	lifecycle service.LifecycleInteractor
}

func NewRoomController(rooms service.RoomInteractor, access service.AccessInteractor, lifecycle service.LifecycleInteractor) *RoomController {
	return &RoomController{rooms: rooms, access: access, lifecycle: lifecycle}
}

func parseRoomID(ctx *gin.Context) (uuid.UUID, bool) {
	roomID, err := uuid.Parse(ctx.Param("roomID"))
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return uuid.Nil, false
	}
	return roomID, true
}

func (c *RoomController) ListRooms(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	rooms, err := c.rooms.Search(ctx.Request.Context(), user, ctx.Query("q"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"rooms": converter.RoomsToApi(rooms)})
}

func (c *RoomController) CreateRoom(ctx *gin.Context) {
	type request struct {
		Name     string `json:"name"`
		Password string `json:"password"`
		MaxUsers int    `json:"max_users"`
	}
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	room, err := c.rooms.Create(ctx.Request.Context(), user, service.CreateRoomInput{
		Name:     req.Name,
		Password: req.Password,
		MaxUsers: req.MaxUsers,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"room": converter.RoomToApi(room)})
}

func (c *RoomController) JoinRoom(ctx *gin.Context) {
	type request struct {
		Password string `json:"password"`
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

	outcome, err := c.access.JoinByID(ctx.Request.Context(), roomID, req.Password, user)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": outcome.String()})
}

func (c *RoomController) UpdateSettings(ctx *gin.Context) {
	type request struct {
		Password string `json:"password"`
		MaxUsers int    `json:"max_users" binding:"required"`
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
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	room, err := c.lifecycle.UpdateSettings(ctx.Request.Context(), user, roomID, service.RoomSettings{
		Password: req.Password,
		MaxUsers: req.MaxUsers,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"room": converter.RoomToApi(room)})
}

// DeleteRoom reads the confirmation from the JSON body or the
// confirmation query parameter.
func (c *RoomController) DeleteRoom(ctx *gin.Context) {
	type request struct {
		Confirmation string `json:"confirmation"`
	}
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	roomID, ok := parseRoomID(ctx)
	if !ok {
		return
	}

	req := request{Confirmation: ctx.Query("confirmation")}
	if ctx.Request.Body != nil && ctx.Request.Body != http.NoBody {
		if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	if err := c.lifecycle.DeleteRoom(ctx.Request.Context(), user, roomID, req.Confirmation); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *RoomController) ListMembers(ctx *gin.Context) {
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
	members, err := c.access.Members(ctx.Request.Context(), roomID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"members": converter.MembersToApi(members)})
}
