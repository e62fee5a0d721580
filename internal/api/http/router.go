package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_chat/internal/auth"
)

type Controllers struct {
	Rooms    *RoomController
	Messages *MessageController
	Stream   *StreamController
	Users    *UserController
	Blobs    *BlobController

	// Sessions defaults to auth.ContextProvider.
	Sessions auth.Provider
}

func SetupRouter(c Controllers, tokens TokenParser, allowOrigins []string) *gin.Engine {
	router := gin.Default()
	config := cors.DefaultConfig()
	config.AllowOrigins = allowOrigins
	if len(allowOrigins) == 0 {
		config.AllowOrigins = []string{"http://localhost:3000"}
	}
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	sessions := c.Sessions
	if sessions == nil {
		sessions = auth.ContextProvider{}
	}
	authed := []gin.HandlerFunc{AuthMiddleware(tokens), SessionMiddleware(sessions)}

	if c.Users != nil {
		users := api.Group("/users")
		users.POST("/register", c.Users.Register)
		users.POST("/login", c.Users.Login)

		me := users.Group("/me", authed...)
		me.GET("", c.Users.Me)
		me.PATCH("/email", c.Users.UpdateEmail)
		me.PATCH("/password", c.Users.UpdatePassword)
	}

	if c.Blobs != nil {
		api.GET("/blobs/*path", c.Blobs.Get)
	}

	rooms := api.Group("/rooms", authed...)
	if c.Rooms != nil {
		rooms.GET("", c.Rooms.ListRooms)
		rooms.POST("", c.Rooms.CreateRoom)
		rooms.POST("/:roomID/join", c.Rooms.JoinRoom)
		rooms.PATCH("/:roomID/settings", c.Rooms.UpdateSettings)
		rooms.DELETE("/:roomID", c.Rooms.DeleteRoom)
		rooms.GET("/:roomID/members", c.Rooms.ListMembers)
	}

	if c.Messages != nil {
		member := rooms.Group("/:roomID", c.Messages.RequireMembership)
		member.GET("/messages", c.Messages.History)
		member.POST("/messages", c.Messages.Post)
		member.POST("/images", c.Messages.PostImage)
	}

	if c.Stream != nil {
		rooms.GET("/:roomID/ws", c.Stream.Stream)
	}

	return router
}
