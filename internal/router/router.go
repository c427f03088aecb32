package router

import (
	"net/http"
	"time"

	"Tubely/internal/handler"
	"Tubely/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 所有路由用到的handler
type Handlers struct {
	User     handler.UserHandler
	Video    handler.VideoHandler
	Post     handler.PostHandler
	Reaction handler.ReactionHandler
	Comment  handler.CommentHandler
	Channel  handler.ChannelHandler
	Library  handler.LibraryHandler
}

type Options struct {
	JWTSecret   string
	CORSOrigins []string
}

func SetupRouter(h Handlers, opts Options) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.CORSOrigins) == 0 {
		corsCfg.AllowCredentials = false
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pang",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := r.Group("/api/v1")
	{
		userGroup := apiV1.Group("/users")
		{
			userGroup.POST("/register", h.User.Register)
			userGroup.POST("/login", h.User.Login)
		}

		// 公开接口：带了token就能看到自己的点赞状态
		public := apiV1.Group("/")
		public.Use(middleware.OptionalAuth(opts.JWTSecret))
		{
			public.GET("/videos", h.Video.ListVideos)
			public.GET("/videos/:video_id", h.Video.GetVideoByID)
			public.GET("/posts/:post_id", h.Post.GetPost)

			public.GET("/targets/:kind/:target_id/comments", h.Comment.ListComments)
			public.GET("/comments/:comment_id/replies", h.Comment.ListReplies)

			public.GET("/channels/:user_id/videos", h.Video.ChannelVideos)
			public.GET("/channels/:user_id/posts", h.Post.ChannelPosts)
			public.GET("/channels/:user_id/subscribers", h.Channel.Subscribers)
			public.GET("/channels/:user_id/stats", h.Channel.Stats)

			public.GET("/users/:user_id/subscriptions", h.Channel.Subscriptions)
			public.GET("/users/:user_id/playlists", h.Library.UserPlaylists)
			public.GET("/playlists/:playlist_id", h.Library.GetPlaylist)
		}

		authorized := apiV1.Group("/")
		authorized.Use(middleware.AuthMiddleware(opts.JWTSecret))
		{
			authorized.GET("/profile", h.User.GetProfile)

			authorized.POST("/reactions/:target_id", h.Reaction.ToggleReaction)
			authorized.GET("/reactions/videos", h.Reaction.LikedVideos)

			authorized.POST("/targets/:kind/:target_id/comments", h.Comment.CreateComment)
			authorized.DELETE("/targets/:kind/:target_id", h.Comment.DeleteTarget)
			authorized.PATCH("/comments/:comment_id", h.Comment.UpdateComment)
			authorized.DELETE("/comments/:comment_id", h.Comment.DeleteComment)

			authorized.POST("/videos", h.Video.CreateVideo)
			authorized.PATCH("/videos/:video_id", h.Video.UpdateVideo)
			authorized.DELETE("/videos/:video_id", h.Video.DeleteVideo)
			authorized.PATCH("/videos/:video_id/publish", h.Video.TogglePublish)

			authorized.POST("/posts", h.Post.CreatePost)
			authorized.PATCH("/posts/:post_id", h.Post.UpdatePost)
			authorized.DELETE("/posts/:post_id", h.Post.DeletePost)

			authorized.POST("/subscriptions/:channel_id", h.Channel.ToggleSubscription)
			authorized.GET("/subscriptions/feed", h.Channel.Feed)

			authorized.POST("/playlists", h.Library.CreatePlaylist)
			authorized.PATCH("/playlists/:playlist_id", h.Library.UpdatePlaylist)
			authorized.DELETE("/playlists/:playlist_id", h.Library.DeletePlaylist)
			authorized.POST("/playlists/:playlist_id/videos/:video_id", h.Library.AddToPlaylist)
			authorized.DELETE("/playlists/:playlist_id/videos/:video_id", h.Library.RemoveFromPlaylist)

			authorized.POST("/history/:video_id", h.Library.RecordView)
			authorized.GET("/history", h.Library.History)
			authorized.DELETE("/history/:video_id", h.Library.RemoveHistory)

			authorized.POST("/watch-later/:video_id", h.Library.ToggleWatchLater)
			authorized.GET("/watch-later", h.Library.WatchLater)
			authorized.DELETE("/watch-later/:video_id", h.Library.RemoveWatchLater)
		}
	}

	return r, nil
}
