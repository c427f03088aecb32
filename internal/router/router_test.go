package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Tubely/internal/data"
	"Tubely/internal/handler"
	"Tubely/internal/service"
	"Tubely/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

const testSecret = "router-test-secret"

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

type RouterSuite struct {
	suite.Suite
	engine *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(s.T())
	repos := data.NewRepositories(db, nil)
	uow := data.NewUnitOfWork(db, repos, data.Options{MaxRetries: 2, MaxElapsedTime: time.Second})

	notifier := service.LogNotifier{}
	targets := service.NewTargetResolver(repos.Targets)
	counters := service.NewCounterMaintainer(notifier)
	reactions := service.NewReactionService(uow, repos, targets, counters, notifier)
	comments := service.NewCommentService(uow, repos, targets, reactions, counters)
	cascade := service.NewCascadeService(uow, repos, targets, reactions, comments)
	views := service.NewViewAssembler(repos, targets)

	engine, err := SetupRouter(Handlers{
		User:     handler.NewUserHandler(service.NewUserService(repos.Users, testSecret, time.Hour)),
		Video:    handler.NewVideoHandler(service.NewVideoService(repos, targets), views, cascade),
		Post:     handler.NewPostHandler(service.NewPostService(repos, targets), views, cascade),
		Reaction: handler.NewReactionHandler(reactions, views),
		Comment:  handler.NewCommentHandler(comments, cascade, views),
		Channel:  handler.NewChannelHandler(service.NewSubscriptionService(repos), service.NewDashboardService(repos), views),
		Library: handler.NewLibraryHandler(
			service.NewPlaylistService(repos, targets),
			service.NewHistoryService(uow, repos, targets),
			service.NewWatchLaterService(repos, targets),
		),
	}, Options{JWTSecret: testSecret})
	s.Require().NoError(err)
	s.engine = engine
}

func (s *RouterSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// signup 注册并登录，返回token和用户ID
func (s *RouterSuite) signup(username string) (string, string) {
	w, _ := s.do(http.MethodPost, "/api/v1/users/register", "", gin.H{"username": username, "password": "pw123456"})
	s.Require().Equal(http.StatusCreated, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/users/login", "", gin.H{"username": username, "password": "pw123456"})
	s.Require().Equal(http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &login))
	return login.Token, login.User.ID
}

func (s *RouterSuite) createVideo(token string) string {
	w, env := s.do(http.MethodPost, "/api/v1/videos", token, gin.H{
		"title":         "first video",
		"video_url":     "https://cdn.example.com/v.mp4",
		"thumbnail_url": "https://cdn.example.com/v.jpg",
		"duration":      10,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var video struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &video))
	return video.ID
}

func (s *RouterSuite) TestPing() {
	w, _ := s.do(http.MethodGet, "/ping", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestAuthRequired() {
	w, env := s.do(http.MethodPost, "/api/v1/reactions/1?type=like", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(env.Success)
	s.Equal(http.StatusUnauthorized, env.StatusCode)

	w, _ = s.do(http.MethodGet, "/api/v1/profile", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestReactionFlow() {
	alice, _ := s.signup("alice")
	bob, _ := s.signup("bob")
	videoID := s.createVideo(alice)

	w, env := s.do(http.MethodPost, "/api/v1/reactions/"+videoID+"?type=like", bob, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.True(env.Success)
	s.JSONEq(`{"status":"like","target_kind":"video","target_id":"`+videoID+`"}`, string(env.Data))

	// 匿名和登录用户看到的点赞状态不同，计数相同
	var video struct {
		LikesCount uint64 `json:"likes_count"`
		IsLiked    bool   `json:"is_liked"`
	}
	_, env = s.do(http.MethodGet, "/api/v1/videos/"+videoID, bob, nil)
	s.Require().NoError(json.Unmarshal(env.Data, &video))
	s.Equal(uint64(1), video.LikesCount)
	s.True(video.IsLiked)

	_, env = s.do(http.MethodGet, "/api/v1/videos/"+videoID, "", nil)
	s.Require().NoError(json.Unmarshal(env.Data, &video))
	s.False(video.IsLiked)

	w, env = s.do(http.MethodPost, "/api/v1/reactions/"+videoID+"?type=like&kind=video", bob, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":null,"target_kind":"video","target_id":"`+videoID+`"}`, string(env.Data))

	w, _ = s.do(http.MethodPost, "/api/v1/reactions/"+videoID+"?type=love", bob, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/reactions/"+videoID+"?type=like&kind=playlist", bob, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/reactions/123?type=like", bob, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/reactions/abc?type=like", bob, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestCommentFlow() {
	alice, _ := s.signup("alice")
	bob, _ := s.signup("bob")
	videoID := s.createVideo(alice)
	base := "/api/v1/targets/video/" + videoID + "/comments"

	w, env := s.do(http.MethodPost, base, bob, gin.H{"content": "great"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var comment struct {
		ID    string `json:"id"`
		Owner struct {
			Username string `json:"username"`
		} `json:"owner"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &comment))
	s.Equal("bob", comment.Owner.Username)

	w, _ = s.do(http.MethodPost, base, alice, gin.H{"content": "thanks", "parent_comment_id": comment.ID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w, env = s.do(http.MethodGet, base+"?page=1&limit=10", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var page struct {
		Docs []struct {
			ID           string `json:"id"`
			RepliesCount uint64 `json:"replies_count"`
		} `json:"docs"`
		TotalDocs int64 `json:"total_docs"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &page))
	s.Equal(int64(1), page.TotalDocs)
	s.Require().Len(page.Docs, 1)
	s.Equal(uint64(1), page.Docs[0].RepliesCount)

	w, _ = s.do(http.MethodGet, base+"?page=0", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/v1/comments/"+comment.ID, alice, gin.H{"content": "hijack"})
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/v1/comments/"+comment.ID, bob, nil)
	s.Equal(http.StatusOK, w.Code)

	_, env = s.do(http.MethodGet, base, "", nil)
	s.Require().NoError(json.Unmarshal(env.Data, &page))
	s.Zero(page.TotalDocs)

	w, _ = s.do(http.MethodDelete, "/api/v1/targets/video/"+videoID, bob, nil)
	s.Equal(http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/v1/targets/video/"+videoID, alice, nil)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/videos/"+videoID, alice, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.do(http.MethodGet, "/ping", "", nil)
	w, _ := s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "tubely_http_requests_total")
}
