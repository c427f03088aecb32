package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Tubely/internal/config"
	"Tubely/internal/router"
	"Tubely/internal/service"
	"Tubely/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServicesWireEndToEnd(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{JWTSecret: "s", JWTTTL: time.Hour, TxMaxRetries: 1, TxMaxElapsedTime: time.Second, ReconcileBatchSize: 10}
	svcs := NewServices(cfg, db, nil, service.LogNotifier{})

	ctx := context.Background()
	u, err := svcs.Users.Register(ctx, "alice", "pw123456", "", "")
	require.NoError(t, err)
	v, err := svcs.Videos.CreateVideo(ctx, u.ID, service.VideoInput{Title: "t", VideoURL: "https://x/v.mp4", ThumbnailURL: "https://x/v.jpg"})
	require.NoError(t, err)
	_, err = svcs.Reactions.ApplyReaction(ctx, u.ID, v.ID, "", "like")
	require.NoError(t, err)

	report, err := svcs.Reconcile.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Zero(t, report.Repaired)

	gin.SetMode(gin.TestMode)
	engine, err := router.SetupRouter(svcs.Handlers(), router.Options{JWTSecret: cfg.JWTSecret})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
