package services

import (
	"context"
	"os"
	"testing"

	"atfinder/internal/db"
	"atfinder/internal/models"
	"atfinder/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 集成测试需要真实 Postgres，通过 TEST_DATABASE_URL 指定，没配置就跳过
func newTestReconciler(t *testing.T) (*Reconciler, *store.Store, models.Scope) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping reconciler integration tests")
	}

	gdb, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	scope := models.Scope{
		TenantID:  "t-" + uuid.NewString(),
		ProjectID: "p-" + uuid.NewString(),
	}
	return NewReconciler(gdb), store.New(gdb), scope
}

// 投票走投票表，校正后计数不丢：点赞、评论、再重算，
// 赞数仍然等于投票表的和
func TestReconcilePreservesCastVotes(t *testing.T) {
	rec, s, scope := newTestReconciler(t)
	ctx := context.Background()

	req, serr := s.CreateRequest(ctx, scope, store.RequestFields{
		Title:       "who is behind this account",
		Platform:    models.PlatformTikTok,
		SubmittedBy: "tester",
	})
	if serr != nil {
		t.Fatalf("create request: %v", serr)
	}

	if _, serr := s.CastVote(ctx, scope, models.TargetRequest, req.ID, "api-subject", 1); serr != nil {
		t.Fatalf("cast vote: %v", serr)
	}
	if _, serr := s.CreateComment(ctx, scope, models.TargetRequest, req.ID, store.CommentFields{
		Content: "seen this before", UserID: "u2", UserHandle: "@u2",
	}); serr != nil {
		t.Fatalf("create comment: %v", serr)
	}

	rec.reconcileRequest(req.ID)

	got, serr := s.GetRequestByID(ctx, scope, req.ID)
	if serr != nil {
		t.Fatalf("reload request: %v", serr)
	}
	if got.Upvotes != 1 {
		t.Fatalf("reconcile must keep the cast vote, upvotes = %d", got.Upvotes)
	}
	if got.CommentCount != 1 {
		t.Fatalf("expected comment_count 1, got %d", got.CommentCount)
	}
}

// 孤儿投票行被删除后重算应把计数拉回实际和
func TestReconcileAbsorbsCounterDrift(t *testing.T) {
	rec, s, scope := newTestReconciler(t)
	ctx := context.Background()

	req, serr := s.CreateRequest(ctx, scope, store.RequestFields{
		Title:       "original choreographer wanted",
		Platform:    models.PlatformInstagram,
		SubmittedBy: "tester",
	})
	if serr != nil {
		t.Fatalf("create request: %v", serr)
	}
	if _, serr := s.CastVote(ctx, scope, models.TargetRequest, req.ID, "u1", 1); serr != nil {
		t.Fatalf("cast vote: %v", serr)
	}

	// 人为制造漂移：计数器加了但没有对应投票行
	err := rec.db.Model(&models.AttributionRequest{}).Where("id = ?", req.ID).
		UpdateColumn("upvotes", gorm.Expr("upvotes + ?", 5)).Error
	if err != nil {
		t.Fatalf("inject drift: %v", err)
	}

	rec.reconcileRequest(req.ID)

	got, serr := s.GetRequestByID(ctx, scope, req.ID)
	if serr != nil {
		t.Fatalf("reload request: %v", serr)
	}
	if got.Upvotes != 1 {
		t.Fatalf("expected drift absorbed back to 1, got %d", got.Upvotes)
	}
}
