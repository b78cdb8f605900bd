package store

import (
	"context"
	"os"
	"testing"
	"time"

	"atfinder/internal/db"
	"atfinder/internal/models"

	"github.com/google/uuid"
)

// 集成测试需要一个真实的 Postgres，通过 TEST_DATABASE_URL 指定，
// 没配置就整包跳过。每个测试用随机租户隔离数据，互不干扰。
func newTestStore(t *testing.T) (*Store, models.Scope) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping store integration tests")
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
	return New(gdb), scope
}

func mustCreateRequest(t *testing.T, s *Store, scope models.Scope, title string) *models.AttributionRequest {
	t.Helper()
	req, serr := s.CreateRequest(context.Background(), scope, RequestFields{
		Title:       title,
		Platform:    models.PlatformTikTok,
		SubmittedBy: "tester",
	})
	if serr != nil {
		t.Fatalf("create request: %v", serr)
	}
	return req
}

func TestCreateRequestValidation(t *testing.T) {
	s, scope := newTestStore(t)

	if _, serr := s.CreateRequest(context.Background(), scope, RequestFields{}); serr == nil {
		t.Fatal("empty title must be rejected")
	}
	if _, serr := s.CreateRequest(context.Background(), scope, RequestFields{
		Title: "x", Platform: models.Platform("myspace"),
	}); serr == nil {
		t.Fatal("unknown platform must be rejected")
	}
}

func TestListRequestsSortModes(t *testing.T) {
	s, scope := newTestStore(t)
	ctx := context.Background()

	a := mustCreateRequest(t, s, scope, "oldest")
	time.Sleep(10 * time.Millisecond)
	b := mustCreateRequest(t, s, scope, "newest")

	// b 没有赞，a 两个
	if _, serr := s.CastVote(ctx, scope, models.TargetRequest, a.ID, "u1", 1); serr != nil {
		t.Fatal(serr)
	}
	if _, serr := s.CastVote(ctx, scope, models.TargetRequest, a.ID, "u2", 1); serr != nil {
		t.Fatal(serr)
	}

	recent, total, serr := s.ListRequests(ctx, scope, SortRecent, 10, 0)
	if serr != nil {
		t.Fatal(serr)
	}
	if total != 2 {
		t.Fatalf("expected total 2, got %d", total)
	}
	if recent[0].ID != b.ID {
		t.Fatalf("recent sort: expected newest first, got %q", recent[0].Title)
	}

	popular, _, serr := s.ListRequests(ctx, scope, SortPopular, 10, 0)
	if serr != nil {
		t.Fatal(serr)
	}
	if popular[0].ID != a.ID {
		t.Fatalf("popular sort: expected most voted first, got %q", popular[0].Title)
	}
}

// 相同参数重复列表必须返回相同的有序 id 序列，
// 排序键带 created_at 兜底，同票数的行顺序也要稳定
func TestListRequestsOrderingIsStable(t *testing.T) {
	s, scope := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreateRequest(t, s, scope, "entry "+string(rune('a'+i)))
		time.Sleep(5 * time.Millisecond)
	}

	for _, sort := range []SortMode{SortRecent, SortPopular} {
		first, _, serr := s.ListRequests(ctx, scope, sort, 3, 1)
		if serr != nil {
			t.Fatal(serr)
		}
		second, _, serr := s.ListRequests(ctx, scope, sort, 3, 1)
		if serr != nil {
			t.Fatal(serr)
		}
		if len(first) != len(second) {
			t.Fatalf("sort %q: lengths differ, %d vs %d", sort, len(first), len(second))
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Fatalf("sort %q: position %d differs, %s vs %s", sort, i, first[i].ID, second[i].ID)
			}
		}
	}
}

func TestListRequestsByStatus(t *testing.T) {
	s, scope := newTestStore(t)
	ctx := context.Background()

	open := mustCreateRequest(t, s, scope, "still open")
	solved := mustCreateRequest(t, s, scope, "already solved")
	answer, serr := s.CreateAnswer(ctx, scope, solved.ID, AnswerFields{CreatorHandle: "@origin"})
	if serr != nil {
		t.Fatal(serr)
	}
	if _, serr := s.VerifyAnswer(ctx, scope, answer.ID, "mod"); serr != nil {
		t.Fatal(serr)
	}

	got, serr := s.ListRequestsByStatus(ctx, scope, models.StatusSolved, SortRecent, 10, 0)
	if serr != nil {
		t.Fatal(serr)
	}
	if len(got) != 1 || got[0].ID != solved.ID {
		t.Fatalf("unexpected solved list: %+v", got)
	}

	got, serr = s.ListRequestsByStatus(ctx, scope, models.StatusOpen, SortRecent, 10, 0)
	if serr != nil {
		t.Fatal(serr)
	}
	if len(got) != 1 || got[0].ID != open.ID {
		t.Fatalf("unexpected open list: %+v", got)
	}
}

func TestScopeIsolation(t *testing.T) {
	s, scope := newTestStore(t)
	other := models.Scope{TenantID: "t-" + uuid.NewString(), ProjectID: "p-" + uuid.NewString()}
	ctx := context.Background()

	req := mustCreateRequest(t, s, scope, "mine")

	if _, serr := s.GetRequestByID(ctx, other, req.ID); !IsNotFound(serr) {
		t.Fatalf("foreign scope must not see the request, got %v", serr)
	}
	items, _, serr := s.ListRequests(ctx, other, SortRecent, 10, 0)
	if serr != nil {
		t.Fatal(serr)
	}
	if len(items) != 0 {
		t.Fatalf("foreign scope listed %d items", len(items))
	}
}

func TestCastVoteRetractAndFlip(t *testing.T) {
	s, scope := newTestStore(t)
	ctx := context.Background()
	req := mustCreateRequest(t, s, scope, "vote target")

	count, serr := s.CastVote(ctx, scope, models.TargetRequest, req.ID, "u1", 1)
	if serr != nil {
		t.Fatal(serr)
	}
	if count != 1 {
		t.Fatalf("after upvote expected 1, got %d", count)
	}

	// 同值再投 = 撤票
	count, serr = s.CastVote(ctx, scope, models.TargetRequest, req.ID, "u1", 1)
	if serr != nil {
		t.Fatal(serr)
	}
	if count != 0 {
		t.Fatalf("after retract expected 0, got %d", count)
	}

	// 先顶再踩 = 翻转
	if _, serr = s.CastVote(ctx, scope, models.TargetRequest, req.ID, "u1", 1); serr != nil {
		t.Fatal(serr)
	}
	count, serr = s.CastVote(ctx, scope, models.TargetRequest, req.ID, "u1", -1)
	if serr != nil {
		t.Fatal(serr)
	}
	// 1 + 2*(-1) 被地板钳到 0 以上: 1 - 2 = -1 → 0
	if count != 0 {
		t.Fatalf("after flip expected floor at 0, got %d", count)
	}
}

func TestCommentUpvoteFloorAtZero(t *testing.T) {
	s, scope := newTestStore(t)
	ctx := context.Background()
	req := mustCreateRequest(t, s, scope, "floored")

	comment, serr := s.CreateComment(ctx, scope, models.TargetRequest, req.ID, CommentFields{
		Content: "down with this", UserID: "u1", UserHandle: "u1",
	})
	if serr != nil {
		t.Fatal(serr)
	}
	count, serr := s.AdjustCommentUpvote(ctx, scope, comment.ID, -5)
	if serr != nil {
		t.Fatal(serr)
	}
	if count != 0 {
		t.Fatalf("expected upvotes clamped to 0, got %d", count)
	}
}

func TestAnswerAndCommentCounters(t *testing.T) {
	s, scope := newTestStore(t)
	ctx := context.Background()
	req := mustCreateRequest(t, s, scope, "countered")

	answer, serr := s.CreateAnswer(ctx, scope, req.ID, AnswerFields{CreatorHandle: "@someone"})
	if serr != nil {
		t.Fatal(serr)
	}
	if _, serr := s.CreateComment(ctx, scope, models.TargetRequest, req.ID, CommentFields{
		Content: "any leads?", UserID: "u1", UserHandle: "u1",
	}); serr != nil {
		t.Fatal(serr)
	}
	if _, serr := s.CreateComment(ctx, scope, models.TargetAnswer, answer.ID, CommentFields{
		Content: "source?", UserID: "u2", UserHandle: "u2",
	}); serr != nil {
		t.Fatal(serr)
	}

	got, serr := s.GetRequestByID(ctx, scope, req.ID)
	if serr != nil {
		t.Fatal(serr)
	}
	if got.AnswerCount != 1 {
		t.Fatalf("expected answer_count 1, got %d", got.AnswerCount)
	}
	if got.CommentCount != 1 {
		t.Fatalf("expected comment_count 1, got %d", got.CommentCount)
	}

	gotAnswer, serr := s.GetAnswerByID(ctx, scope, answer.ID)
	if serr != nil {
		t.Fatal(serr)
	}
	if gotAnswer.CommentCount != 1 {
		t.Fatalf("expected answer comment_count 1, got %d", gotAnswer.CommentCount)
	}
}

func TestVerifyAnswerExactlyOnce(t *testing.T) {
	s, scope := newTestStore(t)
	ctx := context.Background()
	req := mustCreateRequest(t, s, scope, "who made it")

	answer, serr := s.CreateAnswer(ctx, scope, req.ID, AnswerFields{CreatorHandle: "@jalaiah_harmon"})
	if serr != nil {
		t.Fatal(serr)
	}

	verified, serr := s.VerifyAnswer(ctx, scope, answer.ID, "mod-1")
	if serr != nil {
		t.Fatal(serr)
	}
	if !verified.IsVerified || verified.VerifiedBy != "mod-1" || verified.VerifiedAt == nil {
		t.Fatalf("verify fields not stamped: %+v", verified)
	}

	// 父帖同事务转 solved 并带上认证作者
	got, serr := s.GetRequestByID(ctx, scope, req.ID)
	if serr != nil {
		t.Fatal(serr)
	}
	if got.Status != models.StatusSolved || !got.Verified || got.VerifiedCreatorHandle != "@jalaiah_harmon" {
		t.Fatalf("parent not solved: %+v", got)
	}

	// 第二次验证必须失败
	if _, serr := s.VerifyAnswer(ctx, scope, answer.ID, "mod-2"); serr == nil {
		t.Fatal("second verification must be rejected")
	}
}

func TestAnswersOrderVerifiedFirst(t *testing.T) {
	s, scope := newTestStore(t)
	ctx := context.Background()
	req := mustCreateRequest(t, s, scope, "ordering")

	popular, serr := s.CreateAnswer(ctx, scope, req.ID, AnswerFields{CreatorHandle: "@popular"})
	if serr != nil {
		t.Fatal(serr)
	}
	verified, serr := s.CreateAnswer(ctx, scope, req.ID, AnswerFields{CreatorHandle: "@verified"})
	if serr != nil {
		t.Fatal(serr)
	}

	// popular 票更多，但 verified 被认证后必须排最前
	if _, serr := s.CastVote(ctx, scope, models.TargetAnswer, popular.ID, "u1", 1); serr != nil {
		t.Fatal(serr)
	}
	if _, serr := s.CastVote(ctx, scope, models.TargetAnswer, popular.ID, "u2", 1); serr != nil {
		t.Fatal(serr)
	}
	if _, serr := s.VerifyAnswer(ctx, scope, verified.ID, "mod"); serr != nil {
		t.Fatal(serr)
	}

	answers, serr := s.ListAnswers(ctx, scope, req.ID)
	if serr != nil {
		t.Fatal(serr)
	}
	if len(answers) != 2 || answers[0].ID != verified.ID {
		t.Fatalf("verified answer must sort first: %+v", answers)
	}
}

func TestCloseRequestIsTerminal(t *testing.T) {
	s, scope := newTestStore(t)
	ctx := context.Background()
	req := mustCreateRequest(t, s, scope, "to close")

	got, serr := s.CloseRequest(ctx, scope, req.ID)
	if serr != nil {
		t.Fatal(serr)
	}
	if got.Status != models.StatusClosed {
		t.Fatalf("expected closed, got %s", got.Status)
	}

	if _, serr := s.CloseRequest(ctx, scope, req.ID); serr == nil {
		t.Fatal("closing twice must fail")
	}
}

func TestDeleteRequestCascades(t *testing.T) {
	s, scope := newTestStore(t)
	ctx := context.Background()
	req := mustCreateRequest(t, s, scope, "doomed")

	answer, serr := s.CreateAnswer(ctx, scope, req.ID, AnswerFields{CreatorHandle: "@x"})
	if serr != nil {
		t.Fatal(serr)
	}
	if _, serr := s.CastVote(ctx, scope, models.TargetRequest, req.ID, "u1", 1); serr != nil {
		t.Fatal(serr)
	}
	if _, serr := s.CastVote(ctx, scope, models.TargetAnswer, answer.ID, "u1", 1); serr != nil {
		t.Fatal(serr)
	}
	if _, serr := s.CreateComment(ctx, scope, models.TargetAnswer, answer.ID, CommentFields{
		Content: "gone soon", UserID: "u1", UserHandle: "u1",
	}); serr != nil {
		t.Fatal(serr)
	}

	if serr := s.DeleteRequest(ctx, scope, req.ID); serr != nil {
		t.Fatal(serr)
	}

	if _, serr := s.GetRequestByID(ctx, scope, req.ID); !IsNotFound(serr) {
		t.Fatal("request should be gone")
	}
	if _, serr := s.GetAnswerByID(ctx, scope, answer.ID); !IsNotFound(serr) {
		t.Fatal("answer should be gone")
	}
	comments, serr := s.ListComments(ctx, scope, models.TargetAnswer, answer.ID)
	if serr != nil {
		t.Fatal(serr)
	}
	if len(comments) != 0 {
		t.Fatalf("answer comments should be gone, got %d", len(comments))
	}
}

func TestVoteOnMissingTarget(t *testing.T) {
	s, scope := newTestStore(t)
	if _, serr := s.CastVote(context.Background(), scope, models.TargetRequest, uuid.New(), "u1", 1); !IsNotFound(serr) {
		t.Fatalf("expected not found, got %v", serr)
	}
}
