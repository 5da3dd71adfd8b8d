package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"easytest_backend/internal/model"
	"easytest_backend/internal/repository"
	"easytest_backend/internal/util"
	"easytest_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type attemptFixture struct {
	db    *gorm.DB
	svc   *AttemptService
	user  model.User
	other model.User
	test  model.Test
	// 按出题顺序排列
	questions []model.Question
}

// newAttemptFixture 一份 5 题的卷子：3 道 select、2 道 sort，
// 限时 20 分钟，通过线 3 题。
func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()
	db := newTestDB(t)

	f := &attemptFixture{db: db}

	f.user = model.User{Name: "学员甲", Email: "student@example.com", Password: "x", Role: model.Student}
	f.other = model.User{Name: "学员乙", Email: "other@example.com", Password: "x", Role: model.Student}
	require.NoError(t, db.Create(&f.user).Error)
	require.NoError(t, db.Create(&f.other).Error)

	f.questions = []model.Question{
		{QType: model.QTypeSelect, Description: "法国的首都是？", Answers: []model.Answer{
			{Description: "巴黎", IsCorrect: true},
			{Description: "里昂"},
			{Description: "尼斯"},
		}},
		{QType: model.QTypeSelect, Description: "下列哪些是质数？", Answers: []model.Answer{
			{Description: "2", IsCorrect: true},
			{Description: "3", IsCorrect: true},
			{Description: "4"},
		}},
		{QType: model.QTypeSort, Description: "按步骤排序部署流程", Answers: []model.Answer{
			{Description: "构建", Position: 1},
			{Description: "测试", Position: 2},
			{Description: "发布", Position: 3},
		}},
		{QType: model.QTypeSelect, Description: "HTTP 默认端口？", Answers: []model.Answer{
			{Description: "80", IsCorrect: true},
			{Description: "8080"},
		}},
		{QType: model.QTypeSort, Description: "按字母序排列", Answers: []model.Answer{
			{Description: "apple", Position: 1},
			{Description: "banana", Position: 2},
		}},
	}
	ids := make([]uint, len(f.questions))
	for i := range f.questions {
		require.NoError(t, db.Create(&f.questions[i]).Error)
		ids[i] = f.questions[i].ID
	}

	f.test = model.Test{
		OwnerID:                f.other.ID,
		Title:                  "上岗测验",
		TimeLimitSeconds:       1200,
		RequiredCorrectAnswers: 3,
	}
	require.NoError(t, db.Create(&f.test).Error)

	tests := repository.NewTestRepository(db)
	require.NoError(t, tests.AttachQuestions(f.test.ID, ids))

	f.svc = NewAttemptService(db,
		tests,
		repository.NewQuestionRepository(db),
		repository.NewResultRepository(db),
		NewMemorySessionStore(),
	)
	return f
}

// answerID 按描述找答案行 ID
func (f *attemptFixture) answerID(t *testing.T, q model.Question, desc string) uint {
	t.Helper()
	var a model.Answer
	require.NoError(t, f.db.Where("question_id = ? AND description = ?", q.ID, desc).First(&a).Error)
	return a.ID
}

func TestStartPrebuildsPlaceholders(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	uas, err := f.svc.Results.ListUserAnswers(result.ID)
	require.NoError(t, err)
	require.Len(t, uas, 5)
	for i, ua := range uas {
		assert.Equal(t, i+1, ua.Position)
		assert.Equal(t, f.questions[i].ID, ua.QuestionID)
		assert.False(t, ua.Attempted)
		assert.Zero(t, ua.SkipCount)
	}
}

func TestEnsureReturnsExistingAttempt(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	again, err := f.svc.Ensure(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestCurrentQuestionStableWithoutAdvance(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	one, err := f.svc.CurrentQuestion(ctx, result)
	require.NoError(t, err)
	two, err := f.svc.CurrentQuestion(ctx, result)
	require.NoError(t, err)

	require.NotNil(t, one)
	assert.Equal(t, f.questions[0].ID, one.QuestionID)
	assert.Equal(t, 1, one.Position)
	assert.Equal(t, one.QuestionID, two.QuestionID)
	assert.Len(t, one.Options, 3)
}

func TestAdvanceSelectCorrect(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	out, err := f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: f.questions[0].ID,
		AnswerIDs:  []uint{f.answerID(t, f.questions[0], "巴黎")},
	})
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, out.State)
	require.NotNil(t, out.Current)
	assert.Equal(t, f.questions[1].ID, out.Current.QuestionID)

	ua, err := f.svc.Results.FindUserAnswer(out.Result.ID, f.questions[0].ID)
	require.NoError(t, err)
	assert.True(t, ua.Attempted)
	assert.True(t, ua.IsCorrect)
	assert.Equal(t, "巴黎", ua.UserAnswer)
	assert.Equal(t, "巴黎", ua.RightAnswer)
}

func TestAdvanceMultiSelectOrderIrrelevant(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	q := f.questions[1]
	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: q.ID,
		AnswerIDs:  []uint{f.answerID(t, q, "3"), f.answerID(t, q, "2")},
	})
	require.NoError(t, err)

	ua, err := f.svc.Results.FindUserAnswer(result.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, ua.IsCorrect)
	assert.Equal(t, "3; 2", ua.UserAnswer)
}

func TestAdvanceMultiSelectPartialIsWrong(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	q := f.questions[1]
	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: q.ID,
		AnswerIDs:  []uint{f.answerID(t, q, "2")},
	})
	require.NoError(t, err)

	ua, err := f.svc.Results.FindUserAnswer(result.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, ua.Attempted)
	assert.False(t, ua.IsCorrect)
}

func TestAdvanceSortJudgedByPosition(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	q := f.questions[2]
	build := f.answerID(t, q, "构建")
	test := f.answerID(t, q, "测试")
	release := f.answerID(t, q, "发布")

	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: q.ID,
		AnswerIDs:  []uint{build, test, release},
	})
	require.NoError(t, err)

	ua, err := f.svc.Results.FindUserAnswer(result.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, ua.IsCorrect)
	assert.Equal(t, "构建 - 测试 - 发布", ua.UserAnswer)
	assert.Equal(t, "构建 - 测试 - 发布", ua.RightAnswer)
}

func TestAdvanceSortWrongOrder(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	q := f.questions[2]
	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: q.ID,
		AnswerIDs: []uint{
			f.answerID(t, q, "测试"),
			f.answerID(t, q, "构建"),
			f.answerID(t, q, "发布"),
		},
	})
	require.NoError(t, err)

	ua, err := f.svc.Results.FindUserAnswer(result.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, ua.Attempted)
	assert.False(t, ua.IsCorrect)
}

func TestSkipLeavesQuestionPending(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
			QuestionID: f.questions[0].ID,
			Skip:       true,
		})
		require.NoError(t, err)
	}

	ua, err := f.svc.Results.FindUserAnswer(result.ID, f.questions[0].ID)
	require.NoError(t, err)
	assert.False(t, ua.Attempted)
	assert.Equal(t, 2, ua.SkipCount)

	// 跳过后当前题不变
	current, err := f.svc.CurrentQuestion(ctx, result)
	require.NoError(t, err)
	assert.Equal(t, f.questions[0].ID, current.QuestionID)
}

func TestEmptySubmissionCountsAsSkip(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: f.questions[0].ID,
		AnswerIDs:  []uint{},
	})
	require.NoError(t, err)

	ua, err := f.svc.Results.FindUserAnswer(result.ID, f.questions[0].ID)
	require.NoError(t, err)
	assert.False(t, ua.Attempted)
	assert.Equal(t, 1, ua.SkipCount)
}

func TestReanswerAttemptedQuestionConflicts(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	q := f.questions[0]
	paris := f.answerID(t, q, "巴黎")
	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{QuestionID: q.ID, AnswerIDs: []uint{paris}})
	require.NoError(t, err)

	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{QuestionID: q.ID, AnswerIDs: []uint{paris}})
	assert.ErrorIs(t, err, util.ErrAttemptConflict)

	// 跳过同样不能抹掉已有作答
	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{QuestionID: q.ID, Skip: true})
	assert.ErrorIs(t, err, util.ErrAttemptConflict)
}

func TestQuestionOutsideTestRejected(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	// 库里存在但没挂到本卷的题
	stray := model.Question{QType: model.QTypeSelect, Description: "未挂卷题目", Answers: []model.Answer{
		{Description: "A", IsCorrect: true},
	}}
	require.NoError(t, f.db.Create(&stray).Error)

	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: stray.ID,
		AnswerIDs:  []uint{stray.Answers[0].ID},
	})
	assert.ErrorIs(t, err, util.ErrQuestionNotInTest)
}

func TestDuplicateAnswerIDsRejected(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	// 多选题只重复提交一个正确答案，必须整体拒绝而不是判对
	q := f.questions[1]
	two := f.answerID(t, q, "2")
	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: q.ID,
		AnswerIDs:  []uint{two, two},
	})
	assert.ErrorIs(t, err, util.ErrDuplicateAnswer)

	// 被拒绝的提交不留作答痕迹
	ua, err := f.svc.Results.FindUserAnswer(result.ID, q.ID)
	require.NoError(t, err)
	assert.False(t, ua.Attempted)
}

func TestForeignAnswerRejected(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	// 其他题目的答案 ID 不能混进来
	foreign := f.answerID(t, f.questions[1], "2")
	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: f.questions[0].ID,
		AnswerIDs:  []uint{foreign},
	})
	assert.ErrorIs(t, err, util.ErrAnswerNotInQuestion)
}

// 答 3 对 2 错后交卷：通过线 3，应判通过。
func TestFinalizeCountsAndThreshold(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	f.svc.Clock = SessionClock{Now: func() time.Time { return now }}

	_, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	now = base.Add(90 * time.Second)

	submit := func(q model.Question, ids []uint, intent AdvanceIntent) *AdvanceOutcome {
		out, err := f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
			QuestionID: q.ID, AnswerIDs: ids, Intent: intent,
		})
		require.NoError(t, err)
		return out
	}

	submit(f.questions[0], []uint{f.answerID(t, f.questions[0], "巴黎")}, IntentNext)
	submit(f.questions[1], []uint{f.answerID(t, f.questions[1], "2"), f.answerID(t, f.questions[1], "3")}, IntentNext)
	submit(f.questions[2], []uint{
		f.answerID(t, f.questions[2], "发布"),
		f.answerID(t, f.questions[2], "构建"),
		f.answerID(t, f.questions[2], "测试"),
	}, IntentNext)
	submit(f.questions[3], []uint{f.answerID(t, f.questions[3], "80")}, IntentNext)
	out := submit(f.questions[4], []uint{
		f.answerID(t, f.questions[4], "banana"),
		f.answerID(t, f.questions[4], "apple"),
	}, IntentFinish)

	assert.Equal(t, StateFinished, out.State)
	assert.True(t, out.Result.Submitted)
	assert.Equal(t, 3, out.Result.RightAnswersCount)
	assert.Equal(t, 2, out.Result.WrongAnswersCount)
	assert.True(t, out.Result.IsTestPassed)
	assert.Equal(t, "01:30", out.Result.TimeSpent)

	wrong, err := f.svc.IncorrectAnswers(f.user.ID, out.Result.ID)
	require.NoError(t, err)
	assert.Len(t, wrong, 2)
}

func TestCompletedThenFinalizeOnly(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	answers := [][]uint{
		{f.answerID(t, f.questions[0], "巴黎")},
		{f.answerID(t, f.questions[1], "2"), f.answerID(t, f.questions[1], "3")},
		{f.answerID(t, f.questions[2], "构建"), f.answerID(t, f.questions[2], "测试"), f.answerID(t, f.questions[2], "发布")},
		{f.answerID(t, f.questions[3], "80")},
		{f.answerID(t, f.questions[4], "apple"), f.answerID(t, f.questions[4], "banana")},
	}

	var out *AdvanceOutcome
	for i, q := range f.questions {
		out, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
			QuestionID: q.ID, AnswerIDs: answers[i], Intent: IntentNext,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, StateCompleted, out.State)
	assert.Nil(t, out.Current)
	assert.False(t, out.Result.Submitted)

	// 整卷答完后不带题目的交卷提交
	out, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{Intent: IntentFinish})
	require.NoError(t, err)
	assert.Equal(t, StateFinished, out.State)
	assert.True(t, out.Result.Submitted)
	assert.Equal(t, 5, out.Result.RightAnswersCount)
}

func TestSubmitAfterFinishRejected(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	q := f.questions[0]
	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: q.ID,
		AnswerIDs:  []uint{f.answerID(t, q, "巴黎")},
		Intent:     IntentFinish,
	})
	require.NoError(t, err)

	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: f.questions[1].ID,
		AnswerIDs:  []uint{f.answerID(t, f.questions[1], "2")},
	})
	assert.ErrorIs(t, err, util.ErrAttemptAlreadySubmitted)
}

func TestExpiryFinalizesWithoutRecordingSubmission(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	f.svc.Clock = SessionClock{Now: func() time.Time { return now }}

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	q := f.questions[0]
	paris := f.answerID(t, q, "巴黎")

	// 恰好用满限时（1200s）仍接受提交
	now = base.Add(1200 * time.Second)
	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{QuestionID: q.ID, AnswerIDs: []uint{paris}})
	require.NoError(t, err)

	// 超过一秒即超时：本次提交不落盘，按已有作答封卷
	now = base.Add(1201 * time.Second)
	out, err := f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: f.questions[1].ID,
		AnswerIDs:  []uint{f.answerID(t, f.questions[1], "2"), f.answerID(t, f.questions[1], "3")},
	})
	require.NoError(t, err)
	assert.Equal(t, StateExpired, out.State)
	assert.True(t, out.Result.Submitted)
	assert.Equal(t, 1, out.Result.RightAnswersCount)

	ua, err := f.svc.Results.FindUserAnswer(result.ID, f.questions[1].ID)
	require.NoError(t, err)
	assert.False(t, ua.Attempted)
}

func TestRetakeHardDeletesPriorAttempt(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, f.user.ID, f.test.ID, SubmitRequest{
		QuestionID: f.questions[0].ID,
		AnswerIDs:  []uint{f.answerID(t, f.questions[0], "巴黎")},
		Intent:     IntentFinish,
	})
	require.NoError(t, err)

	second, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// 旧记录物理删除，连 Unscoped 也查不到
	var count int64
	require.NoError(t, f.db.Unscoped().Model(&model.Result{}).Where("id = ?", first.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.db.Unscoped().Model(&model.UserAnswer{}).Where("result_id = ?", first.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResultOwnershipEnforced(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()

	result, err := f.svc.Start(ctx, f.user.ID, f.test.ID)
	require.NoError(t, err)

	got, err := f.svc.GetByID(f.user.ID, result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, got.ID)

	_, err = f.svc.GetByID(f.other.ID, result.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = f.svc.GetByID(f.user.ID, 9999)
	assert.ErrorIs(t, err, util.ErrResultNotFound)

	_, err = f.svc.Get(f.other.ID, f.test.ID)
	assert.ErrorIs(t, err, util.ErrResultNotFound)
}

func TestStartUnknownTest(t *testing.T) {
	f := newAttemptFixture(t)

	_, err := f.svc.Start(context.Background(), f.user.ID, 9999)
	assert.ErrorIs(t, err, util.ErrTestNotFound)
}
