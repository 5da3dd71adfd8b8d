package service

import (
	"context"
	"errors"
	"time"

	"easytest_backend/internal/model"
	"easytest_backend/internal/repository"
	"easytest_backend/internal/scoring"
	"easytest_backend/internal/util"
	"easytest_backend/pkg/logger"
	"easytest_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdvanceIntent 前端提交意图：继续下一题，或交卷看结果。
// 超时不是意图，是服务端判定出的结局。
type AdvanceIntent string

const (
	IntentNext   AdvanceIntent = "next"
	IntentFinish AdvanceIntent = "finish"
)

// AttemptState 一次提交后的会话状态
type AttemptState string

const (
	StateInProgress AttemptState = "in_progress"
	StateCompleted  AttemptState = "completed" // 所有题已作答，等待交卷
	StateFinished   AttemptState = "finished"  // 已交卷
	StateExpired    AttemptState = "expired"
)

// AnswerOption 发给学生的备选答案，不携带 IsCorrect/Position
type AnswerOption struct {
	ID          uint   `json:"id"`
	Description string `json:"description"`
}

// QuestionView 当前待答题目
type QuestionView struct {
	QuestionID  uint           `json:"questionId"`
	QType       string         `json:"qType"`
	Description string         `json:"description"`
	Options     []AnswerOption `json:"options"`
	Position    int            `json:"position"`
	SkipCount   int            `json:"skipCount"`
	TimeLeft    string         `json:"timeLeft"`
}

// SubmitRequest 单题提交。QuestionID 为零且 intent=finish 时
// 不判题直接交卷（用于整卷答完后的收尾提交）。
type SubmitRequest struct {
	QuestionID uint          `json:"questionId"`
	AnswerIDs  []uint        `json:"answerIds"`
	Skip       bool          `json:"skip"`
	Intent     AdvanceIntent `json:"intent"`
	// TimeLeft 客户端回显的剩余时间，仅为倒计时展示连续性存入会话
	TimeLeft string `json:"timeLeft"`
}

// AdvanceOutcome 提交的结果：会话状态、答题记录、下一题（如有）
type AdvanceOutcome struct {
	State    AttemptState  `json:"state"`
	Result   *model.Result `json:"result"`
	Current  *QuestionView `json:"current,omitempty"`
	TimeLeft string        `json:"timeLeft,omitempty"`
}

// AttemptService 管理一次答题的完整生命周期：开考、走题、判题、交卷。
type AttemptService struct {
	DB        *gorm.DB
	Tests     *repository.TestRepository
	Questions *repository.QuestionRepository
	Results   *repository.ResultRepository
	Sessions  SessionStore
	Clock     SessionClock
}

func NewAttemptService(db *gorm.DB, tests *repository.TestRepository, questions *repository.QuestionRepository, results *repository.ResultRepository, sessions SessionStore) *AttemptService {
	return &AttemptService{
		DB:        db,
		Tests:     tests,
		Questions: questions,
		Results:   results,
		Sessions:  sessions,
		Clock:     NewSessionClock(),
	}
}

func (s *AttemptService) timeLimit(test *model.Test) time.Duration {
	return time.Duration(test.TimeLimitSeconds) * time.Second
}

// Start 开始一次新的答题。同一 (owner, test) 的旧记录连同其
// user_answers 先被物理删除，然后建新 Result 并按出题顺序为每道题
// 预建占位 user_answer。整个过程一个事务。
func (s *AttemptService) Start(ctx context.Context, userID, testID uint) (*model.Result, error) {
	test, err := s.Tests.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}

	questions, err := s.Tests.QuestionsInOrder(testID)
	if err != nil {
		return nil, err
	}

	startedAt := s.Clock.Now()
	result := &model.Result{
		OwnerID:   userID,
		TestID:    testID,
		StartedAt: startedAt,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		results := repository.NewResultRepository(tx)

		if err := results.HardDeleteByUserAndTest(userID, testID); err != nil {
			return err
		}
		if err := results.Create(result); err != nil {
			return err
		}

		placeholders := make([]model.UserAnswer, len(questions))
		for i, q := range questions {
			placeholders[i] = model.UserAnswer{
				OwnerID:    userID,
				ResultID:   result.ID,
				QuestionID: q.ID,
				Position:   i + 1,
			}
		}
		return results.CreateUserAnswers(placeholders)
	})
	if err != nil {
		return nil, err
	}

	// 倒计时展示值写入会话，仅供前端显示
	if err := s.Sessions.SetClockBegin(ctx, userID, testID, startedAt); err != nil {
		logger.Log.Warn("failed to store session clock", zap.Error(err))
	}
	if err := s.Sessions.SetTimeLeft(ctx, userID, testID, FormatClock(s.timeLimit(test))); err != nil {
		logger.Log.Warn("failed to store session time left", zap.Error(err))
	}

	monitoring.AttemptsStarted.Inc()
	logger.Log.Info("attempt started",
		zap.Uint("userId", userID),
		zap.Uint("testId", testID),
		zap.Uint("resultId", result.ID),
	)
	return result, nil
}

// Ensure 返回当前进行中的 Result，不存在则开新的。
// 显式的 ensure 取代散落的 get-or-create-on-read。
func (s *AttemptService) Ensure(ctx context.Context, userID, testID uint) (*model.Result, error) {
	result, err := s.Results.FindByUserAndTest(userID, testID)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.Start(ctx, userID, testID)
}

// CurrentQuestion 出题顺序上第一道未作答的题；整卷答完返回 (nil, nil)。
// 两次调用之间没有 Advance 时结果不变。
func (s *AttemptService) CurrentQuestion(ctx context.Context, result *model.Result) (*QuestionView, error) {
	ua, err := s.Results.FirstUnattempted(result.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	question, err := s.Questions.FindWithAnswers(ua.QuestionID)
	if err != nil {
		return nil, err
	}

	options := make([]AnswerOption, len(question.Answers))
	for i, a := range question.Answers {
		options[i] = AnswerOption{ID: a.ID, Description: a.Description}
	}

	// 展示用倒计时：优先用前端回显值，缺失时从会话起考时间重算
	timeLeft, err := s.Sessions.TimeLeft(ctx, result.OwnerID, result.TestID)
	if err != nil {
		timeLeft = ""
		if begin, berr := s.Sessions.ClockBegin(ctx, result.OwnerID, result.TestID); berr == nil {
			if test, terr := s.Tests.FindByID(result.TestID); terr == nil && test.TimeLimitSeconds > 0 {
				timeLeft = FormatClock(s.timeLimit(test) - s.Clock.Elapsed(begin))
			}
		}
	}

	return &QuestionView{
		QuestionID:  question.ID,
		QType:       question.QType,
		Description: question.Description,
		Options:     options,
		Position:    ua.Position,
		SkipCount:   ua.SkipCount,
		TimeLeft:    timeLeft,
	}, nil
}

// Advance 处理一次单题提交：校验归属与答案合法性，判题并写入
// 作答快照，必要时交卷。对同一 Result 的并发提交由行锁加
// (result_id, question_id) 唯一约束串行化；重复作答已答过的题
// 返回冲突而非覆盖。
func (s *AttemptService) Advance(ctx context.Context, userID, testID uint, req SubmitRequest) (*AdvanceOutcome, error) {
	test, err := s.Tests.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}

	// 客户端回显值只进会话展示，不参与任何判定
	if req.TimeLeft != "" {
		if err := s.Sessions.SetTimeLeft(ctx, userID, testID, req.TimeLeft); err != nil {
			logger.Log.Warn("failed to echo session time left", zap.Error(err))
		}
	}

	var outcome *AdvanceOutcome
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		results := repository.NewResultRepository(tx)
		questions := repository.NewQuestionRepository(tx)
		tests := repository.NewTestRepository(tx)

		result, err := results.FindByUserAndTestLocked(userID, testID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrResultNotFound
			}
			return err
		}
		if result.OwnerID != userID {
			return util.ErrPermissionDenied
		}
		if result.Submitted {
			return util.ErrAttemptAlreadySubmitted
		}

		// 超时判定永远从持久化的起考时间重算
		elapsed := s.Clock.Elapsed(result.StartedAt)
		if s.Clock.Expired(elapsed, s.timeLimit(test)) {
			// 超时即终态：本次提交不落盘，按已有作答封卷
			if err := s.finalize(results, result, test, elapsed); err != nil {
				return err
			}
			outcome = &AdvanceOutcome{State: StateExpired, Result: result}
			return nil
		}

		// 纯交卷提交：整卷答完后不带题目直接封卷
		if req.QuestionID == 0 {
			if req.Intent != IntentFinish {
				return util.ErrQuestionNotFound
			}
			if err := s.finalize(results, result, test, elapsed); err != nil {
				return err
			}
			outcome = &AdvanceOutcome{State: StateFinished, Result: result}
			return nil
		}

		question, err := questions.FindWithAnswers(req.QuestionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuestionNotFound
			}
			return err
		}

		ua, err := results.FindUserAnswer(result.ID, question.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// 占位行缺失时就地补建；正常流程只会在开考后新挂题时走到这里。
			// 不属于本卷的题目直接拒绝。
			pos, err := tests.QuestionPosition(testID, question.ID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return util.ErrQuestionNotInTest
				}
				return err
			}
			ua = &model.UserAnswer{
				OwnerID:    userID,
				ResultID:   result.ID,
				QuestionID: question.ID,
				Position:   pos,
			}
			if err := results.CreateUserAnswer(ua); err != nil {
				return err
			}
		}

		// 已作答的题不可覆盖，跳过也不行
		if ua.Attempted {
			return util.ErrAttemptConflict
		}

		if req.Skip || len(req.AnswerIDs) == 0 {
			// 跳过：不判题，计数器 +1，占位行保持未作答
			ua.SkipCount++
			if err := results.SaveUserAnswer(ua); err != nil {
				return err
			}
		} else {
			submitted, err := orderedSubmission(question, req.AnswerIDs)
			if err != nil {
				return err
			}

			out, err := scoring.Evaluate(question.QType, question.Answers, submitted)
			if err != nil {
				return util.ErrUnknownQuestionType
			}

			ua.IsCorrect = out.Correct
			ua.RightAnswer = out.RightText
			ua.UserAnswer = out.UserText
			ua.Attempted = true
			if err := results.SaveUserAnswer(ua); err != nil {
				return err
			}
		}

		if req.Intent == IntentFinish {
			if err := s.finalize(results, result, test, elapsed); err != nil {
				return err
			}
			outcome = &AdvanceOutcome{State: StateFinished, Result: result}
			return nil
		}

		outcome = &AdvanceOutcome{State: StateInProgress, Result: result}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.State == StateInProgress {
		current, err := s.CurrentQuestion(ctx, outcome.Result)
		if err != nil {
			return nil, err
		}
		if current == nil {
			outcome.State = StateCompleted
		}
		outcome.Current = current
	}

	// 终态后会话里的倒计时展示值已无意义
	if outcome.State == StateFinished || outcome.State == StateExpired {
		if err := s.Sessions.Clear(ctx, userID, testID); err != nil {
			logger.Log.Warn("failed to clear session clock", zap.Error(err))
		}
	}

	return outcome, nil
}

// finalize 封卷：统计对错、写用时、判定通过线。
func (s *AttemptService) finalize(results *repository.ResultRepository, result *model.Result, test *model.Test, elapsed time.Duration) error {
	right, err := results.CountCorrect(result.ID)
	if err != nil {
		return err
	}
	wrong, err := results.CountIncorrect(result.ID)
	if err != nil {
		return err
	}

	result.Submitted = true
	result.TimeSpent = FormatClock(elapsed)
	result.RightAnswersCount = int(right)
	result.WrongAnswersCount = int(wrong)
	result.IsTestPassed = result.RightAnswersCount >= test.RequiredCorrectAnswers

	if err := results.Save(result); err != nil {
		return err
	}

	passed := "false"
	if result.IsTestPassed {
		passed = "true"
	}
	monitoring.AttemptsFinalized.WithLabelValues(passed).Inc()
	logger.Log.Info("attempt finalized",
		zap.Uint("resultId", result.ID),
		zap.Int("right", result.RightAnswersCount),
		zap.Int("wrong", result.WrongAnswersCount),
		zap.Bool("passed", result.IsTestPassed),
	)
	return nil
}

// Get 本人结果查询；他人的记录一律 permission denied。
func (s *AttemptService) Get(userID, testID uint) (*model.Result, error) {
	result, err := s.Results.FindByUserAndTest(userID, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	return result, nil
}

// GetByID 按主键读取，校验归属
func (s *AttemptService) GetByID(userID, resultID uint) (*model.Result, error) {
	result, err := s.Results.FindByID(resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	if result.OwnerID != userID {
		return nil, util.ErrPermissionDenied
	}
	return result, nil
}

func (s *AttemptService) ListByUser(userID uint) ([]model.Result, error) {
	return s.Results.ListByUser(userID)
}

// IncorrectAnswers 结果页的错题明细
func (s *AttemptService) IncorrectAnswers(userID, resultID uint) ([]model.UserAnswer, error) {
	result, err := s.GetByID(userID, resultID)
	if err != nil {
		return nil, err
	}
	return s.Results.ListIncorrect(result.ID)
}

// orderedSubmission 把提交的答案 ID 映射回本题的答案行，保持提交顺序。
// 不属于本题的 ID 和重复的 ID 都判为非法提交，而不是静默记错。
func orderedSubmission(question *model.Question, answerIDs []uint) ([]model.Answer, error) {
	byID := make(map[uint]model.Answer, len(question.Answers))
	for _, a := range question.Answers {
		byID[a.ID] = a
	}

	seen := make(map[uint]bool, len(answerIDs))
	submitted := make([]model.Answer, 0, len(answerIDs))
	for _, id := range answerIDs {
		a, ok := byID[id]
		if !ok {
			return nil, util.ErrAnswerNotInQuestion
		}
		if seen[id] {
			return nil, util.ErrDuplicateAnswer
		}
		seen[id] = true
		submitted = append(submitted, a)
	}
	return submitted, nil
}
