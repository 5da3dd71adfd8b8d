package controller

import (
	"errors"

	"easytest_backend/internal/service"
	"easytest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	Service *service.AttemptService
}

func NewAttemptController(svc *service.AttemptService) *AttemptController {
	return &AttemptController{Service: svc}
}

// attemptError 把答题会话错误映射到响应
func attemptError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrTestNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrResultNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAnswerNotInQuestion),
		errors.Is(err, util.ErrDuplicateAnswer),
		errors.Is(err, util.ErrQuestionNotInTest),
		errors.Is(err, util.ErrUnknownQuestionType):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrAttemptConflict),
		errors.Is(err, util.ErrAttemptAlreadySubmitted):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// @Summary 开始（或重新开始）一次答题，旧的答题记录被物理删除
// @Tags 答题
// @Security BearerAuth
// @Router /api/tests/{id}/attempt [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	testID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	result, err := c.Service.Start(ctx.Request.Context(), claims.UserID, testID)
	if err != nil {
		attemptError(ctx, err)
		return
	}

	current, err := c.Service.CurrentQuestion(ctx.Request.Context(), result)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"result": result, "current": current})
}

// @Summary 当前待答题目；没有进行中的答题则自动开考
// @Tags 答题
// @Security BearerAuth
// @Router /api/tests/{id}/attempt/current [get]
func (c *AttemptController) Current(ctx *gin.Context) {
	testID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	result, err := c.Service.Ensure(ctx.Request.Context(), claims.UserID, testID)
	if err != nil {
		attemptError(ctx, err)
		return
	}

	current, err := c.Service.CurrentQuestion(ctx.Request.Context(), result)
	if err != nil {
		attemptError(ctx, err)
		return
	}

	state := service.StateInProgress
	if result.Submitted {
		state = service.StateFinished
	} else if current == nil {
		state = service.StateCompleted
	}
	util.Success(ctx, gin.H{"state": state, "result": result, "current": current})
}

// @Summary 提交单题作答（skip=true 表示跳过，intent=finish 表示交卷）
// @Tags 答题
// @Security BearerAuth
// @Router /api/tests/{id}/attempt/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	testID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Intent == "" {
		req.Intent = service.IntentNext
	}

	claims := util.GetUserFromContext(ctx)
	outcome, err := c.Service.Advance(ctx.Request.Context(), claims.UserID, testID, req)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, outcome)
}

// @Summary 本人在某测试下的结果
// @Tags 答题
// @Security BearerAuth
// @Router /api/tests/{id}/result [get]
func (c *AttemptController) Result(ctx *gin.Context) {
	testID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	result, err := c.Service.Get(claims.UserID, testID)
	if err != nil {
		attemptError(ctx, err)
		return
	}

	mistakes, err := c.Service.IncorrectAnswers(claims.UserID, result.ID)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"result": result, "incorrectAnswers": mistakes})
}

// @Summary 本人全部结果
// @Tags 答题
// @Security BearerAuth
// @Router /api/results [get]
func (c *AttemptController) ListResults(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	results, err := c.Service.ListByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}
