package util

import "errors"

var (
	ErrUserNotFound            = errors.New("用户不存在")
	ErrEmailRegistered         = errors.New("该邮箱已被注册")
	ErrPermissionDenied        = errors.New("permission denied")
	ErrTestNotFound            = errors.New("test not found")
	ErrQuestionNotFound        = errors.New("question not found")
	ErrResultNotFound          = errors.New("result not found")
	ErrQuestionNotInTest       = errors.New("question does not belong to this test")
	ErrAnswerNotInQuestion     = errors.New("submitted answer does not belong to this question")
	ErrDuplicateAnswer         = errors.New("submitted answer listed more than once")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptConflict         = errors.New("question already answered in this attempt")
	ErrUnknownQuestionType     = errors.New("unknown question type")
	ErrThresholdTooHigh        = errors.New("required correct answers exceeds question count")
)
