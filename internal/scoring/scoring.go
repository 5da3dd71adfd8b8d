package scoring

import (
	"fmt"
	"sort"
	"strings"

	"easytest_backend/internal/model"
)

// Outcome 单题判定结果，RightText/UserText 为用于展示和留档的文本快照
type Outcome struct {
	Correct   bool
	RightText string
	UserText  string
}

// Judge 按题型判定作答。correct 为题目的完整备选答案集，
// submitted 为学生按提交顺序给出的答案行。
type Judge interface {
	Evaluate(answers []model.Answer, submitted []model.Answer) Outcome
}

var judges = map[string]Judge{}

// Register 注册题型判定策略。新增题型加一个 Judge 实现即可，
// 不修改判题流程。
func Register(qType string, j Judge) {
	judges[qType] = j
}

// Known 题型是否已注册（导入和建题时校验）
func Known(qType string) bool {
	_, ok := judges[qType]
	return ok
}

// Evaluate 按题型分发判定；未注册的题型返回错误而非静默判错
func Evaluate(qType string, answers []model.Answer, submitted []model.Answer) (Outcome, error) {
	j, ok := judges[qType]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown question type %q", qType)
	}
	return j.Evaluate(answers, submitted), nil
}

func init() {
	Register(model.QTypeSelect, SelectJudge{})
	Register(model.QTypeSort, SortJudge{})
}

// stringify 把答案行拼成展示文本，空集合返回空串
func stringify(answers []model.Answer, separator string) string {
	if len(answers) == 0 {
		return ""
	}
	parts := make([]string, len(answers))
	for i, a := range answers {
		parts[i] = a.Description
	}
	return strings.Join(parts, separator)
}

// SelectJudge 单选/多选：正确当且仅当提交集合与标记为正确的
// 答案集合完全相等（集合意义上，顺序无关）。
type SelectJudge struct{}

func (SelectJudge) Evaluate(answers []model.Answer, submitted []model.Answer) Outcome {
	correct := make([]model.Answer, 0, len(answers))
	correctIDs := make(map[uint]bool)
	for _, a := range answers {
		if a.IsCorrect {
			correct = append(correct, a)
			correctIDs[a.ID] = true
		}
	}

	// 按去重后的 ID 集合比较，重复提交同一答案不能凑数
	submittedIDs := make(map[uint]bool, len(submitted))
	ok := len(submitted) > 0
	for _, s := range submitted {
		if !s.IsCorrect || !correctIDs[s.ID] {
			ok = false
		}
		submittedIDs[s.ID] = true
	}
	if len(submittedIDs) != len(correct) {
		ok = false
	}

	return Outcome{
		Correct:   ok,
		RightText: stringify(correct, "; "),
		UserText:  stringify(submitted, "; "),
	}
}

// SortJudge 排序题：正确当且仅当提交顺序与按 Position 枚举的
// 规范顺序逐位相等。
type SortJudge struct{}

func (SortJudge) Evaluate(answers []model.Answer, submitted []model.Answer) Outcome {
	canonical := make([]model.Answer, len(answers))
	copy(canonical, answers)
	sort.SliceStable(canonical, func(i, j int) bool {
		return canonical[i].Position < canonical[j].Position
	})

	ok := len(submitted) == len(canonical) && len(submitted) > 0
	if ok {
		for i := range submitted {
			if submitted[i].ID != canonical[i].ID {
				ok = false
				break
			}
		}
	}

	return Outcome{
		Correct:   ok,
		RightText: stringify(canonical, " - "),
		UserText:  stringify(submitted, " - "),
	}
}
