package scoring

import (
	"testing"

	"easytest_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answer(id uint, desc string, correct bool, pos int) model.Answer {
	a := model.Answer{Description: desc, IsCorrect: correct, Position: pos}
	a.ID = id
	return a
}

func selectAnswers() []model.Answer {
	return []model.Answer{
		answer(1, "Moscow", true, 0),
		answer(2, "Paris", false, 0),
		answer(3, "Volga", true, 0),
		answer(4, "Berlin", false, 0),
	}
}

func TestSelect_ExactSetIsCorrect(t *testing.T) {
	answers := selectAnswers()

	out := SelectJudge{}.Evaluate(answers, []model.Answer{answers[0], answers[2]})
	assert.True(t, out.Correct)
	assert.Equal(t, "Moscow; Volga", out.RightText)
	assert.Equal(t, "Moscow; Volga", out.UserText)
}

func TestSelect_OrderIrrelevant(t *testing.T) {
	answers := selectAnswers()

	// 所有排列都应判对
	perms := [][]model.Answer{
		{answers[0], answers[2]},
		{answers[2], answers[0]},
	}
	for _, p := range perms {
		out := SelectJudge{}.Evaluate(answers, p)
		assert.True(t, out.Correct)
	}
}

func TestSelect_WrongSets(t *testing.T) {
	answers := selectAnswers()

	cases := []struct {
		name      string
		submitted []model.Answer
	}{
		{"missing one", []model.Answer{answers[0]}},
		{"extra wrong", []model.Answer{answers[0], answers[2], answers[1]}},
		{"only wrong", []model.Answer{answers[1], answers[3]}},
		{"wrong same size", []model.Answer{answers[0], answers[1]}},
		{"empty", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := SelectJudge{}.Evaluate(answers, tc.submitted)
			assert.False(t, out.Correct)
		})
	}
}

func TestSelect_DuplicateAnswerCannotPadSet(t *testing.T) {
	answers := selectAnswers()

	// 只知道一个正确答案、重复提交凑够数量，不能算对
	out := SelectJudge{}.Evaluate(answers, []model.Answer{answers[0], answers[0]})
	assert.False(t, out.Correct)

	// 重复错误答案同样救不回来
	out = SelectJudge{}.Evaluate(answers, []model.Answer{answers[0], answers[1], answers[1]})
	assert.False(t, out.Correct)
}

func TestSelect_ForeignCorrectAnswerRejected(t *testing.T) {
	answers := selectAnswers()
	// IsCorrect=true 但不属于本题答案集的行不能算对
	foreign := answer(99, "Smuggled", true, 0)

	out := SelectJudge{}.Evaluate(answers, []model.Answer{answers[0], foreign})
	assert.False(t, out.Correct)
}

func sortAnswers() []model.Answer {
	// 存储顺序故意打乱，规范顺序由 Position 决定
	return []model.Answer{
		answer(12, "second", false, 2),
		answer(11, "first", false, 1),
		answer(13, "third", false, 3),
	}
}

func TestSort_CanonicalOrderIsCorrect(t *testing.T) {
	answers := sortAnswers()

	out := SortJudge{}.Evaluate(answers, []model.Answer{answers[1], answers[0], answers[2]})
	assert.True(t, out.Correct)
	assert.Equal(t, "first - second - third", out.RightText)
	assert.Equal(t, "first - second - third", out.UserText)
}

func TestSort_AnyTranspositionFails(t *testing.T) {
	answers := sortAnswers()
	first, second, third := answers[1], answers[0], answers[2]

	cases := [][]model.Answer{
		{second, first, third},
		{first, third, second},
		{third, second, first},
	}
	for _, submitted := range cases {
		out := SortJudge{}.Evaluate(answers, submitted)
		assert.False(t, out.Correct)
	}
}

func TestSort_LengthMismatchFails(t *testing.T) {
	answers := sortAnswers()

	out := SortJudge{}.Evaluate(answers, []model.Answer{answers[1], answers[0]})
	assert.False(t, out.Correct)
}

func TestEmptySubmissionYieldsEmptyUserText(t *testing.T) {
	out := SelectJudge{}.Evaluate(selectAnswers(), nil)
	assert.False(t, out.Correct)
	assert.Equal(t, "", out.UserText)

	out = SortJudge{}.Evaluate(sortAnswers(), nil)
	assert.False(t, out.Correct)
	assert.Equal(t, "", out.UserText)
}

func TestEvaluate_Registry(t *testing.T) {
	answers := selectAnswers()

	out, err := Evaluate(model.QTypeSelect, answers, []model.Answer{answers[0], answers[2]})
	require.NoError(t, err)
	assert.True(t, out.Correct)

	_, err = Evaluate("essay", answers, nil)
	assert.Error(t, err)
	assert.False(t, Known("essay"))
	assert.True(t, Known(model.QTypeSort))
}
