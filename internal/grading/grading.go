// Package grading 实现测验评分，纯函数，不做任何 I/O。
//
// 作答按题目序号 (QuestionNo) 匹配题库，而不是稳定的题目 ID：
// 若测验在作答期间被编辑（题目重排或新增），答案会按提交时的题库序号计分。
package grading

import "learnhub_backend/internal/model"

// Answer 提交的单题作答，QuestionID 即题目序号
type Answer struct {
	QuestionID     int
	SelectedOption int
}

type Result struct {
	Score       int
	TotalPoints int
	Passed      bool
	Responses   []model.QuizResponse
}

// Score 对提交的作答计分。每条作答对应一条评分记录，未作答的题目不产生记录；
// 总分按整个题库计算。
func Score(answers []Answer, bank []model.Question, passingScore int) Result {
	total := 0
	byNo := make(map[int]model.Question, len(bank))
	for _, q := range bank {
		total += q.Points
		// 序号重复时取第一题
		if _, ok := byNo[q.QuestionNo]; !ok {
			byNo[q.QuestionNo] = q
		}
	}

	score := 0
	credited := make(map[int]bool, len(answers))
	responses := make([]model.QuizResponse, 0, len(answers))
	for _, a := range answers {
		q, ok := byNo[a.QuestionID]
		if !ok {
			responses = append(responses, model.QuizResponse{
				QuestionID:     a.QuestionID,
				SelectedOption: a.SelectedOption,
				CorrectOption:  -1,
			})
			continue
		}

		correct := a.SelectedOption == q.CorrectOption
		points := 0
		// 每题最多计分一次
		if correct && !credited[a.QuestionID] {
			credited[a.QuestionID] = true
			points = q.Points
			score += points
		}
		responses = append(responses, model.QuizResponse{
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
			CorrectOption:  q.CorrectOption,
			IsCorrect:      correct,
			Points:         points,
			Explanation:    q.Explanation,
		})
	}

	return Result{
		Score:       score,
		TotalPoints: total,
		Passed:      score >= passingScore,
		Responses:   responses,
	}
}
