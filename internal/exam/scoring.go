// internal/exam/scoring.go
package exam

import (
	"math/rand"

	"olympiad-platform/internal/models"
)

// scoreAutoGraded awards one point per auto-gradable question whose
// selected option index equals the correct option. Equal weighting, no
// partial credit; manually graded questions contribute nothing here.
func scoreAutoGraded(questions []models.Question, answers []models.AttemptAnswer) int {
	selected := make(map[uint]*int, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedOption
	}

	score := 0
	for _, q := range questions {
		if !q.AutoGradable() {
			continue
		}
		choice, ok := selected[q.ID]
		if !ok || choice == nil {
			continue
		}
		if *choice == *q.CorrectOption {
			score++
		}
	}
	return score
}

// presentQuestions applies the config's display options. Shuffles are
// seeded by the attempt ID so a participant sees a stable order across
// reloads.
func presentQuestions(config *models.ExamConfig, attemptID uint, includeAnswers bool) []models.QuestionDTO {
	questions := config.QuestionList()

	if config.RandomizeQuestions {
		rng := rand.New(rand.NewSource(int64(attemptID)))
		rng.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	dtos := make([]models.QuestionDTO, len(questions))
	for i, q := range questions {
		dto := q.ToDTO(includeAnswers)
		if config.RandomizeOptions {
			rng := rand.New(rand.NewSource(int64(attemptID) + int64(q.ID)))
			rng.Shuffle(len(dto.Options), func(a, b int) {
				dto.Options[a], dto.Options[b] = dto.Options[b], dto.Options[a]
			})
		}
		dtos[i] = dto
	}
	return dtos
}
