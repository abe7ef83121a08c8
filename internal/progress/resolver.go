// Package progress tracks per-enrollment lesson completion and the linear
// unlock chain defined by a course curriculum.
package progress

import "github.com/terra-clan/progress-engine/internal/models"

// AccessibleLessons returns, in curriculum order, the lessons a learner may
// open given the set of completed lesson IDs.
//
// The chain runs across topics: the first lesson of a topic opens once the
// last lesson of the nearest preceding non-empty topic is completed. Only the
// immediate predecessor is consulted.
func AccessibleLessons(c *models.Curriculum, completed map[string]bool) []string {
	if c == nil {
		return nil
	}

	var (
		result     []string
		prevLast   string
		chainStart = true
	)
	for _, topic := range c.Topics {
		if len(topic.Lessons) == 0 {
			continue
		}
		for i, lesson := range topic.Lessons {
			var open bool
			if i == 0 {
				open = chainStart || completed[prevLast]
			} else {
				open = completed[topic.Lessons[i-1]]
			}
			if open {
				result = append(result, lesson)
			}
		}
		prevLast = topic.Lessons[len(topic.Lessons)-1]
		chainStart = false
	}
	return result
}

// IsAccessible reports whether lessonID is in AccessibleLessons(c, completed)
func IsAccessible(c *models.Curriculum, completed map[string]bool, lessonID string) bool {
	for _, l := range AccessibleLessons(c, completed) {
		if l == lessonID {
			return true
		}
	}
	return false
}
