package models

// Curriculum is the ordered topic/lesson structure of a course.
// Topic order and lesson order define a single linear unlock chain.
type Curriculum struct {
	CourseID    string  `json:"course_id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Difficulty  string  `json:"difficulty,omitempty" yaml:"difficulty"` // beginner | intermediate | advanced
	Topics      []Topic `json:"topics" yaml:"topics"`
}

// Topic is an ordered group of lessons
type Topic struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Lessons []string `json:"lessons" yaml:"lessons"`
}

// TotalLessons returns the number of lessons across all topics
func (c *Curriculum) TotalLessons() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, t := range c.Topics {
		n += len(t.Lessons)
	}
	return n
}

// HasLesson reports whether lessonID belongs to the curriculum
func (c *Curriculum) HasLesson(lessonID string) bool {
	if c == nil {
		return false
	}
	for _, t := range c.Topics {
		for _, l := range t.Lessons {
			if l == lessonID {
				return true
			}
		}
	}
	return false
}

// CourseSummary is a catalog listing entry
type CourseSummary struct {
	CourseID     string `json:"course_id"`
	Title        string `json:"title"`
	Difficulty   string `json:"difficulty,omitempty"`
	TopicsCount  int    `json:"topics_count"`
	LessonsCount int    `json:"lessons_count"`
	Enrolled     int64  `json:"students_enrolled"`
}
