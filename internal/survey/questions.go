package survey

import (
	"context"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/sheets"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

// Questions holds the question sequence of every category.
type Questions map[string][]string

// For returns the ordered questions of category.
func (q Questions) For(category string) []string {
	return q[category]
}

// ParseQuestions splits worksheet rows into per-category sequences. A row needs
// at least two columns; column 0 is the text and column 1 the tag. Tags are
// compared by exact, case-sensitive equality, unlike the roster.
func ParseQuestions(rows [][]string, categories Categories) Questions {
	q := make(Questions, len(categories))
	for _, cat := range categories {
		for _, row := range rows {
			if len(row) <= questionCategoryColumn {
				continue
			}
			if row[questionCategoryColumn] == cat.Tag {
				q[cat.Tag] = append(q[cat.Tag], row[questionTextColumn])
			}
		}
	}
	return q
}

// QuestionStore reads the questions worksheet on every Load.
type QuestionStore struct {
	reader     sheets.Reader
	worksheet  string
	categories Categories
	logger     *logging.Logger
}

// NewQuestionStore binds a reader to the questions worksheet.
func NewQuestionStore(reader sheets.Reader, worksheet string, categories Categories, logger *logging.Logger) *QuestionStore {
	if reader == nil {
		panic("survey: question reader cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &QuestionStore{reader: reader, worksheet: worksheet, categories: categories, logger: logger}
}

// Load fetches and parses the questions. A failed read yields no questions.
func (s *QuestionStore) Load(ctx context.Context) Questions {
	rows, err := s.reader.Fetch(ctx, s.worksheet)
	if err != nil {
		s.logger.Error("failed to fetch questions", "worksheet", s.worksheet, "error", err)
		rows = nil
	}
	questions := ParseQuestions(rows, s.categories)
	for _, cat := range s.categories {
		s.logger.Debug("questions loaded", "category", cat.Tag, "count", len(questions.For(cat.Tag)))
	}
	return questions
}
