package survey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/config"
)

// ErrUnknownCategory is returned when a tag is not one of the configured categories.
var ErrUnknownCategory = errors.New("survey: unknown category")

// Category is one conversation track: its tag and where its answers go.
type Category struct {
	Tag                string
	ResponsesWorksheet string
}

// Categories is the closed, ordered set of tracks. Earlier entries win when a
// recipient is listed under more than one.
type Categories []Category

// CategoriesFromConfig converts the survey file categories.
func CategoriesFromConfig(s config.Survey) Categories {
	out := make(Categories, 0, len(s.Categories))
	for _, c := range s.Categories {
		out = append(out, Category{Tag: c.Tag, ResponsesWorksheet: c.ResponsesWorksheet})
	}
	return out
}

// Find returns the category with the given tag, compared case-insensitively.
func (cs Categories) Find(tag string) (Category, error) {
	for _, c := range cs {
		if strings.EqualFold(c.Tag, strings.TrimSpace(tag)) {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, tag)
}

// Tags lists the category tags in order.
func (cs Categories) Tags() []string {
	tags := make([]string, 0, len(cs))
	for _, c := range cs {
		tags = append(tags, c.Tag)
	}
	return tags
}
