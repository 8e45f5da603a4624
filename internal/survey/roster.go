package survey

import (
	"context"
	"strings"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/sheets"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

const (
	rosterCategoryColumn   = 2
	rosterRecipientColumn  = 3
	questionTextColumn     = 0
	questionCategoryColumn = 1
)

// Roster maps recipients to categories for one read of the roster worksheet.
type Roster struct {
	members map[string][]string
	lookup  map[string]string
}

// ParseRoster builds a Roster from raw worksheet rows. A row needs at least
// four columns: column 2 holds the tag (trimmed, case-insensitive) and column
// 3 the recipient identifier. Rows of any other shape are skipped. A
// recipient listed under several categories belongs to the first one in
// categories; duplicates within a category are dropped.
func ParseRoster(rows [][]string, categories Categories) Roster {
	r := Roster{
		members: make(map[string][]string, len(categories)),
		lookup:  make(map[string]string),
	}
	for _, cat := range categories {
		want := strings.ToUpper(strings.TrimSpace(cat.Tag))
		seen := make(map[string]struct{})
		for _, row := range rows {
			if len(row) <= rosterRecipientColumn {
				continue
			}
			if strings.ToUpper(strings.TrimSpace(row[rosterCategoryColumn])) != want {
				continue
			}
			id := strings.TrimSpace(row[rosterRecipientColumn])
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if _, taken := r.lookup[id]; taken {
				continue
			}
			r.lookup[id] = cat.Tag
			r.members[cat.Tag] = append(r.members[cat.Tag], id)
		}
	}
	return r
}

// Members returns the recipients tagged with category, in worksheet row order.
func (r Roster) Members(category string) []string {
	return r.members[category]
}

// CategoryOf returns the tag recipientID belongs to.
func (r Roster) CategoryOf(recipientID string) (string, bool) {
	tag, ok := r.lookup[recipientID]
	return tag, ok
}

// Size is the number of distinct recipients.
func (r Roster) Size() int {
	return len(r.lookup)
}

// RosterStore reads the roster worksheet on every Load.
type RosterStore struct {
	reader     sheets.Reader
	worksheet  string
	categories Categories
	logger     *logging.Logger
}

// NewRosterStore binds a reader to the roster worksheet.
func NewRosterStore(reader sheets.Reader, worksheet string, categories Categories, logger *logging.Logger) *RosterStore {
	if reader == nil {
		panic("survey: roster reader cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RosterStore{reader: reader, worksheet: worksheet, categories: categories, logger: logger}
}

// Load fetches and parses the roster. A failed read yields an empty roster.
func (s *RosterStore) Load(ctx context.Context) Roster {
	rows, err := s.reader.Fetch(ctx, s.worksheet)
	if err != nil {
		s.logger.Error("failed to fetch roster", "worksheet", s.worksheet, "error", err)
		rows = nil
	}
	roster := ParseRoster(rows, s.categories)
	for _, cat := range s.categories {
		s.logger.Debug("roster loaded", "category", cat.Tag, "recipients", len(roster.Members(cat.Tag)))
	}
	return roster
}
