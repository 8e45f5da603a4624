package survey

import (
	"strings"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/config"
)

// DefaultUnknownCenter labels recipients missing from the center map.
const DefaultUnknownCenter = "Unknown Center"

// CenterDirectory maps recipient identifiers to human-readable center names.
type CenterDirectory struct {
	centers map[string]string
	unknown string
}

// NewCenterDirectory copies centers; an empty unknown uses DefaultUnknownCenter.
func NewCenterDirectory(centers map[string]string, unknown string) CenterDirectory {
	copied := make(map[string]string, len(centers))
	for id, name := range centers {
		copied[strings.TrimSpace(id)] = name
	}
	if strings.TrimSpace(unknown) == "" {
		unknown = DefaultUnknownCenter
	}
	return CenterDirectory{centers: copied, unknown: unknown}
}

// CenterDirectoryFromConfig builds the directory from the survey file.
func CenterDirectoryFromConfig(s config.Survey) CenterDirectory {
	return NewCenterDirectory(s.Centers, s.UnknownCenter)
}

// Label returns the center for recipientID or the unknown label.
func (d CenterDirectory) Label(recipientID string) string {
	if name, ok := d.centers[recipientID]; ok {
		return name
	}
	return d.unknown
}
