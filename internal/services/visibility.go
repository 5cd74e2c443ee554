package services

import "github.com/premkumar3616/junk-chat/internal/models"

// VisibleTo returns the subsequence of messages whose hidden overlay does not
// contain viewerID, preserving order. Pure function: it only inspects the
// messages it is handed.
func VisibleTo(messages []models.Message, viewerID int64) []models.Message {
	visible := make([]models.Message, 0, len(messages))
	for _, message := range messages {
		if message.HiddenForUser(viewerID) {
			continue
		}
		visible = append(visible, message)
	}
	return visible
}
