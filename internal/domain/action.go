package domain

import (
	"time"

	"github.com/google/uuid"
)

// StreamMapActions - стрим действий с карты (сохранить, посетить, скрыть ...)
const StreamMapActions = "stream:map:actions"

// ActionKind - действие, которое карта передаёт внешнему коду
type ActionKind string

const (
	ActionAddCandidate     ActionKind = "add_candidate"
	ActionHideCandidate    ActionKind = "hide_candidate"
	ActionRemoveItem       ActionKind = "remove_item"
	ActionRemoveMarker     ActionKind = "remove_marker"
	ActionUpdateMarkerNote ActionKind = "update_marker_note"
	ActionSave             ActionKind = "save"
	ActionVisit            ActionKind = "visit"
)

// Valid проверяет, что действие известно
func (k ActionKind) Valid() bool {
	switch k {
	case ActionAddCandidate, ActionHideCandidate, ActionRemoveItem, ActionRemoveMarker,
		ActionUpdateMarkerNote, ActionSave, ActionVisit:
		return true
	}
	return false
}

// ActionEvent - событие действия в стриме
type ActionEvent struct {
	EventID      uuid.UUID  `json:"event_id"`
	UserID       uuid.UUID  `json:"user_id"`
	Kind         ActionKind `json:"action"`
	TargetID     string     `json:"target_id"`
	CollectionID *uuid.UUID `json:"collection_id,omitempty"`
	Note         *string    `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
