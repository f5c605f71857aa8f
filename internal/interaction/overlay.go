package interaction

import "github.com/building-discovery/internal/domain"

// OverlayKind - вид подсказки над точкой
type OverlayKind string

const (
	OverlaySelected OverlayKind = "selected"
	OverlayHovered  OverlayKind = "hovered"
)

// Overlay - подсказка с кнопками действий
type Overlay struct {
	Kind     OverlayKind         `json:"kind"`
	ID       string              `json:"id"`
	Record   domain.PointRecord  `json:"record"`
	Actions  []domain.ActionKind `json:"actions"`
	ImageURL string              `json:"image_url,omitempty"`
}

// Lookup ищет отрисованную точку по id
type Lookup func(id string) (domain.PointRecord, bool)

// Overlays строит не более двух подсказок: выбранную и наведённую.
// Если обе указывают на одну точку, остаётся только выбранная.
func Overlays(s State, lookup Lookup) []Overlay {
	out := make([]Overlay, 0, 2)

	if s.SelectedID != "" {
		if rec, ok := lookup(s.SelectedID); ok {
			out = append(out, newOverlay(OverlaySelected, rec))
		}
	}
	if s.HoveredID != "" && s.HoveredID != s.SelectedID {
		if rec, ok := lookup(s.HoveredID); ok {
			out = append(out, newOverlay(OverlayHovered, rec))
		}
	}
	return out
}

func newOverlay(kind OverlayKind, rec domain.PointRecord) Overlay {
	return Overlay{
		Kind:    kind,
		ID:      rec.ID,
		Record:  rec,
		Actions: ActionsFor(rec),
	}
}

// ActionsFor - набор кнопок подсказки в зависимости от вида точки
func ActionsFor(rec domain.PointRecord) []domain.ActionKind {
	switch {
	case rec.IsMarker:
		return []domain.ActionKind{domain.ActionUpdateMarkerNote, domain.ActionRemoveMarker}
	case rec.IsCandidate && !rec.IsSaved():
		return []domain.ActionKind{domain.ActionAddCandidate, domain.ActionHideCandidate}
	case rec.Status == domain.StatusPending:
		return []domain.ActionKind{domain.ActionVisit, domain.ActionRemoveItem}
	case rec.Status == domain.StatusVisited:
		return []domain.ActionKind{domain.ActionRemoveItem}
	default:
		return []domain.ActionKind{domain.ActionSave, domain.ActionVisit}
	}
}
