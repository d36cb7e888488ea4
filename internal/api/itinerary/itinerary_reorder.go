package itinerary

import "github.com/FACorreiaa/harunekki-api/internal/types"

// placeKey identifies a place. Ids are only unique within a kind.
type placeKey struct {
	kind types.PlaceKind
	id   string
}

func keyOf(p types.PlaceRef) placeKey {
	return placeKey{kind: p.Kind, id: p.ID}
}

// Clone copies the buckets so a move never aliases the caller's slices.
func Clone(it types.Itinerary) types.Itinerary {
	out := make(types.Itinerary, len(it))
	for i, b := range it {
		places := make([]types.PlaceRef, len(b.Places))
		copy(places, b.Places)
		out[i] = types.DayBucket{DayIndex: b.DayIndex, Places: places}
	}
	return out
}

func contains(places []types.PlaceRef, k placeKey) bool {
	for _, p := range places {
		if keyOf(p) == k {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Apply moves the place at (SourceDay, SourceIndex) to (DestDay, DestIndex) and reports
// whether anything changed. Invalid days or source index, a move onto the same slot and a
// cross-day move onto a day already holding the same place all leave the copy unchanged.
// DestIndex is clamped to the destination length, measured after removal for same-day moves.
func Apply(it types.Itinerary, m types.Move) (types.Itinerary, bool) {
	out := Clone(it)
	if m.SourceDay < 0 || m.SourceDay >= len(out) || m.DestDay < 0 || m.DestDay >= len(out) {
		return out, false
	}
	src := out[m.SourceDay].Places
	if m.SourceIndex < 0 || m.SourceIndex >= len(src) {
		return out, false
	}
	if m.SourceDay == m.DestDay && m.SourceIndex == m.DestIndex {
		return out, false
	}

	moving := src[m.SourceIndex]
	if m.SourceDay != m.DestDay && contains(out[m.DestDay].Places, keyOf(moving)) {
		return out, false
	}

	out[m.SourceDay].Places = append(src[:m.SourceIndex:m.SourceIndex], src[m.SourceIndex+1:]...)

	dest := out[m.DestDay].Places
	at := clamp(m.DestIndex, 0, len(dest))
	if m.SourceDay == m.DestDay && at == m.SourceIndex {
		// Clamping brought the place back to where it started.
		return Clone(it), false
	}
	dest = append(dest[:at:at], append([]types.PlaceRef{moving}, dest[at:]...)...)
	out[m.DestDay].Places = dest
	return out, true
}
