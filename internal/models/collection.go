package models

// IndexOf returns the position of the track with the given id, or -1.
func IndexOf(tracks []Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether a track with the given id is present.
func Contains(tracks []Track, id string) bool {
	return IndexOf(tracks, id) >= 0
}

// Remove returns a copy of tracks without the element at i.
func Remove(tracks []Track, i int) []Track {
	out := make([]Track, 0, len(tracks)-1)
	out = append(out, tracks[:i]...)
	return append(out, tracks[i+1:]...)
}

// IDSet indexes tracks by id.
func IDSet(tracks []Track) map[string]struct{} {
	set := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		set[t.ID] = struct{}{}
	}
	return set
}
