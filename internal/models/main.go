// Package models defines the core data structures for tracks and the
// catalog collections they live in.
package models

const (
	// CatalogKey is the store key of the active catalog.
	CatalogKey = "songs"
	// TrashKey is the store key of soft-deleted tracks.
	TrashKey = "deleted_songs"
)

const (
	// DefaultTitle is used when an attachment carries no title.
	DefaultTitle = "Unknown Title"
	// DefaultArtist is used when an attachment carries no performer.
	DefaultArtist = "Unknown Artist"
)

// Track is a single playable audio item.
type Track struct {
	// ID is the permanent unique identifier of the attachment. It is the
	// durable join key between the catalog and the trash.
	ID string `json:"id"`
	// Title of the track.
	Title string `json:"title"`
	// Artist holds the performer.
	Artist string `json:"artist"`
	// FileID is the transient handle used to fetch the audio bytes. The
	// platform may reissue it for the same attachment.
	FileID string `json:"fileId"`
	// ThumbID is the handle of the attachment thumbnail, if any.
	ThumbID string `json:"thumbId,omitempty"`
}

// Normalize fills placeholder title and artist values.
func (t Track) Normalize() Track {
	if t.Title == "" {
		t.Title = DefaultTitle
	}
	if t.Artist == "" {
		t.Artist = DefaultArtist
	}
	return t
}

// SyncResult reports the outcome of one synchronization pass.
type SyncResult struct {
	// Added is the number of tracks appended to the catalog.
	Added int `json:"added"`
	// Total is the catalog size after the pass.
	Total int `json:"total"`
}

// SeedResult reports the outcome of seeding the catalog.
type SeedResult struct {
	// Migrated is the number of tracks written.
	Migrated int
	// Skipped is true when the catalog already held data.
	Skipped bool
	// Existing is the catalog size found when seeding was skipped.
	Existing int
}
