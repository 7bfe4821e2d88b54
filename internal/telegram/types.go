package telegram

import "github.com/atinyakov/rivone/internal/models"

// Update is one entry of the getUpdates log. At most one of Message and
// ChannelPost is set for the update kinds we consume.
type Update struct {
	UpdateID    int64    `json:"update_id"`
	Message     *Message `json:"message,omitempty"`
	ChannelPost *Message `json:"channel_post,omitempty"`
}

// Message is the subset of a Bot API message carrying an attachment.
type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Audio     *Audio `json:"audio,omitempty"`
}

// Audio describes an audio attachment. Every descriptive field is optional.
type Audio struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id"`
	Duration     int        `json:"duration,omitempty"`
	Title        string     `json:"title,omitempty"`
	Performer    string     `json:"performer,omitempty"`
	MimeType     string     `json:"mime_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
	Thumbnail    *PhotoSize `json:"thumbnail,omitempty"`
	// Thumb is the pre-6.6 Bot API name of Thumbnail.
	Thumb *PhotoSize `json:"thumb,omitempty"`
}

// PhotoSize is a thumbnail reference.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// File is the result of getFile.
type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size,omitempty"`
	// FilePath is empty when the platform could not resolve the handle.
	FilePath string `json:"file_path,omitempty"`
}

// Post returns the message of the update, preferring a direct message over
// a channel post.
func (u Update) Post() *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.ChannelPost
}

// AudioOf returns the audio attachment of the update, or nil.
func (u Update) AudioOf() *Audio {
	if m := u.Post(); m != nil {
		return m.Audio
	}
	return nil
}

// Track maps the attachment to a catalog track, applying defaults.
func (a Audio) Track() models.Track {
	id := a.FileUniqueID
	if id == "" {
		id = a.FileID
	}
	var thumb string
	switch {
	case a.Thumbnail != nil:
		thumb = a.Thumbnail.FileID
	case a.Thumb != nil:
		thumb = a.Thumb.FileID
	}
	return models.Track{
		ID:      id,
		Title:   a.Title,
		Artist:  a.Performer,
		FileID:  a.FileID,
		ThumbID: thumb,
	}.Normalize()
}

// envelope is the common Bot API response wrapper.
type envelope[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}
