package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardImageURLEmpty is returned when a card's image URL is empty.
	ErrCardImageURLEmpty = errors.New("card image URL cannot be empty")

	// ErrCardPromptEmpty is returned when a card's prompt is empty.
	ErrCardPromptEmpty = errors.New("card prompt cannot be empty")

	// ErrCardPromptTooLong is returned when a card's prompt exceeds MaxPromptLength.
	ErrCardPromptTooLong = errors.New("card prompt exceeds maximum length")
)

// MaxPromptLength is the maximum number of characters allowed in a prompt.
const MaxPromptLength = 10000

// CardStatus represents the generation state of a single card.
type CardStatus string

// Possible card status values
const (
	CardStatusPending            CardStatus = "pending"
	CardStatusGenerating         CardStatus = "generating"
	CardStatusCompleted          CardStatus = "completed"
	CardStatusPartiallyCompleted CardStatus = "partially_completed"
	CardStatusFailed             CardStatus = "failed"
)

// FailedTask records one generation task that resolved to a failure,
// keeping the human-readable error and the video slot it would have filled.
type FailedTask struct {
	TaskID      string `json:"task_id"`
	Error       string `json:"error"`
	VideoNumber int    `json:"video_number"`
}

// Card represents one scene within a deck: a source image, a prompt, and the
// generation tasks and resulting videos produced from them.
//
// TaskIDs is append-only within a generation round; it is cleared only when
// the owning deck is resubmitted. FailedTasks and FailedTaskDetails are kept
// in lockstep, keyed by task ID. Older persisted cards may omit any of the
// slice fields, so all readers treat a nil slice as empty.
type Card struct {
	ID                uuid.UUID    `json:"id"`
	ImageURL          string       `json:"image_url"`
	ImageFilename     string       `json:"image_filename,omitempty"`
	Prompt            string       `json:"prompt"`
	Status            CardStatus   `json:"status"`
	TaskIDs           []string     `json:"task_ids,omitempty"`
	VideoURLs         []string     `json:"video_urls,omitempty"`
	FailedTasks       []string     `json:"failed_tasks,omitempty"`
	FailedTaskDetails []FailedTask `json:"failed_tasks_details,omitempty"`
	ApprovedVideos    []string     `json:"approved_videos,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at,omitempty"`
}

// NewCard creates a new Card with the given image URL, prompt, and original
// image filename. It generates a new UUID for the card ID and sets the status
// to pending. Returns an error if validation fails.
func NewCard(imageURL, prompt, imageFilename string) (*Card, error) {
	card := &Card{
		ID:            uuid.New(),
		ImageURL:      strings.TrimSpace(imageURL),
		ImageFilename: imageFilename,
		Prompt:        strings.TrimSpace(prompt),
		Status:        CardStatusPending,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if strings.TrimSpace(c.ImageURL) == "" {
		return ErrCardImageURLEmpty
	}

	if strings.TrimSpace(c.Prompt) == "" {
		return ErrCardPromptEmpty
	}

	if len(c.Prompt) > MaxPromptLength {
		return ErrCardPromptTooLong
	}

	return nil
}

// ExpectedVideos returns the number of videos requested for this card in the
// current generation round.
func (c *Card) ExpectedVideos() int {
	return len(c.TaskIDs)
}

// HasVideoURL reports whether the given URL is already recorded on the card.
func (c *Card) HasVideoURL(url string) bool {
	for _, u := range c.VideoURLs {
		if u == url {
			return true
		}
	}
	return false
}

// RecordVideoURL appends a durable video URL to the card unless it is already
// present. It reports whether the URL was added.
func (c *Card) RecordVideoURL(url string) bool {
	if c.HasVideoURL(url) {
		return false
	}
	c.VideoURLs = append(c.VideoURLs, url)
	c.UpdatedAt = time.Now().UTC()
	return true
}

// HasFailedTask reports whether the given task ID is already tracked as failed.
func (c *Card) HasFailedTask(taskID string) bool {
	for _, ft := range c.FailedTaskDetails {
		if ft.TaskID == taskID {
			return true
		}
	}
	return false
}

// RecordFailedTask tracks a failed generation task on the card. FailedTasks
// and FailedTaskDetails stay in lockstep; recording the same task ID twice is
// a no-op. It reports whether the failure was added.
func (c *Card) RecordFailedTask(taskID, errMsg string, videoNumber int) bool {
	if c.HasFailedTask(taskID) {
		return false
	}
	c.FailedTasks = append(c.FailedTasks, taskID)
	c.FailedTaskDetails = append(c.FailedTaskDetails, FailedTask{
		TaskID:      taskID,
		Error:       errMsg,
		VideoNumber: videoNumber,
	})
	c.UpdatedAt = time.Now().UTC()
	return true
}

// IsVideoApproved reports whether the given video URL has been approved.
func (c *Card) IsVideoApproved(url string) bool {
	for _, u := range c.ApprovedVideos {
		if u == url {
			return true
		}
	}
	return false
}

// ApproveVideo marks a video URL as approved. The URL must be one of the
// card's recorded videos; approving an already-approved URL is a no-op.
func (c *Card) ApproveVideo(url string) error {
	if !c.HasVideoURL(url) {
		return ErrVideoNotFound
	}
	if c.IsVideoApproved(url) {
		return nil
	}
	c.ApprovedVideos = append(c.ApprovedVideos, url)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// UnapproveVideo removes a video URL from the approved list. The URL must be
// one of the card's recorded videos; unapproving a URL that was never
// approved is a no-op.
func (c *Card) UnapproveVideo(url string) error {
	if !c.HasVideoURL(url) {
		return ErrVideoNotFound
	}
	for i, u := range c.ApprovedVideos {
		if u == url {
			c.ApprovedVideos = append(c.ApprovedVideos[:i], c.ApprovedVideos[i+1:]...)
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

// ResetGeneration clears all generation state on the card ahead of a new
// submission round and marks the card as generating.
func (c *Card) ResetGeneration() {
	c.TaskIDs = nil
	c.VideoURLs = nil
	c.FailedTasks = nil
	c.FailedTaskDetails = nil
	c.ApprovedVideos = nil
	c.Status = CardStatusGenerating
	c.UpdatedAt = time.Now().UTC()
}
