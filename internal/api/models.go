package api

import (
	"time"

	"github.com/reeldeck/reeldeck-api/internal/domain"
)

// CreateDeckRequest is the payload for creating a deck.
type CreateDeckRequest struct {
	Name        string `json:"name"         validate:"required,max=200"`
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16 1:1 Auto"`
}

// UpdateDeckRequest is the payload for a partial deck update.
type UpdateDeckRequest struct {
	Name        *string `json:"name"         validate:"omitempty,max=200"`
	AspectRatio *string `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16 1:1 Auto"`
}

// AddCardRequest is the payload for adding a card to a deck.
type AddCardRequest struct {
	ImageURL      string `json:"image_url"      validate:"required,url"`
	Prompt        string `json:"prompt"         validate:"required,max=10000"`
	ImageFilename string `json:"image_filename" validate:"omitempty,max=255"`
}

// UpdateCardRequest is the payload for a partial card update.
type UpdateCardRequest struct {
	ImageURL      *string `json:"image_url"      validate:"omitempty,url"`
	Prompt        *string `json:"prompt"         validate:"omitempty,max=10000"`
	ImageFilename *string `json:"image_filename" validate:"omitempty,max=255"`
}

// ApproveVideoRequest is the payload for approving or unapproving a video.
type ApproveVideoRequest struct {
	CardID   string `json:"card_id"   validate:"required,uuid"`
	VideoURL string `json:"video_url" validate:"required,url"`
}

// CardResponse represents the response data for a card.
type CardResponse struct {
	ID                string              `json:"id"`
	ImageURL          string              `json:"image_url"`
	ImageFilename     string              `json:"image_filename,omitempty"`
	Prompt            string              `json:"prompt"`
	Status            string              `json:"status"`
	TaskIDs           []string            `json:"task_ids"`
	VideoURLs         []string            `json:"video_urls"`
	FailedTasks       []string            `json:"failed_tasks"`
	FailedTaskDetails []domain.FailedTask `json:"failed_tasks_details"`
	ApprovedVideos    []string            `json:"approved_videos"`
	CreatedAt         time.Time           `json:"created_at"`
}

// DeckResponse represents the response data for a deck.
type DeckResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	AspectRatio string         `json:"aspect_ratio"`
	Status      string         `json:"status"`
	Cards       []CardResponse `json:"cards"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// GenerateResponse reports a generation kickoff.
type GenerateResponse struct {
	TaskCount int          `json:"task_count"`
	Deck      DeckResponse `json:"deck"`
}

// ReconcileResponse reports a reconciliation pass.
type ReconcileResponse struct {
	UpdatedVideos int          `json:"updated_videos"`
	Deck          DeckResponse `json:"deck"`
}

// ScanResponse reports a retroactive failed-task scan.
type ScanResponse struct {
	Message      string `json:"message"`
	TotalUpdated int    `json:"total_updated"`
	DecksChecked int    `json:"decks_checked"`
}

// emptySlice returns s, or an empty slice when s is nil, so JSON responses
// always carry arrays rather than null.
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// cardToResponse transforms a domain card into its API representation.
func cardToResponse(card *domain.Card) CardResponse {
	details := card.FailedTaskDetails
	if details == nil {
		details = []domain.FailedTask{}
	}
	return CardResponse{
		ID:                card.ID.String(),
		ImageURL:          card.ImageURL,
		ImageFilename:     card.ImageFilename,
		Prompt:            card.Prompt,
		Status:            string(card.Status),
		TaskIDs:           emptySlice(card.TaskIDs),
		VideoURLs:         emptySlice(card.VideoURLs),
		FailedTasks:       emptySlice(card.FailedTasks),
		FailedTaskDetails: details,
		ApprovedVideos:    emptySlice(card.ApprovedVideos),
		CreatedAt:         card.CreatedAt,
	}
}

// deckToResponse transforms a domain deck into its API representation.
func deckToResponse(deck *domain.Deck) DeckResponse {
	cards := make([]CardResponse, 0, len(deck.Cards))
	for _, c := range deck.Cards {
		cards = append(cards, cardToResponse(c))
	}
	return DeckResponse{
		ID:          deck.ID.String(),
		Name:        deck.Name,
		AspectRatio: deck.AspectRatio,
		Status:      string(deck.Status),
		Cards:       cards,
		CreatedAt:   deck.CreatedAt,
		UpdatedAt:   deck.UpdatedAt,
	}
}
