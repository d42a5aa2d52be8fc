package veo

import "encoding/json"

// envelopeSuccessCode is the outer envelope code the provider returns on
// success. Any other code means the call failed as a whole.
const envelopeSuccessCode = 200

// Tri-state success flag values on task records.
const (
	successFlagProcessing = 0
	successFlagCompleted  = 1
)

// generateRequest is the JSON payload for POST /generate.
type generateRequest struct {
	Prompt            string   `json:"prompt"`
	Model             string   `json:"model"`
	AspectRatio       string   `json:"aspectRatio"`
	EnableTranslation bool     `json:"enableTranslation"`
	GenerationType    string   `json:"generationType"`
	ImageURLs         []string `json:"imageUrls,omitempty"`
	Seeds             *int     `json:"seeds,omitempty"`
	Watermark         string   `json:"watermark,omitempty"`
	CallbackURL       string   `json:"callBackUrl,omitempty"`
}

// envelope is the outer response wrapper on every provider call.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// generateData is the payload of a successful /generate call.
type generateData struct {
	TaskID string `json:"taskId"`
}

// recordData is the payload of a /record-info call. SuccessFlag is the
// tri-state: 1 completed, 0 still processing, anything else failed.
type recordData struct {
	TaskID       string         `json:"taskId"`
	SuccessFlag  int            `json:"successFlag"`
	Response     recordResponse `json:"response"`
	ErrorCode    json.Number    `json:"errorCode"`
	ErrorMessage string         `json:"errorMessage"`
}

// recordResponse holds the generation results of a completed task.
type recordResponse struct {
	ResultURLs []string `json:"resultUrls"`
	OriginURLs []string `json:"originUrls"`
	Resolution string   `json:"resolution"`
}
