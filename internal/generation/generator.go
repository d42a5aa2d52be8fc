package generation

import "context"

// Seed bounds accepted by the provider.
const (
	MinSeed = 10000
	MaxSeed = 99999
)

// SubmissionRequest describes one video generation request.
type SubmissionRequest struct {
	// Prompt is the text describing the desired video content.
	Prompt string

	// ImageURLs are the reference images, 1-3 depending on GenerationType.
	ImageURLs []string

	// Model selects the provider model, e.g. "veo3" or "veo3_fast".
	Model string

	// AspectRatio is the output aspect ratio, e.g. "16:9" or "9:16".
	AspectRatio string

	// GenerationType selects the generation mode, e.g.
	// "FIRST_AND_LAST_FRAMES_2_VIDEO".
	GenerationType string

	// Seeds, when non-nil, makes generation reproducible. Must be within
	// [MinSeed, MaxSeed].
	Seeds *int

	// EnableTranslation asks the provider to translate the prompt to English.
	EnableTranslation bool

	// Watermark is optional watermark text.
	Watermark string

	// CallbackURL is an optional completion webhook.
	CallbackURL string
}

// TaskState is the classified outcome of a status query.
type TaskState string

// Possible task states.
const (
	TaskStateProcessing TaskState = "processing"
	TaskStateCompleted  TaskState = "completed"
	TaskStateFailed     TaskState = "failed"
)

// TaskStatus is the result of querying one generation task.
// ResultURLs, OriginURLs and Resolution are populated for completed tasks;
// ErrorCode and ErrorMessage for failed ones.
type TaskStatus struct {
	State        TaskState
	ResultURLs   []string
	OriginURLs   []string
	Resolution   string
	ErrorCode    string
	ErrorMessage string
}

// VideoGenerator is the boundary to the third-party generation provider.
//
// Submit creates one asynchronous generation task and returns its opaque
// task identifier. QueryStatus reports the current state of a task; it
// returns ErrTaskNotReady when the provider has not materialized the task
// record yet and ErrProtocol for responses it cannot interpret. Provider-side
// generation failures are not errors: they come back as a TaskStatus with
// State TaskStateFailed so callers can record them as data.
type VideoGenerator interface {
	Submit(ctx context.Context, req SubmissionRequest) (string, error)
	QueryStatus(ctx context.Context, taskID string) (*TaskStatus, error)
}
