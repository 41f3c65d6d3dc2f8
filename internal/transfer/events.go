package transfer

// EventType names an outbound session event.
type EventType string

const (
	EventStage     EventType = "stage"
	EventLog       EventType = "log"
	EventProgress  EventType = "progress"
	EventShareLink EventType = "share-link"
	EventSuccess   EventType = "success"
	EventError     EventType = "error"
)

// Progress stage tags.
const (
	ProgressSeedbox = "seedr"
	ProgressStorage = "drive"
)

// Event is one outbound message. Payload is one of string, StagePayload,
// ProgressPayload or SuccessPayload.
type Event struct {
	Type    EventType
	Payload any
}

type StagePayload struct {
	Stage int    `json:"stage"`
	Label string `json:"label"`
}

type ProgressPayload struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
}

// SuccessPayload is the terminal success event. Message is the
// human-readable line; the rest mirrors Result.
type SuccessPayload struct {
	Message   string      `json:"message"`
	FileName  string      `json:"fileName"`
	Title     string      `json:"title"`
	ShareLink string      `json:"shareLink,omitempty"`
	Publish   StepOutcome `json:"publish"`
	Cleanup   StepOutcome `json:"cleanup"`
}

// StepOutcome is the wire form of a StepResult.
type StepOutcome struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// Emitter receives events in the order a run produces them.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }
