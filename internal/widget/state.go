package widget

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry of the conversation. Messages are never changed or
// removed once appended.
type Message struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

// Phase is the conversation state machine position.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseOpenEmpty
	PhaseOpenActive
)

func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseOpenEmpty:
		return "open_empty"
	case PhaseOpenActive:
		return "open_active"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// State is a point-in-time copy of a widget's conversation state.
type State struct {
	IsOpen               bool      `json:"isOpen"`
	Phase                Phase     `json:"phase"`
	Messages             []Message `json:"messages"`
	WelcomePromptVisible bool      `json:"welcomePromptVisible"`
	Pending              int       `json:"pending"`
}

// Snapshot is the rendered widget markup a remote host applies to its copy
// of the DOM.
type Snapshot struct {
	Open     bool   `json:"open"`
	Toggle   string `json:"toggle"`
	Messages string `json:"messages"`
	Input    string `json:"input"`
}
