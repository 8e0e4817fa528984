package conversation

// Message is an outbound reply. The set of implementations is closed.
type Message interface {
	messageType() string
}

// Text is a plain text message.
type Text struct {
	Body string
}

// Button is one reply button.
type Button struct {
	ID    string
	Title string
}

// Buttons is a text body with up to three reply buttons.
type Buttons struct {
	Body    string
	Buttons []Button
}

// Row is one selectable entry of a List.
type Row struct {
	ID          string
	Title       string
	Description string
}

// List is an interactive list with a single section of rows.
type List struct {
	Header      string
	Body        string
	Footer      string
	ButtonLabel string
	Rows        []Row
}

// Image is an image referenced by URL.
type Image struct {
	URL     string
	Caption string
}

func (Text) messageType() string    { return "text" }
func (Buttons) messageType() string { return "buttons" }
func (List) messageType() string    { return "list" }
func (Image) messageType() string   { return "image" }

// MessageType returns the metric label for msg.
func MessageType(msg Message) string {
	if msg == nil {
		return "unknown"
	}
	return msg.messageType()
}

// MaxButtons is the platform limit on reply buttons per message.
const MaxButtons = 3

// TruncateButtons keeps the first MaxButtons buttons and reports how many were dropped.
func TruncateButtons(buttons []Button) ([]Button, int) {
	if len(buttons) <= MaxButtons {
		return buttons, 0
	}
	return buttons[:MaxButtons], len(buttons) - MaxButtons
}
