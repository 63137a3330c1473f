package wellness

import (
	"math/rand"
	"sync"
	"time"
)

// Option is a follow-up action the client can offer the user.
type Option struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Helpline is a crisis phone line.
type Helpline struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Reply is the chatbot answer to one message.
type Reply struct {
	Type      Intent     `json:"type"`
	Message   string     `json:"message"`
	Options   []Option   `json:"options,omitempty"`
	Helplines []Helpline `json:"helplines,omitempty"`
}

var Helplines = []Helpline{
	{Name: "AASRA", Phone: "91-9820466726"},
	{Name: "Snehi", Phone: "+91-9582208181"},
}

var distressOptions = []Option{
	{Label: "Peer Chat", Path: "/peer"},
	{Label: "Wellness Resources", Path: "/resources"},
	{Label: "Book a Counseling Session", Path: "/book"},
}

var greetingReplies = []string{
	"Hey! It's nice to hear from you. How are you feeling today?",
	"Hello! I'm here with you. What's on your mind?",
	"Hi! Tell me whatever you feel comfortable sharing.",
	"Hey! I'm listening. How are things going?",
}

var supportiveReplies = []string{
	"I understand... that must be tough. What made you feel this way?",
	"Thanks for sharing that. Want to talk about what started these feelings?",
	"I hear you. It's okay to feel this way. What happened?",
	"That sounds heavy... I'm here with you. Want to explain more?",
	"Emotions can feel overwhelming sometimes. Want to share more?",
	"I'm here for you. Take your time. What's bothering you?",
}

// Bot answers messages using Classify. It is safe for concurrent use.
type Bot struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewBot creates a bot. A nil src seeds from the clock.
func NewBot(src rand.Source) *Bot {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Bot{rnd: rand.New(src)}
}

func (b *Bot) Reply(text string) Reply {
	switch intent := Classify(text); intent {
	case IntentCrisis:
		return Reply{
			Type:      intent,
			Message:   "I'm really worried for your safety. Please reach out immediately.",
			Helplines: Helplines,
		}
	case IntentPeer:
		return Reply{Type: intent, Message: "Connecting you to a peer..."}
	case IntentResources:
		return Reply{Type: intent, Message: "Taking you to resources..."}
	case IntentBook:
		return Reply{Type: intent, Message: "Opening counseling session booking..."}
	case IntentDistress:
		return Reply{
			Type:    intent,
			Message: "It sounds like you're going through something difficult. I'm here with you. You can choose what feels right for you:",
			Options: distressOptions,
		}
	case IntentGreeting:
		// Greetings are plain conversation for the client.
		return Reply{Type: IntentNormal, Message: b.pick(greetingReplies)}
	default:
		return Reply{Type: IntentNormal, Message: b.pick(supportiveReplies)}
	}
}

func (b *Bot) pick(pool []string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return pool[b.rnd.Intn(len(pool))]
}
