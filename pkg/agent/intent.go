package agent

import "strings"

// Intent classifies what a chat message asks the agent to do
type Intent int

const (
	// IntentChat is a regular conversation turn
	IntentChat Intent = iota
	// IntentConsent is the exact consent phrase that authorizes a trade
	IntentConsent
	// IntentKanye requests the easter-egg quote alongside the reply
	IntentKanye
)

// String returns the metric label for the intent
func (i Intent) String() string {
	switch i {
	case IntentConsent:
		return "consent"
	case IntentKanye:
		return "kanye"
	default:
		return "chat"
	}
}

// Classifier decides the intent of an incoming message. Keeping this behind
// an interface lets the matching strategy evolve without touching the
// orchestration.
type Classifier interface {
	Classify(message string) Intent
}

// ConsentPhrase is the exact message that authorizes the agent to trade
const ConsentPhrase = "you have convinced me"

type phraseClassifier struct{}

// NewPhraseClassifier returns the default classifier: consent requires the
// exact phrase (case-insensitive), the easter egg triggers on a substring.
func NewPhraseClassifier() Classifier {
	return phraseClassifier{}
}

func (phraseClassifier) Classify(message string) Intent {
	lower := strings.ToLower(message)
	if lower == ConsentPhrase {
		return IntentConsent
	}
	if strings.Contains(lower, "kanye") {
		return IntentKanye
	}
	return IntentChat
}
