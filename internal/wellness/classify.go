// Package wellness holds the rule-based support chatbot and the static resource list.
package wellness

import (
	"strings"
	"unicode"
)

// Intent is what the chatbot believes the user is asking for.
type Intent string

const (
	IntentCrisis    Intent = "crisis"
	IntentPeer      Intent = "redirect_peer"
	IntentResources Intent = "redirect_resources"
	IntentBook      Intent = "redirect_book"
	IntentDistress  Intent = "choices"
	IntentGreeting  Intent = "greeting"
	IntentNormal    Intent = "normal"
)

type rule struct {
	intent   Intent
	keywords []string
	// prefix rules only match the first word of the message.
	prefix bool
}

// rules are checked in order; the first match wins.
var rules = []rule{
	{intent: IntentCrisis, keywords: []string{
		"suicide", "kill myself", "die", "end my life", "want to die", "give up", "self harm", "cut myself",
	}},
	{intent: IntentPeer, keywords: []string{"peer chat", "peer", "talk to someone"}},
	{intent: IntentResources, keywords: []string{"resource", "resources", "material", "help article"}},
	{intent: IntentBook, keywords: []string{"book", "session", "appointment", "counselor", "counselling"}},
	{intent: IntentDistress, keywords: []string{
		"stress", "anxiety", "sad", "panic", "overwhelmed", "tired", "depressed", "worthless", "lonely",
	}},
	{intent: IntentGreeting, prefix: true, keywords: []string{"hi", "hello", "hey", "wassup", "sup", "yo", "hiii"}},
}

// Classify maps a free-text message to an intent. Keywords match whole words or phrases,
// so "diet" is not read as "die".
func Classify(text string) Intent {
	norm := normalize(text)
	if norm == "" {
		return IntentNormal
	}
	padded := " " + norm + " "
	first := strings.SplitN(norm, " ", 2)[0]

	for _, r := range rules {
		for _, kw := range r.keywords {
			if r.prefix {
				if first == kw {
					return r.intent
				}
				continue
			}
			if strings.Contains(padded, " "+kw+" ") {
				return r.intent
			}
		}
	}
	return IntentNormal
}

// normalize lowercases text and collapses everything but letters and digits into single spaces.
func normalize(text string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
