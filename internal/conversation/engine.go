package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EngineConfig holds the opaque references the engine interpolates into replies.
type EngineConfig struct {
	PaymentQRURL    string
	DocumentBaseURL string
	AdvisorPhone    string

	// NewID generates document ids. Defaults to uuid.NewString.
	NewID func() string
	// Now stamps UpdatedAt on states produced by Handle. Defaults to time.Now.
	Now func() time.Time
}

// Decision is what the engine wants done for one event.
type Decision struct {
	Patch    *Patch
	Clear    bool
	Messages []Message
}

type transitionKey struct {
	Flow Flow
	Step Step
	Kind EventKind
}

type flowStep struct {
	Flow Flow
	Step Step
}

type handler func(e *Engine, st State, ev Event) Decision

type prompter func(e *Engine, st State) []Message

// Engine maps (state, event) to the next state and the replies to send.
// It performs no I/O and is safe for concurrent use once built.
type Engine struct {
	cfg         EngineConfig
	transitions map[transitionKey]handler
	prompts     map[flowStep]prompter
	entries     map[string]handler
}

// NewEngine builds an engine with every flow registered.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.DocumentBaseURL = strings.TrimRight(cfg.DocumentBaseURL, "/")
	e := &Engine{
		cfg:         cfg,
		transitions: make(map[transitionKey]handler),
		prompts:     make(map[flowStep]prompter),
		entries:     make(map[string]handler),
	}
	registerFoodFlow(e)
	registerBookingFlow(e, medicalBooking)
	registerBookingFlow(e, legalBooking)
	registerLegalFlow(e)
	return e
}

// step declares a step of a flow together with the prompt that re-presents it.
func (e *Engine) step(flow Flow, step Step, prompt prompter) {
	e.prompts[flowStep{flow, step}] = prompt
}

// on registers h for the given event kinds at (flow, step).
func (e *Engine) on(flow Flow, step Step, h handler, kinds ...EventKind) {
	for _, kind := range kinds {
		e.transitions[transitionKey{flow, step, kind}] = h
	}
}

// onSelection registers h for both button and list selections.
func (e *Engine) onSelection(flow Flow, step Step, h handler) {
	e.on(flow, step, h, KindButton, KindList)
}

// entry registers the handler that starts a flow from a top-level selection.
func (e *Engine) entry(id string, h handler) {
	e.entries[id] = h
}

// Handle applies the decision for ev to st and returns the resulting state
// together with the messages to send, in order.
func (e *Engine) Handle(st State, ev Event) (State, []Message) {
	d := e.Decide(st, ev)
	switch {
	case d.Clear:
		return State{Sender: st.Sender}, d.Messages
	case d.Patch != nil:
		return ApplyPatch(st, *d.Patch, e.cfg.Now()), d.Messages
	default:
		return st, d.Messages
	}
}

// Decide returns what should happen for ev given st. Reset commands take
// priority over everything; top-level selections work from any flow;
// otherwise the transition table decides and unmatched input re-presents
// the current step.
func (e *Engine) Decide(st State, ev Event) Decision {
	ev = ev.Normalize()
	if canonical, ok := legacyIDs[ev.ID]; ok {
		ev.ID = canonical
	}

	if isReset(ev) {
		return Decision{Clear: true, Messages: e.mainMenu()}
	}
	if ev.IsSelection() {
		if d, ok := e.topLevelSelection(st, ev); ok {
			return d
		}
	}
	if st.Flow() == FlowNone {
		return e.topLevelFallback(ev)
	}

	if h, ok := e.transitions[transitionKey{st.Flow(), st.Step, ev.Kind}]; ok {
		return h(e, st, ev)
	}
	return e.reprompt(st)
}

// reprompt is the fallback entry of the transition table.
func (e *Engine) reprompt(st State) Decision {
	if prompt, ok := e.prompts[flowStep{st.Flow(), st.Step}]; ok {
		return Decision{Messages: prompt(e, st)}
	}
	return Decision{Clear: true, Messages: e.mainMenu()}
}

func isReset(ev Event) bool {
	if ev.IsSelection() {
		return ev.ID == IDMainMenu
	}
	_, ok := resetCommands[strings.ToLower(ev.Text)]
	return ok
}

func (e *Engine) topLevelSelection(st State, ev Event) (Decision, bool) {
	switch ev.ID {
	case IDPlans:
		return Decision{Messages: []Message{plansList}}, true
	case IDDemos:
		return Decision{Messages: []Message{demosList}}, true
	case IDAdvisor:
		return Decision{Messages: []Message{e.advisorContact()}}, true
	case IDPlanBasic, IDPlanPro, IDPlanPremium:
		return Decision{Messages: []Message{
			Text{Body: planDetails[ev.ID]},
			Buttons{Body: nextStepsPrompt, Buttons: planFollowUpButtons},
		}}, true
	}
	if h, ok := e.entries[ev.ID]; ok {
		return h(e, st, ev), true
	}
	return Decision{}, false
}

func (e *Engine) topLevelFallback(ev Event) Decision {
	if ev.Kind == KindText {
		switch strings.ToLower(ev.Text) {
		case "planes", "plans":
			return Decision{Messages: []Message{plansList}}
		case "demos":
			return Decision{Messages: []Message{demosList}}
		}
	}
	return Decision{Messages: e.mainMenu()}
}

func (e *Engine) mainMenu() []Message {
	return []Message{Buttons{Body: mainMenuBody, Buttons: mainMenuButtons}}
}

func (e *Engine) advisorContact() Message {
	return Text{Body: fmt.Sprintf(advisorTemplate, e.cfg.AdvisorPhone)}
}

// paymentMessages returns the QR image, when one is configured, followed by
// the confirmation button.
func (e *Engine) paymentMessages(caption, prompt string, paid Button) []Message {
	msgs := make([]Message, 0, 2)
	if e.cfg.PaymentQRURL != "" {
		msgs = append(msgs, Image{URL: e.cfg.PaymentQRURL, Caption: caption})
	}
	return append(msgs, Buttons{Body: prompt, Buttons: []Button{paid}})
}

func closingMessages(body string) []Message {
	return []Message{
		Text{Body: body},
		Buttons{Body: closingMenuPrompt, Buttons: []Button{backToMenuButton}},
	}
}

func patch(step Step, data FlowData) *Patch {
	return &Patch{Step: step, Data: data}
}

func replace(step Step, data FlowData) *Patch {
	return &Patch{Step: step, Data: data, Replace: true}
}
