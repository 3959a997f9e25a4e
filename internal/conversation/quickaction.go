// ABOUTME: Predefined quick actions, each tagged with what it does
// ABOUTME: Dispatch keys off ActionKind, never off the label text

package conversation

// ActionKind selects the behaviour of a quick action.
type ActionKind int

const (
	// ActionAsk submits the action's Question as if the user typed it.
	ActionAsk ActionKind = iota
	// ActionTopics lists the available categories.
	ActionTopics
	// ActionHowItWorks appends the fixed explanation without a remote call.
	ActionHowItWorks
)

func (k ActionKind) String() string {
	switch k {
	case ActionAsk:
		return "ask"
	case ActionTopics:
		return "topics"
	case ActionHowItWorks:
		return "how-it-works"
	default:
		return "unknown"
	}
}

// QuickAction is a clickable shortcut shown next to the input.
type QuickAction struct {
	ID       string
	Label    string
	Question string
	Kind     ActionKind
}

// DefaultQuickActions returns the shortcuts offered by every front end.
func DefaultQuickActions() []QuickAction {
	return []QuickAction{
		{ID: "topics", Label: "Temas disponibles", Question: "¿Cuáles son los temas disponibles?", Kind: ActionTopics},
		{ID: "how-it-works", Label: "¿Cómo funciona?", Question: "¿Cómo funciona este chatbot?", Kind: ActionHowItWorks},
		{ID: "math", Label: "Matemáticas", Question: "¿Puedes ayudarme con matemáticas?", Kind: ActionAsk},
	}
}

// LookupQuickAction finds an action by ID.
func LookupQuickAction(actions []QuickAction, id string) (QuickAction, bool) {
	for _, a := range actions {
		if a.ID == id {
			return a, true
		}
	}
	return QuickAction{}, false
}
