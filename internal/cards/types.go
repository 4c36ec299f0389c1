package cards

// ListCardContentType is the attachment content type of a Teams list card.
const ListCardContentType = "application/vnd.microsoft.teams.card.list"

// adaptiveCardVersion is the schema version Teams renders on every client.
const adaptiveCardVersion = "1.2"

// --- Adaptive Card ---

// AdaptiveCard is the Microsoft Adaptive Card structure.
type AdaptiveCard struct {
	Schema  string           `json:"$schema,omitempty"`
	Type    string           `json:"type"`    // "AdaptiveCard"
	Version string           `json:"version"` // "1.2"
	Body    []AdaptiveItem   `json:"body"`
	Actions []AdaptiveAction `json:"actions,omitempty"`
}

// AdaptiveItem represents an element in the Adaptive Card body.
type AdaptiveItem struct {
	Type    string `json:"type"`              // "TextBlock", "Image", "FactSet"
	Text    string `json:"text,omitempty"`    // For TextBlock
	Size    string `json:"size,omitempty"`    // "Large", "Medium", "Small"
	Weight  string `json:"weight,omitempty"`  // "Bolder", "Lighter"
	Color   string `json:"color,omitempty"`   // "Accent", "Good"
	Spacing string `json:"spacing,omitempty"` // "Small", "Medium"
	Wrap    bool   `json:"wrap,omitempty"`
	URL     string `json:"url,omitempty"`     // For Image
	AltText string `json:"altText,omitempty"` // For Image
	Facts   []Fact `json:"facts,omitempty"`   // For FactSet
}

// AdaptiveAction is a card-level button.
type AdaptiveAction struct {
	Type  string `json:"type"` // "Action.OpenUrl"
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Fact is a key-value pair in a FactSet.
type Fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// --- List Card ---

// ListCard is the Teams list card used for the weekly learning plan.
type ListCard struct {
	Title   string           `json:"title"`
	Items   []ListCardItem   `json:"items"`
	Buttons []ListCardButton `json:"buttons,omitempty"`
}

// ListCardItem is one row of a list card.
type ListCardItem struct {
	Type     string           `json:"type"` // "resultItem"
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Subtitle string           `json:"subtitle,omitempty"`
	Icon     string           `json:"icon,omitempty"`
	Tap      *ListCardItemTap `json:"tap,omitempty"`
}

// ListCardItemTap is the action fired when a list row is tapped.
type ListCardItemTap struct {
	Type  string `json:"type"` // "openUrl", "imBack"
	Value string `json:"value"`
}

// ListCardButton is a button below the list.
type ListCardButton struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value string `json:"value"`
}
