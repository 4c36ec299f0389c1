// Package cards renders the Teams attachments sent by the scheduled jobs.
package cards

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"onboarding/internal/types"
)

const (
	teamsDeepLinkBase = "https://teams.microsoft.com/l"
	journeyEntityID   = "Journey"
	listCardImages    = 4
)

// Config holds the links and assets referenced from rendered cards.
type Config struct {
	AppTitle string
	// AppBaseURI hosts the static card images under /Artifacts.
	AppBaseURI string
	// ManifestID is the Teams app id used for tab deep links.
	ManifestID      string
	FeedbackFormURL string
}

// Renderer implements types.CardRenderer.
type Renderer struct {
	cfg Config
}

var _ types.CardRenderer = (*Renderer)(nil)

func NewRenderer(cfg Config) *Renderer {
	if cfg.AppTitle == "" {
		cfg.AppTitle = "New Hire Onboarding"
	}
	cfg.AppBaseURI = strings.TrimRight(cfg.AppBaseURI, "/")
	return &Renderer{cfg: cfg}
}

// RenderLearningPlanCard renders the week's items as a Teams list card.
func (r *Renderer) RenderLearningPlanCard(items []types.LearningPlanItem, week int) (types.Payload, error) {
	if len(items) == 0 {
		return types.Payload{}, types.NewAppError(types.ErrCodeInternalRender,
			fmt.Sprintf("learning plan for week %d has no items", week), nil)
	}

	title := fmt.Sprintf("Week %d learning plan", week)
	card := ListCard{Title: title}
	for i, item := range items {
		icon := item.ImageURL
		if icon == "" {
			icon = r.listCardImage(i)
		}
		row := ListCardItem{
			Type:     "resultItem",
			ID:       strconv.Itoa(i),
			Title:    item.Topic,
			Subtitle: item.TaskName,
			Icon:     icon,
		}
		if item.ResourceURL != "" {
			row.Tap = &ListCardItemTap{Type: "openUrl", Value: item.ResourceURL}
		}
		card.Items = append(card.Items, row)
	}
	if r.cfg.ManifestID != "" {
		card.Buttons = append(card.Buttons, ListCardButton{
			Type:  "openUrl",
			Title: "View complete learning plan",
			Value: fmt.Sprintf("%s/entity/%s/%s", teamsDeepLinkBase, r.cfg.ManifestID, journeyEntityID),
		})
	}
	if r.cfg.FeedbackFormURL != "" {
		card.Buttons = append(card.Buttons, ListCardButton{
			Type:  "openUrl",
			Title: "Share feedback",
			Value: r.cfg.FeedbackFormURL,
		})
	}

	return encode(ListCardContentType, card, title)
}

// RenderPairUpCard renders the card shown to recipient that introduces partner.
func (r *Renderer) RenderPairUpCard(recipient, partner types.Recipient) (types.Payload, error) {
	if partner.Name == "" {
		return types.Payload{}, types.NewAppError(types.ErrCodeInternalRender, "pair-up partner has no name", nil)
	}

	partnerGiven := givenName(partner.Name)
	body := []AdaptiveItem{
		{Type: "TextBlock", Text: "Meet your new pair-up match", Size: "Medium", Weight: "Bolder", Wrap: true},
		{Type: "TextBlock", Text: fmt.Sprintf("You have been matched with %s.", partner.Name), Wrap: true},
		{Type: "TextBlock", Text: fmt.Sprintf("%s pairs new hires with colleagues who have been around a while. Reach out to %s and set up some time to get to know each other.", r.cfg.AppTitle, partner.Name), Wrap: true},
	}
	if partner.Email != "" {
		body = append(body, AdaptiveItem{Type: "FactSet", Facts: []Fact{{Title: "Email", Value: partner.Email}}})
	}

	var actions []AdaptiveAction
	if upn := partner.UserPrincipalName; upn != "" {
		actions = append(actions,
			AdaptiveAction{
				Type:  "Action.OpenUrl",
				Title: fmt.Sprintf("Chat with %s", partnerGiven),
				URL:   chatLink(upn, "Hi! We were matched by "+r.cfg.AppTitle+"."),
			},
			AdaptiveAction{
				Type:  "Action.OpenUrl",
				Title: "Propose meetup",
				URL:   meetingLink(upn, fmt.Sprintf("%s / %s meetup", givenName(recipient.Name), partnerGiven), "Introduced by "+r.cfg.AppTitle),
			},
		)
	}

	return encode(types.AdaptiveCardContentType, newAdaptiveCard(body, actions),
		fmt.Sprintf("You have been matched with %s", partner.Name))
}

// RenderSurveyCard renders the new hire survey request.
func (r *Renderer) RenderSurveyCard() (types.Payload, error) {
	body := []AdaptiveItem{
		{Type: "TextBlock", Text: "We'd love your feedback", Color: "Accent", Wrap: true},
		{Type: "TextBlock", Text: "How is your onboarding going?", Size: "Large", Weight: "Bolder", Wrap: true},
		{Type: "TextBlock", Text: "Tell us about your first weeks so we can make onboarding better for the next new hire.", Wrap: true},
	}
	if r.cfg.AppBaseURI != "" {
		body = append(body, AdaptiveItem{Type: "Image", URL: r.cfg.AppBaseURI + "/Artifacts/notificationSurvey.png", AltText: "Survey"})
	}

	var actions []AdaptiveAction
	if r.cfg.FeedbackFormURL != "" {
		actions = append(actions, AdaptiveAction{Type: "Action.OpenUrl", Title: "Get started", URL: r.cfg.FeedbackFormURL})
	}
	return encode(types.AdaptiveCardContentType, newAdaptiveCard(body, actions), "Share your onboarding feedback")
}

// RenderFeedbackCard renders the HR team notice that new feedback is available.
func (r *Renderer) RenderFeedbackCard(now time.Time) (types.Payload, error) {
	body := []AdaptiveItem{
		{Type: "TextBlock", Text: "New hire feedback report", Size: "Medium", Weight: "Bolder", Wrap: true},
		{Type: "TextBlock", Text: fmt.Sprintf("Feedback submitted by new hires up to %s is ready to review.", now.UTC().Format("January 2, 2006")), Wrap: true},
	}
	if r.cfg.AppBaseURI != "" {
		body = append(body, AdaptiveItem{Type: "Image", URL: r.cfg.AppBaseURI + "/Artifacts/viewSubmittedFeedback.png", AltText: "Feedback"})
	}

	var actions []AdaptiveAction
	if r.cfg.ManifestID != "" {
		actions = append(actions, AdaptiveAction{
			Type:  "Action.OpenUrl",
			Title: "View feedback",
			URL:   fmt.Sprintf("%s/entity/%s/%s", teamsDeepLinkBase, r.cfg.ManifestID, journeyEntityID),
		})
	}
	return encode(types.AdaptiveCardContentType, newAdaptiveCard(body, actions), "New hire feedback is ready")
}

// listCardImage rotates through the bundled list card images.
func (r *Renderer) listCardImage(i int) string {
	if r.cfg.AppBaseURI == "" {
		return ""
	}
	return fmt.Sprintf("%s/Artifacts/listCardImage%d.png", r.cfg.AppBaseURI, i%listCardImages+1)
}

func newAdaptiveCard(body []AdaptiveItem, actions []AdaptiveAction) AdaptiveCard {
	return AdaptiveCard{
		Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
		Type:    "AdaptiveCard",
		Version: adaptiveCardVersion,
		Body:    body,
		Actions: actions,
	}
}

func encode(contentType string, content any, summary string) (types.Payload, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return types.Payload{}, types.NewAppError(types.ErrCodeInternalRender, "failed to encode card", err)
	}
	return types.Payload{ContentType: contentType, Content: raw, Summary: summary}, nil
}

func chatLink(upn, message string) string {
	q := url.Values{}
	q.Set("users", upn)
	q.Set("message", message)
	return teamsDeepLinkBase + "/chat/0/0?" + q.Encode()
}

func meetingLink(upn, subject, content string) string {
	q := url.Values{}
	q.Set("subject", subject)
	q.Set("attendees", upn)
	q.Set("content", content)
	return teamsDeepLinkBase + "/meeting/new?" + q.Encode()
}

func givenName(name string) string {
	if first, _, ok := strings.Cut(strings.TrimSpace(name), " "); ok {
		return first
	}
	return strings.TrimSpace(name)
}
