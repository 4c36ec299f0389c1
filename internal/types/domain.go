package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role distinguishes the two kinds of bot users the scheduler notifies.
type Role int

const (
	RoleNewHire       Role = 0
	RoleHiringManager Role = 1
)

// String returns the lowercase role name used in logs and the database.
func (r Role) String() string {
	switch r {
	case RoleNewHire:
		return "new_hire"
	case RoleHiringManager:
		return "hiring_manager"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole converts a stored role name back into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new_hire", "newhire":
		return RoleNewHire, nil
	case "hiring_manager", "hiringmanager":
		return RoleHiringManager, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// Recipient is a user who has installed the bot in personal scope.
// EnrolledAt is the bot install time and drives tenure calculations.
type Recipient struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	UserPrincipalName string    `json:"user_principal_name"`
	ServiceURL        string    `json:"service_url"`
	ConversationID    string    `json:"conversation_id"`
	Role              Role      `json:"role"`
	EnrolledAt        time.Time `json:"enrolled_at"`
	OptedIn           bool      `json:"opted_in"`
}

// Addressable reports whether the recipient carries enough information to
// resume its personal conversation.
func (r Recipient) Addressable() bool {
	return r.ID != "" && r.ServiceURL != "" && r.ConversationID != ""
}

// ConversationRef returns the reference needed to resume the recipient's
// personal conversation.
func (r Recipient) ConversationRef() ConversationRef {
	return ConversationRef{ServiceURL: r.ServiceURL, ConversationID: r.ConversationID}
}

// AgeInDays returns the number of whole days since enrollment.
// A future enrollment time yields a negative age.
func (r Recipient) AgeInDays(now time.Time) int {
	return int(now.Sub(r.EnrolledAt) / (24 * time.Hour))
}

// ConversationRef identifies an existing Bot Framework conversation.
type ConversationRef struct {
	ServiceURL     string `json:"service_url"`
	ConversationID string `json:"conversation_id"`
}

// AdaptiveCardContentType is the attachment content type for Adaptive Cards.
const AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// Payload is a rendered message attachment ready for delivery.
type Payload struct {
	ContentType string          `json:"contentType"`
	Content     json.RawMessage `json:"content"`
	// Summary is used as the activity text for notification previews.
	Summary string `json:"-"`
}

// IsZero reports whether the payload has no content to deliver.
func (p Payload) IsZero() bool {
	return p.ContentType == "" || len(p.Content) == 0
}

// LearningPlanItem is one entry of the onboarding learning plan.
// Week is the 1-based week bucket the item must be completed by.
type LearningPlanItem struct {
	Week        int    `json:"week"`
	Topic       string `json:"topic"`
	TaskName    string `json:"task_name"`
	Content     string `json:"content"`
	ImageURL    string `json:"image_url,omitempty"`
	ResourceURL string `json:"resource_url,omitempty"`
}

// ItemsForWeek returns the items whose week bucket equals week, preserving order.
func ItemsForWeek(items []LearningPlanItem, week int) []LearningPlanItem {
	var out []LearningPlanItem
	for _, item := range items {
		if item.Week == week {
			out = append(out, item)
		}
	}
	return out
}

// SurveyStatus tracks whether the post-introduction survey has been sent.
type SurveyStatus int

const (
	SurveyPending SurveyStatus = 0
	SurveySent    SurveyStatus = 1
)

// IntroductionRecord is a manager-approved introduction awaiting (or past)
// its feedback survey.
type IntroductionRecord struct {
	NewHireID    string       `json:"new_hire_id"`
	ManagerID    string       `json:"manager_id"`
	NewHireName  string       `json:"new_hire_name"`
	ApprovedOn   time.Time    `json:"approved_on"`
	SurveyStatus SurveyStatus `json:"survey_status"`
	SurveySentOn *time.Time   `json:"survey_sent_on,omitempty"`
}

// MarkSurveySent returns a copy of the record with the survey marked as sent at now.
func (r IntroductionRecord) MarkSurveySent(now time.Time) IntroductionRecord {
	sentOn := now
	r.SurveyStatus = SurveySent
	r.SurveySentOn = &sentOn
	return r
}

// SurveyFrequency controls how often the HR feedback card is posted.
type SurveyFrequency string

const (
	SurveyWeekly  SurveyFrequency = "weekly"
	SurveyMonthly SurveyFrequency = "monthly"
)
