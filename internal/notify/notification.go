// Package notify turns classified failures into user facing notifications.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/classify"
	"github.com/vietddude/itinerary/internal/recovery/failure"
)

// ActionKind is what an action does when chosen.
type ActionKind string

const (
	ActionRetry    ActionKind = "retry"
	ActionFallback ActionKind = "fallback"
	ActionHelp     ActionKind = "help"
	ActionContact  ActionKind = "contact"
	ActionDismiss  ActionKind = "dismiss"
)

// Level distinguishes error notifications from informational ones.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
)

type Action struct {
	Label   string     `json:"label"`
	Kind    ActionKind `json:"kind"`
	Primary bool       `json:"primary,omitempty"`
	Handler func()     `json:"-"`
}

type Notification struct {
	ID          string           `json:"id"`
	Level       Level            `json:"level"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Severity    failure.Severity `json:"severity"`
	Category    failure.Category `json:"category"`
	CreatedAt   time.Time        `json:"created_at"`
	Actions     []Action         `json:"actions"`
	AutoDismiss time.Duration    `json:"auto_dismiss"`
	Persistent  bool             `json:"persistent"`
	Details     string           `json:"-"`
}

// Handlers are the optional callbacks offered as actions.
type Handlers struct {
	Retry    func()
	Fallback func()
	Help     func()
	Contact  func()
	// Alternate is the pathway Fallback runs. Empty means local.
	Alternate domain.PathwayName
}

const retryHint = " Choose 'Try Again' to retry the operation."

func (h Handlers) alternate() string {
	if h.Alternate == "" {
		return string(domain.PathwayLocal)
	}
	return string(h.Alternate)
}

func fallbackLabel(pathway string) string {
	return "Use " + strings.ToUpper(pathway[:1]) + pathway[1:] + " PDF"
}

func fallbackHint(pathway string) string {
	return fmt.Sprintf(" You can try the %s PDF generation instead.", pathway)
}

// Title returns the notification title for a category.
func Title(c failure.Category) string {
	switch c {
	case failure.CategoryNetwork:
		return "Connection Issue"
	case failure.CategoryValidation:
		return "Form Validation Error"
	case failure.CategoryServer:
		return "Server Error"
	case failure.CategoryTimeout:
		return "Request Timeout"
	default:
		return "Error Occurred"
	}
}

// Build converts info into a notification. The dismiss action is always last
// and has no handler until the notification is shown by a Manager.
func Build(info failure.Info, h Handlers) Notification {
	canRetry := classify.CanRetryOperation(info)
	showFallback := classify.ShouldShowFallback(info)
	alt := h.alternate()

	msg := info.UserMessage
	if showFallback {
		msg += fallbackHint(alt)
	}
	if canRetry {
		msg += retryHint
	}

	var actions []Action
	if canRetry && h.Retry != nil {
		actions = append(actions, Action{Label: "Try Again", Kind: ActionRetry, Handler: h.Retry, Primary: true})
	}
	if showFallback && h.Fallback != nil {
		actions = append(actions, Action{Label: fallbackLabel(alt), Kind: ActionFallback, Handler: h.Fallback, Primary: !canRetry})
	}
	if h.Help != nil {
		actions = append(actions, Action{Label: "Get Help", Kind: ActionHelp, Handler: h.Help})
	}
	if info.Severity == failure.SeverityCritical && h.Contact != nil {
		actions = append(actions, Action{Label: "Contact Support", Kind: ActionContact, Handler: h.Contact})
	}
	actions = append(actions, Action{Label: "Dismiss", Kind: ActionDismiss})

	return Notification{
		ID:          uuid.NewString(),
		Level:       LevelError,
		Title:       Title(info.Category),
		Message:     msg,
		Severity:    info.Severity,
		Category:    info.Category,
		CreatedAt:   time.Now(),
		Actions:     actions,
		AutoDismiss: info.Severity.AutoDismiss(),
		Persistent:  info.Severity.Persistent(),
		Details:     info.TechnicalDetails,
	}
}

// PrimaryAction returns the action marked primary, if any.
func (n Notification) PrimaryAction() (Action, bool) {
	for _, a := range n.Actions {
		if a.Primary {
			return a, true
		}
	}
	return Action{}, false
}
