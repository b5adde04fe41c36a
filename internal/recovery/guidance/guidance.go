// Package guidance produces step-by-step help for a classified failure.
package guidance

import (
	"time"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/failure"
	"github.com/vietddude/itinerary/internal/validation"
)

// StepAction hints which control a step points at.
type StepAction string

const (
	StepRetry    StepAction = "retry"
	StepFallback StepAction = "fallback"
	StepContact  StepAction = "contact"
	StepCheck    StepAction = "check"
)

type Step struct {
	Number      int        `json:"step"`
	Instruction string     `json:"instruction"`
	Action      StepAction `json:"action,omitempty"`
	Details     string     `json:"details,omitempty"`
}

// Resolution is an ordered walkthrough for one category.
type Resolution struct {
	Title         string `json:"title"`
	Steps         []Step `json:"steps"`
	EstimatedTime string `json:"estimated_time"`
}

type Help struct {
	QuickFix       string   `json:"quick_fix,omitempty"`
	PreventionTips []string `json:"prevention_tips"`
	RelatedHelp    []string `json:"related_help"`
}

type Suggestions struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary"`
}

func steps(items ...Step) []Step {
	for i := range items {
		items[i].Number = i + 1
	}
	return items
}

// ResolutionSteps returns the walkthrough for info's category.
func ResolutionSteps(info failure.Info) Resolution {
	switch info.Category {
	case failure.CategoryNetwork:
		return Resolution{
			Title: "Resolving Connection Issues",
			Steps: steps(
				Step{Instruction: "Check your internet connection", Action: StepCheck,
					Details: "Ensure you're connected to the internet and the connection is stable"},
				Step{Instruction: "Try the request again", Action: StepRetry,
					Details: "Temporary connection issues often clear on their own"},
				Step{Instruction: "Use the local PDF generation", Action: StepFallback,
					Details: "This works offline and doesn't require a server connection"},
				Step{Instruction: "Contact support if the issue persists", Action: StepContact,
					Details: "Our team can help diagnose server connectivity issues"},
			),
			EstimatedTime: "2-5 minutes",
		}
	case failure.CategoryValidation:
		return Resolution{
			Title: "Fixing Form Validation Issues",
			Steps: steps(
				Step{Instruction: "Review all required fields", Action: StepCheck,
					Details: "Make sure all mandatory information is provided"},
				Step{Instruction: "Check date formats and ranges", Action: StepCheck,
					Details: "Ensure dates are valid and end date is after start date"},
				Step{Instruction: "Verify email and phone number formats", Action: StepCheck,
					Details: "Use valid email format (user@domain.com) and complete phone numbers"},
				Step{Instruction: "Try generating the PDF again", Action: StepRetry,
					Details: "Once all validation issues are fixed, the generation should work"},
			),
			EstimatedTime: "1-3 minutes",
		}
	case failure.CategoryServer:
		return Resolution{
			Title: "Resolving Server Issues",
			Steps: steps(
				Step{Instruction: "Wait a moment and try again", Action: StepRetry,
					Details: "Server issues are often temporary and resolve quickly"},
				Step{Instruction: "Use the local PDF generation", Action: StepFallback,
					Details: "This bypasses the server and works independently"},
				Step{Instruction: "Check if the issue is widespread", Action: StepCheck,
					Details: "Run the health command to see if the entire service is affected"},
				Step{Instruction: "Contact support for urgent issues", Action: StepContact,
					Details: "Report server issues so our team can investigate"},
			),
			EstimatedTime: "3-10 minutes",
		}
	default:
		return Resolution{
			Title: "General Error Resolution",
			Steps: steps(
				Step{Instruction: "Try the operation again", Action: StepRetry,
					Details: "Many errors are temporary and resolve on retry"},
				Step{Instruction: "Use alternative methods if available", Action: StepFallback,
					Details: "Try the local PDF generation as an alternative"},
				Step{Instruction: "Contact support with error details", Action: StepContact,
					Details: "Provide the error message and what you were trying to do"},
			),
			EstimatedTime: "2-5 minutes",
		}
	}
}

var relatedHelp = []string{
	"How to use local PDF generation",
	"Form validation requirements",
	"Troubleshooting connection issues",
	"Contacting support",
}

// ContextualHelp tailors help to the failing request. req may be nil.
func ContextualHelp(info failure.Info, req *domain.ItineraryRequest, now time.Time) Help {
	h := Help{RelatedHelp: append([]string(nil), relatedHelp...)}

	switch info.Category {
	case failure.CategoryValidation:
		if req != nil {
			if first, ok := validation.ValidateItinerary(req, now).FirstError(); ok {
				h.QuickFix = "Fix the " + validation.DisplayName(first.Field) + ": " + first.Message
			}
		}
		h.PreventionTips = []string{
			"Fill out all required fields before submitting",
			"Double-check date formats and ranges",
			"Use valid email and phone number formats",
		}
	case failure.CategoryNetwork:
		h.QuickFix = "Try the local PDF generation instead"
		h.PreventionTips = []string{
			"Ensure stable internet connection before starting",
			"Keep the itinerary file saved so it can be regenerated",
			"Use local generation for offline work",
		}
	case failure.CategoryServer:
		h.PreventionTips = []string{
			"Try operations during off-peak hours",
			"Keep itineraries simple to reduce processing load",
			"Use local generation as backup",
		}
	default:
		h.PreventionTips = []string{}
	}
	return h
}

// FallbackSuggestions describes what to do instead of the failed pathway.
func FallbackSuggestions(info failure.Info) Suggestions {
	if !info.FallbackAvailable {
		return Suggestions{
			Primary:   "Please try again later",
			Secondary: []string{"Contact support if the issue persists"},
		}
	}
	switch info.Category {
	case failure.CategoryNetwork:
		return Suggestions{
			Primary: "Use the local PDF generation instead",
			Secondary: []string{
				"Check your internet connection",
				"Try again when connection is stable",
				"Contact support if backend is needed",
			},
		}
	case failure.CategoryServer:
		return Suggestions{
			Primary: "Use the local PDF generation as backup",
			Secondary: []string{
				"Server will be back online soon",
				"Try backend generation again later",
				"Contact support if urgent",
			},
		}
	default:
		return Suggestions{
			Primary: "Use the local PDF generation",
			Secondary: []string{
				"This provides the same functionality",
				"Try backend generation again later",
			},
		}
	}
}
