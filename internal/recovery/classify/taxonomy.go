package classify

import (
	"slices"

	"github.com/vietddude/itinerary/internal/recovery/failure"
)

// Condition is a row of the taxonomy: a category, optionally refined by a
// specific condition such as a status code or a network failure kind.
type Condition string

const (
	CondNetwork         Condition = "network"
	CondNetworkTimeout  Condition = "network.timeout"
	CondNetworkRefused  Condition = "network.refused"
	CondNetworkDNS      Condition = "network.dns"
	CondNetworkTLS      Condition = "network.tls"
	CondNetworkOffline  Condition = "network.offline"
	CondNetworkNotFound Condition = "network.not-found"
	CondMaxRetries      Condition = "network.max-retries"

	CondValidation Condition = "validation"

	CondServer            Condition = "server"
	CondServerInternal    Condition = "server.500"
	CondServerBadGateway  Condition = "server.502"
	CondServerUnavailable Condition = "server.503"
	CondServerGwTimeout   Condition = "server.504"
	CondServerRateLimited Condition = "server.429"

	CondTimeout Condition = "timeout"

	CondClient             Condition = "client"
	CondClientDownload     Condition = "client.download"
	CondClientUnauthorized Condition = "client.unauthorized"
	CondClientDisabled     Condition = "client.disabled"
	CondClientConfig       Condition = "client.config"
	CondClientPathway      Condition = "client.pathway"
	CondClientCanceled     Condition = "client.canceled"

	CondUnknown Condition = "unknown"
)

// Entry is the static policy for one condition.
type Entry struct {
	Category          failure.Category
	Severity          failure.Severity
	CanRetry          bool
	FallbackAvailable bool
	UserMessage       string
	Suggestions       []string
}

const tryBelow = "Please try the suggestions below."

var taxonomy = map[Condition]Entry{
	CondNetwork: {
		Category: failure.CategoryNetwork, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "Connection failed. " + tryBelow,
		Suggestions: []string{
			"Check your internet connection",
			"Try refreshing the page",
			"Use the local PDF generation",
			"Try again in a few minutes",
		},
	},
	CondNetworkTimeout: {
		Category: failure.CategoryNetwork, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "Request timed out. " + tryBelow,
		Suggestions: []string{
			"Check your internet connection",
			"Try again in a few moments",
			"Use the local PDF generation as backup",
			"Contact support if the issue persists",
		},
	},
	CondNetworkRefused: {
		Category: failure.CategoryNetwork, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "Cannot connect to the server. " + tryBelow,
		Suggestions: []string{
			"Verify the document service is running",
			"Check if the server URL is correct",
			"Try the local PDF generation instead",
			"Contact your system administrator",
		},
	},
	CondNetworkDNS: {
		Category: failure.CategoryNetwork, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "Cannot resolve the document service address. " + tryBelow,
		Suggestions: []string{
			"Check if the server URL is correct",
			"Check your DNS and network settings",
			"Try the local PDF generation instead",
		},
	},
	CondNetworkTLS: {
		Category: failure.CategoryNetwork, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "A secure connection to the document service could not be established. " + tryBelow,
		Suggestions: []string{
			"Check the server certificate and system clock",
			"Verify the server URL uses the expected scheme",
			"Try the local PDF generation instead",
		},
	},
	CondNetworkOffline: {
		Category: failure.CategoryNetwork, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "You appear to be offline. " + tryBelow,
		Suggestions: []string{
			"Check your internet connection",
			"Use the local PDF generation, it works offline",
			"Try again when the connection is back",
		},
	},
	CondNetworkNotFound: {
		Category: failure.CategoryNetwork, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "The document service endpoint was not found. " + tryBelow,
		Suggestions: []string{
			"Check if the server URL is correct",
			"Verify the document service version",
			"Try the local PDF generation instead",
		},
	},
	CondMaxRetries: {
		Category: failure.CategoryNetwork, Severity: failure.SeverityHigh,
		CanRetry: true, FallbackAvailable: true,
		Suggestions: []string{
			"Multiple attempts failed",
			"Check your internet connection",
			"Try the local PDF generation",
			"Contact support if this continues",
		},
	},
	CondValidation: {
		Category: failure.CategoryValidation, Severity: failure.SeverityMedium,
		CanRetry: false, FallbackAvailable: false,
		UserMessage: "Please check the form data.",
		Suggestions: []string{
			"Review all required fields",
			"Check date formats and ranges",
			"Verify email addresses are valid",
			"Ensure phone numbers are in correct format",
			"Make sure all required information is provided",
		},
	},
	CondServer: {
		Category: failure.CategoryServer, Severity: failure.SeverityHigh,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "Server error occurred. " + tryBelow,
		Suggestions: []string{
			"Try again later",
			"Use the local PDF generation",
			"Contact support if needed",
		},
	},
	CondServerInternal: {
		Category: failure.CategoryServer, Severity: failure.SeverityHigh,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "Internal server error. " + tryBelow,
		Suggestions: []string{
			"Try again in a few minutes",
			"Use the local PDF generation",
			"Contact support if the issue continues",
		},
	},
	CondServerBadGateway: {
		Category: failure.CategoryServer, Severity: failure.SeverityHigh,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "Bad gateway. " + tryBelow,
		Suggestions: []string{
			"Server connection issue",
			"Try again shortly",
			"Use the local PDF generation",
		},
	},
	CondServerUnavailable: {
		Category: failure.CategoryServer, Severity: failure.SeverityHigh,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "Service temporarily unavailable. " + tryBelow,
		Suggestions: []string{
			"The server is temporarily down",
			"Try again in a few minutes",
			"Use the local PDF generation",
		},
	},
	CondServerGwTimeout: {
		Category: failure.CategoryServer, Severity: failure.SeverityHigh,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "Gateway timeout. " + tryBelow,
		Suggestions: []string{
			"The server took too long to respond",
			"Try again shortly",
			"Use the local PDF generation",
		},
	},
	CondServerRateLimited: {
		Category: failure.CategoryServer, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "Too many requests. " + tryBelow,
		Suggestions: []string{
			"Wait a moment before trying again",
			"Use the local PDF generation",
		},
	},
	CondTimeout: {
		Category: failure.CategoryTimeout, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "The operation took too long. " + tryBelow,
		Suggestions: []string{
			"Try again in a few moments",
			"Reduce the number of days or images in the itinerary",
			"Use the local PDF generation",
		},
	},
	CondClient: {
		Category: failure.CategoryClient, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "An unexpected error occurred. " + tryBelow,
		Suggestions: []string{
			"Try refreshing the page",
			"Clear the local cache and try again",
			"Use the local PDF generation",
			"Contact support if the issue persists",
		},
	},
	CondClientDownload: {
		Category: failure.CategoryClient, Severity: failure.SeverityMedium,
		CanRetry: false, FallbackAvailable: true,
		Suggestions: []string{
			"PDF generation succeeded but download failed",
			"Check permissions of the output directory",
			"Ensure there is enough free disk space",
			"Try again with a different output path",
		},
	},
	CondClientUnauthorized: {
		Category: failure.CategoryClient, Severity: failure.SeverityHigh,
		CanRetry: false, FallbackAvailable: true,
		UserMessage: "The document service rejected the credentials. " + tryBelow,
		Suggestions: []string{
			"Check the configured client identifier",
			"Use the local PDF generation",
			"Contact your system administrator",
		},
	},
	CondClientDisabled: {
		Category: failure.CategoryClient, Severity: failure.SeverityMedium,
		CanRetry: false, FallbackAvailable: true,
		Suggestions: []string{
			"Remote PDF generation is disabled",
			"Use the local PDF generation",
		},
	},
	CondClientConfig: {
		Category: failure.CategoryClient, Severity: failure.SeverityCritical,
		CanRetry: false, FallbackAvailable: true,
		Suggestions: []string{
			"The document service is misconfigured",
			"Use the local PDF generation",
			"Contact your system administrator",
		},
	},
	CondClientPathway: {
		Category: failure.CategoryClient, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		Suggestions: []string{
			"Try again in a moment",
			"Use the local PDF generation",
			"Contact support if needed",
		},
	},
	CondClientCanceled: {
		Category: failure.CategoryClient, Severity: failure.SeverityLow,
		CanRetry: false, FallbackAvailable: false,
		UserMessage: "The request was cancelled before it completed.",
		Suggestions: []string{
			"Start the generation again when ready",
		},
	},
	CondUnknown: {
		Category: failure.CategoryUnknown, Severity: failure.SeverityMedium,
		CanRetry: true, FallbackAvailable: true,
		UserMessage: "An unexpected error occurred. " + tryBelow,
		Suggestions: []string{
			"Try refreshing the page",
			"Use the local PDF generation",
			"Contact support with details of what you were doing",
		},
	},
}

// Lookup returns a copy of the taxonomy row for c. Unknown conditions map
// to the UNKNOWN row.
func Lookup(c Condition) Entry {
	e, ok := taxonomy[c]
	if !ok {
		e = taxonomy[CondUnknown]
	}
	e.Suggestions = slices.Clone(e.Suggestions)
	return e
}

// info builds an Info from a taxonomy row. An empty userMessage on the row
// means the caller supplies one.
func (e Entry) info(message, userMessage string) failure.Info {
	if e.UserMessage != "" && userMessage == "" {
		userMessage = e.UserMessage
	}
	return failure.Info{
		Category:          e.Category,
		Severity:          e.Severity,
		Message:           message,
		UserMessage:       userMessage,
		Suggestions:       e.Suggestions,
		CanRetry:          e.CanRetry,
		FallbackAvailable: e.FallbackAvailable,
	}
}

func serverCondition(status int) Condition {
	switch status {
	case 500:
		return CondServerInternal
	case 502:
		return CondServerBadGateway
	case 503:
		return CondServerUnavailable
	case 504:
		return CondServerGwTimeout
	case 429:
		return CondServerRateLimited
	default:
		return CondServer
	}
}

func networkCondition(kind failure.NetworkKind) Condition {
	switch kind {
	case failure.NetworkTimeout:
		return CondNetworkTimeout
	case failure.NetworkRefused:
		return CondNetworkRefused
	case failure.NetworkDNS:
		return CondNetworkDNS
	case failure.NetworkTLS:
		return CondNetworkTLS
	case failure.NetworkOffline:
		return CondNetworkOffline
	case failure.NetworkNotFound:
		return CondNetworkNotFound
	default:
		return CondNetwork
	}
}

func pathwayCondition(code string) Condition {
	switch code {
	case failure.CodeMaxRetriesExceeded:
		return CondMaxRetries
	case failure.CodeDownloadError:
		return CondClientDownload
	case failure.CodeUnauthorized:
		return CondClientUnauthorized
	case failure.CodeFeatureDisabled:
		return CondClientDisabled
	case failure.CodeConfiguration:
		return CondClientConfig
	default:
		return CondClientPathway
	}
}
