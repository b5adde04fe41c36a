// Package classify converts arbitrary failures into structured failure.Info
// values using the static taxonomy in this package.
package classify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/vietddude/itinerary/internal/recovery/failure"
)

type networkPattern struct {
	substr string
	kind   failure.NetworkKind
}

// Ordered; first match wins.
var networkPatterns = []networkPattern{
	{"timeout", failure.NetworkTimeout},
	{"timed out", failure.NetworkTimeout},
	{"deadline exceeded", failure.NetworkTimeout},
	{"etimedout", failure.NetworkTimeout},
	{"failed to connect", failure.NetworkRefused},
	{"connection refused", failure.NetworkRefused},
	{"econnrefused", failure.NetworkRefused},
	{"no such host", failure.NetworkDNS},
	{"enotfound", failure.NetworkDNS},
	{"tls", failure.NetworkTLS},
	{"certificate", failure.NetworkTLS},
	{"x509", failure.NetworkTLS},
	{"network is unreachable", failure.NetworkOffline},
	{"econnreset", failure.NetworkGeneric},
	{"connection reset", failure.NetworkGeneric},
	{"err_network", failure.NetworkGeneric},
	{"fetch", failure.NetworkGeneric},
	{"network", failure.NetworkGeneric},
	{"connection", failure.NetworkGeneric},
}

// MatchNetwork reports whether msg looks like a network failure and which kind.
func MatchNetwork(msg string) (failure.NetworkKind, bool) {
	lower := strings.ToLower(msg)
	for _, p := range networkPatterns {
		if strings.Contains(lower, p.substr) {
			return p.kind, true
		}
	}
	return "", false
}

// Classify converts err into a failure.Info. It never returns an Info with an
// empty user message or no suggestions.
func Classify(err error) failure.Info {
	if err == nil {
		return unknownInfo(nil)
	}
	if errors.Is(err, context.Canceled) {
		info := Lookup(CondClientCanceled).info(err.Error(), "")
		info.ErrorCode = "CANCELED"
		return info
	}

	var (
		infoErr    *failure.InfoError
		netErr     *failure.NetworkError
		validErr   *failure.ValidationError
		serverErr  *failure.ServerError
		pathwayErr *failure.PathwayError
		typedErr   *failure.TypedError
	)

	switch {
	case errors.As(err, &infoErr):
		return infoErr.Info.Clone()
	case errors.As(err, &validErr):
		return classifyValidation(validErr)
	case errors.As(err, &netErr):
		return classifyNetwork(netErr)
	case errors.As(err, &serverErr):
		return classifyServer(serverErr)
	case errors.As(err, &pathwayErr):
		return classifyPathway(pathwayErr)
	case errors.As(err, &typedErr):
		return classifyGeneric(err, typedErr.Name)
	}

	if st, ok := grpcStatus(err); ok {
		return classifyStatus(st)
	}

	if isTimeout(err) {
		info := Lookup(CondNetworkTimeout).info(err.Error(), "")
		info.ErrorCode = "NETWORK_ERROR"
		info.TechnicalDetails = err.Error()
		return info
	}

	if kind, ok := MatchNetwork(err.Error()); ok {
		info := Lookup(networkCondition(kind)).info(err.Error(), "")
		info.ErrorCode = "NETWORK_ERROR"
		info.TechnicalDetails = err.Error()
		return info
	}

	return classifyGeneric(err, "")
}

// ClassifyValue classifies any recovered value. Values that are not errors
// are UNKNOWN.
func ClassifyValue(v any) failure.Info {
	switch x := v.(type) {
	case nil:
		return unknownInfo(nil)
	case error:
		return Classify(x)
	default:
		return unknownInfo(x)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func classifyNetwork(e *failure.NetworkError) failure.Info {
	kind := e.Kind
	if kind == "" || kind == failure.NetworkGeneric {
		if k, ok := MatchNetwork(e.Error()); ok {
			kind = k
		}
	}
	info := Lookup(networkCondition(kind)).info(e.Error(), "")
	info.ErrorCode = "NETWORK_ERROR"
	if e.Err != nil {
		info.TechnicalDetails = e.Err.Error()
	}
	return info
}

func classifyValidation(e *failure.ValidationError) failure.Info {
	var fields []failure.FieldError
	if len(e.Fields) > 0 {
		fields = normalizeFields(e.Fields)
	} else {
		fields = ExtractFieldErrors(e.Error())
	}
	info := validationInfo(e.Error(), fields)
	info.ErrorCode = "VALIDATION_ERROR"
	if e.Status != 0 {
		info.TechnicalDetails = fmt.Sprintf("HTTP %d: %s", e.Status, e.Error())
	}
	return info
}

func validationInfo(message string, fields []failure.FieldError) failure.Info {
	user := ""
	if len(fields) > 0 {
		msgs := make([]string, len(fields))
		for i, f := range fields {
			msgs[i] = f.Message
		}
		user = "Please fix the following issues: " + strings.Join(msgs, ", ")
	}
	info := Lookup(CondValidation).info(message, user)
	info.FieldErrors = fields
	return info
}

func classifyServer(e *failure.ServerError) failure.Info {
	info := Lookup(serverCondition(e.Status)).info(e.Error(), "")
	info.ErrorCode = "SERVER_ERROR"
	if e.Status != 0 {
		info.TechnicalDetails = fmt.Sprintf("HTTP %d: %s", e.Status, e.Error())
	} else if e.Err != nil {
		info.TechnicalDetails = e.Err.Error()
	}
	return info
}

func classifyPathway(e *failure.PathwayError) failure.Info {
	msg := e.Message
	if msg == "" {
		msg = e.Error()
	}
	info := Lookup(pathwayCondition(e.Code)).info(msg, msg)
	info.ErrorCode = e.Code
	if e.Err != nil {
		info.TechnicalDetails = e.Err.Error()
	}
	return info
}

func classifyGeneric(err error, name string) failure.Info {
	info := Lookup(CondClient).info(err.Error(), "")
	switch name {
	case failure.TypeError:
		info.Suggestions = append([]string{"This appears to be a data processing error"}, info.Suggestions...)
	case failure.ReferenceError:
		info.Suggestions = append([]string{"This appears to be a code execution error"}, info.Suggestions...)
	}
	if name != "" {
		info.TechnicalDetails = err.Error()
		return info
	}
	typ := fmt.Sprintf("%T", errors.Unwrap(err))
	if typ == "<nil>" {
		typ = fmt.Sprintf("%T", err)
	}
	info.TechnicalDetails = typ + ": " + err.Error()
	return info
}

func unknownInfo(v any) failure.Info {
	info := Lookup(CondUnknown).info("Unknown error occurred", "")
	if v != nil {
		info.TechnicalDetails = fmt.Sprint(v)
	}
	return info
}
