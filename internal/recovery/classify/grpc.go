package classify

import (
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/vietddude/itinerary/internal/recovery/failure"
)

// grpcStatus extracts a gRPC status only when err really carries one.
func grpcStatus(err error) (*status.Status, bool) {
	st, ok := status.FromError(err)
	if !ok || st == nil || st.Code() == codes.OK || st.Code() == codes.Unknown {
		return nil, false
	}
	return st, true
}

// classifyStatus maps a gRPC status onto the taxonomy.
func classifyStatus(st *status.Status) failure.Info {
	msg := st.Message()
	var info failure.Info

	switch st.Code() {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		fields := statusFieldErrors(st)
		info = validationInfo(msg, fields)
	case codes.Unavailable:
		info = Lookup(CondNetworkRefused).info(msg, "")
	case codes.DeadlineExceeded:
		info = Lookup(CondTimeout).info(msg, "")
	case codes.ResourceExhausted:
		info = Lookup(CondServerRateLimited).info(msg, "")
	case codes.Unauthenticated, codes.PermissionDenied:
		info = Lookup(CondClientUnauthorized).info(msg, "")
	case codes.NotFound, codes.Unimplemented:
		info = Lookup(CondNetworkNotFound).info(msg, "")
	case codes.Canceled:
		info = Lookup(CondClient).info(msg, "")
	default:
		info = Lookup(CondServer).info(msg, "")
	}

	info.ErrorCode = st.Code().String()
	info.TechnicalDetails = statusDetails(st)
	return info
}

func statusFieldErrors(st *status.Status) []failure.FieldError {
	var fields []failure.FieldError
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		for _, v := range br.GetFieldViolations() {
			fields = append(fields, failure.FieldError{Field: v.GetField(), Message: v.GetDescription()})
		}
	}
	return fields
}

func statusDetails(st *status.Status) string {
	b, err := protojson.Marshal(st.Proto())
	if err != nil {
		return "grpc " + strings.ToLower(st.Code().String()) + ": " + st.Message()
	}
	return string(b)
}
