package api

import (
	"context"
	"errors"
	"net/http"

	"blinklean/internal/domain"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errRateLimited = domain.ConflictError{Msg: "rate limit exceeded", Retryable: true, Throttled: true}

const msgInternal = "internal server error"

// httpStatus maps a service error to a status code and a client-safe message.
func httpStatus(err error) (int, string) {
	var (
		ns domain.NotServiceableError
		ve domain.ValidationError
		nf domain.NotFoundError
		ue domain.UnauthorizedError
		ce domain.ConflictError
		up domain.UpstreamError
		ie domain.IntegrityError
	)
	switch {
	case errors.As(err, &ns):
		return http.StatusBadRequest, ns.Error()
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &nf):
		return http.StatusNotFound, nf.Error()
	case errors.As(err, &ue):
		if ue.Forbidden {
			return http.StatusForbidden, ue.Error()
		}
		return http.StatusUnauthorized, ue.Error()
	case errors.As(err, &ce):
		if ce.Throttled {
			return http.StatusTooManyRequests, ce.Error()
		}
		return http.StatusConflict, ce.Error()
	case errors.As(err, &up):
		return http.StatusBadGateway, upstreamMessage(up)
	case errors.As(err, &ie):
		return http.StatusBadRequest, ie.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func upstreamMessage(e domain.UpstreamError) string {
	if e.Msg != "" {
		return e.Msg
	}
	return "upstream service unavailable"
}

// toStatus maps a service error to a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		ns domain.NotServiceableError
		ve domain.ValidationError
		nf domain.NotFoundError
		ue domain.UnauthorizedError
		ce domain.ConflictError
		up domain.UpstreamError
		ie domain.IntegrityError
	)
	switch {
	case errors.As(err, &ns):
		return status.Error(codes.InvalidArgument, ns.Error())
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.As(err, &nf):
		return status.Error(codes.NotFound, nf.Error())
	case errors.As(err, &ue):
		if ue.Forbidden {
			return status.Error(codes.PermissionDenied, ue.Error())
		}
		return status.Error(codes.Unauthenticated, ue.Error())
	case errors.As(err, &ce):
		if ce.Throttled {
			return status.Error(codes.ResourceExhausted, ce.Error())
		}
		return status.Error(codes.AlreadyExists, ce.Error())
	case errors.As(err, &up):
		return status.Error(codes.Unavailable, upstreamMessage(up))
	case errors.As(err, &ie):
		return status.Error(codes.InvalidArgument, ie.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	default:
		return status.Error(codes.Internal, msgInternal)
	}
}
