// Package apierr classifies provider HTTP failures into domain errors
// so the services can decide what to retry.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// maxBodyLen bounds how much of an error body ends up in messages.
const maxBodyLen = 512

// FromStatus maps a non-2xx response to a classified error.
//
//	429                -> domain.ErrRateLimited
//	408, 5xx           -> domain.ErrTransient
//	401, 403           -> domain.ErrInvalidConfiguration
//	other 4xx          -> domain.ErrMalformedInput
func FromStatus(provider string, status int, body []byte) error {
	kind := kindForStatus(status)
	msg := summarise(body)
	if msg == "" {
		return fmt.Errorf("%s: %w (status %d)", provider, kind, status)
	}
	return fmt.Errorf("%s: %w (status %d): %s", provider, kind, status, msg)
}

// FromTransport classifies an error returned by http.Client.Do.
// Cancellation by the caller is passed through unclassified so it is
// never retried; everything else at the transport level is transient.
func FromTransport(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", provider, err)
	}
	return fmt.Errorf("%s: %w: %w", provider, domain.ErrTransient, err)
}

// FromGoogle classifies errors returned by Google client libraries,
// which surface either *googleapi.Error or gRPC status errors.
func FromGoogle(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", provider, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("%s: %w (status %d): %s", provider, kindForStatus(gerr.Code), gerr.Code, summarise([]byte(gerr.Message)))
	}

	if ae, ok := apierror.FromError(err); ok {
		if code := ae.HTTPCode(); code > 0 {
			return fmt.Errorf("%s: %w (status %d): %w", provider, kindForStatus(code), code, err)
		}
		if st := ae.GRPCStatus(); st != nil {
			return fmt.Errorf("%s: %w: %w", provider, kindForCode(st.Code()), err)
		}
	}

	return fmt.Errorf("%s: %w: %w", provider, domain.ErrTransient, err)
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case status == http.StatusRequestTimeout, status >= 500:
		return domain.ErrTransient
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrInvalidConfiguration
	default:
		return domain.ErrMalformedInput
	}
}

func kindForCode(code codes.Code) error {
	switch code {
	case codes.ResourceExhausted:
		return domain.ErrRateLimited
	case codes.Unauthenticated, codes.PermissionDenied:
		return domain.ErrInvalidConfiguration
	case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound, codes.OutOfRange:
		return domain.ErrMalformedInput
	default:
		return domain.ErrTransient
	}
}

func summarise(body []byte) string {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBodyLen {
		msg = msg[:maxBodyLen] + "..."
	}
	return msg
}
