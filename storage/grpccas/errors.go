package grpccas

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/pqasn/storage"
)

// codeTable pairs each storage sentinel with the status code it travels as.
var codeTable = []struct {
	err  error
	code codes.Code
}{
	{storage.ErrNotFound, codes.NotFound},
	{storage.ErrInvalidCID, codes.InvalidArgument},
	{storage.ErrCIDMismatch, codes.DataLoss},
	{storage.ErrImmutable, codes.AlreadyExists},
	{storage.ErrNotCanonical, codes.FailedPrecondition},
	{storage.ErrNoBackends, codes.Unavailable},
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	for _, e := range codeTable {
		if errors.Is(err, e.err) {
			return status.Error(e.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// fromStatus restores the storage sentinel a server encoded. The server's
// message is kept as context when it adds detail beyond the sentinel text.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	for _, e := range codeTable {
		if st.Code() != e.code {
			continue
		}
		if msg := st.Message(); msg != e.err.Error() {
			return &remoteError{sentinel: e.err, msg: msg}
		}
		return e.err
	}
	return err
}

type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return "grpccas: remote: " + e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }
