package grpccas

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/pqasn/cidutil"
	"xdao.co/pqasn/storage"
)

// Server exposes a storage.CAS as the Archive service. Wrap the store in
// storage.Canonical to refuse non-canonical messages at the edge.
type Server struct {
	UnimplementedArchiveServer
	CAS storage.CAS
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.CAS == nil {
		return nil, toStatus(storage.ErrNoBackends)
	}
	id, err := s.CAS.Put(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.CAS == nil {
		return nil, toStatus(storage.ErrNoBackends)
	}
	id, err := cidutil.Parse(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	b, err := s.CAS.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	if !cidutil.Matches(id, b) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.CAS == nil {
		return nil, toStatus(storage.ErrNoBackends)
	}
	id, err := cidutil.Parse(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	ok, err := s.CAS.Has(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(ok), nil
}
