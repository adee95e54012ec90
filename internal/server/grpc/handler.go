package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/notesrpc"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	if err := s.notes.Ping(ctx); err != nil {
		return nil, status.Error(codes.Unavailable, "storage is not reachable")
	}
	return wrapperspb.String("OK"), nil
}

func (s *GRPCServer) SelectAll(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	res, err := s.notes.SelectAll(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	records := make([]notesrpc.Record, 0, len(res))
	for _, n := range res {
		records = append(records, notesrpc.Record(n))
	}
	return notesrpc.EncodeRecords(records), nil
}

func (s *GRPCServer) Insert(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	r, err := notesrpc.DecodeRecord(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.notes.Insert(ctx, models.Note(r)); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) UpdateByID(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	r, err := notesrpc.DecodeRecord(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f := models.NoteFields{Title: r.Title, Body: r.Body, ModifiedAt: r.ModifiedAt}
	if err := s.notes.UpdateByID(ctx, r.ID, r.Owner, f); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) DeleteByID(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	r, err := notesrpc.DecodeRecord(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.notes.DeleteByID(ctx, r.ID, r.Owner); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "note already exists")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "note not found")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
