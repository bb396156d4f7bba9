package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/keepsync/internal/common"
	pb "github.com/dmitrijs2005/keepsync/internal/proto"
	"github.com/dmitrijs2005/keepsync/internal/server/models"
	"github.com/dmitrijs2005/keepsync/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

func toWire(rec *models.Record) *pb.Record {
	return &pb.Record{
		Id:         rec.ClientID,
		Collection: rec.Collection,
		RemoteId:   rec.ServerID,
		Payload:    rec.Payload,
		Deleted:    rec.Deleted,
		ServerTime: rec.ServerTime,
	}
}

func (s *GRPCServer) Push(ctx context.Context, req *pb.PushRequest) (*pb.PushResponse, error) {
	r := req.GetRecord()
	rec, err := s.records.Push(ctx, &services.PushInput{
		ClientID:   r.GetId(),
		Collection: r.GetCollection(),
		RemoteID:   r.GetRemoteId(),
		Payload:    r.GetPayload(),
		Deleted:    r.GetDeleted(),
	})
	if err != nil {
		if !errors.Is(err, common.ErrValidation) {
			s.logger.Error(ctx, "push failed", "collection", r.GetCollection(), "id", r.GetId(), "error", err)
		}
		return nil, toStatus(err)
	}

	return &pb.PushResponse{ServerId: rec.ServerID, ServerTime: rec.ServerTime}, nil
}

func (s *GRPCServer) Pull(ctx context.Context, req *pb.PullRequest) (*pb.PullResponse, error) {
	page, err := s.records.Pull(ctx, req.GetCollection(), req.GetSince(), int(req.GetLimit()))
	if err != nil {
		if !errors.Is(err, common.ErrValidation) {
			s.logger.Error(ctx, "pull failed", "collection", req.GetCollection(), "error", err)
		}
		return nil, toStatus(err)
	}

	resp := &pb.PullResponse{Changes: make([]*pb.Record, 0, len(page.Changes)), HasMore: page.HasMore}
	for _, rec := range page.Changes {
		resp.Changes = append(resp.Changes, toWire(rec))
	}
	return resp, nil
}
