package practice

import (
	"context"
	"encoding/json"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/rpc"
)

// RegisterRPC exposes the engine operations on srv for internal callers
// such as a transcription worker.
func RegisterRPC(srv *rpc.Server, svc *Service) {
	srv.Register(proto.MethodScore, func(ctx context.Context, params json.RawMessage) (any, error) {
		var req proto.ScoreRequest
		if err := rpc.Decode(params, &req); err != nil {
			return nil, err
		}
		res, err := svc.Score(ctx, TextPair{Target: req.Target, Candidate: req.Candidate})
		if err != nil {
			return nil, err
		}
		return proto.ScoreResponse{Score: res.Score}, nil
	})

	srv.Register(proto.MethodAlign, func(ctx context.Context, params json.RawMessage) (any, error) {
		var req proto.AlignRequest
		if err := rpc.Decode(params, &req); err != nil {
			return nil, err
		}
		res, err := svc.Align(ctx, TextPair{Target: req.Target, Candidate: req.Candidate})
		if err != nil {
			return nil, err
		}
		words := make([]proto.WordResult, len(res.Words))
		for i, e := range res.Words {
			words[i] = proto.WordResult{Status: e.Status.String(), Word: e.Word, Reference: e.Reference}
		}
		return proto.AlignResponse{Words: words, Missing: res.Summary.Missing}, nil
	})

	srv.Register(proto.MethodDistance, func(ctx context.Context, params json.RawMessage) (any, error) {
		var req proto.DistanceRequest
		if err := rpc.Decode(params, &req); err != nil {
			return nil, err
		}
		d, err := svc.Distance(ctx, req.A, req.B, req.Unit)
		if err != nil {
			return nil, err
		}
		return proto.DistanceResponse{Distance: d}, nil
	})
}
