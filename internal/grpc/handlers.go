package grpc

import (
	"context"
	"encoding/hex"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	"github.com/LeJamon/goOCR2/internal/core/tx/store"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

// feedService implements FeedServiceServer over committed state.
type feedService struct {
	view tx.AccountReader
}

func parseAddress(field, value string) (types.Address, error) {
	if value == "" {
		return types.Address{}, status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	addr, err := types.ParseAddress(value)
	if err != nil {
		return types.Address{}, status.Errorf(codes.InvalidArgument, "invalid %s: %v", field, err)
	}
	return addr, nil
}

// statusError maps read errors to gRPC codes.
func statusError(err error) error {
	switch {
	case errors.Is(err, tx.ErrNotFound), errors.Is(err, store.ErrRoundNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *feedService) feed(value string) (types.Address, *store.Feed, error) {
	addr, err := parseAddress("feed", value)
	if err != nil {
		return addr, nil, err
	}
	f, err := store.ReadFeed(s.view, addr)
	if err != nil {
		return addr, nil, statusError(err)
	}
	return addr, f, nil
}

func roundResponse(addr types.Address, f *store.Feed, r store.Round) *RoundDataResponse {
	return &RoundDataResponse{
		Feed:      addr.String(),
		RoundID:   r.RoundID,
		Answer:    r.Answer.String(),
		Decimals:  f.Decimals,
		Slot:      r.Slot,
		Timestamp: r.Timestamp,
	}
}

// LatestRoundData returns the most recent answer of a feed.
func (s *feedService) LatestRoundData(ctx context.Context, req *FeedRequest) (*RoundDataResponse, error) {
	addr, f, err := s.feed(req.Feed)
	if err != nil {
		return nil, err
	}
	r, err := f.Latest()
	if err != nil {
		return nil, statusError(err)
	}
	return roundResponse(addr, f, r), nil
}

// RoundData returns a round still inside the live window.
func (s *feedService) RoundData(ctx context.Context, req *RoundDataRequest) (*RoundDataResponse, error) {
	addr, f, err := s.feed(req.Feed)
	if err != nil {
		return nil, err
	}
	r, err := f.Round(req.RoundID)
	if err != nil {
		return nil, statusError(err)
	}
	return roundResponse(addr, f, r), nil
}

// Description returns the feed's description and decimals.
func (s *feedService) Description(ctx context.Context, req *FeedRequest) (*DescriptionResponse, error) {
	addr, f, err := s.feed(req.Feed)
	if err != nil {
		return nil, err
	}
	return &DescriptionResponse{
		Feed:          addr.String(),
		Description:   f.Description,
		Decimals:      f.Decimals,
		Version:       store.FeedVersion,
		LatestRoundID: f.LatestRoundID,
	}, nil
}

// AggregatorSummary returns the active configuration of an aggregator.
func (s *feedService) AggregatorSummary(ctx context.Context, req *AggregatorRequest) (*AggregatorSummaryResponse, error) {
	addr, err := parseAddress("state", req.State)
	if err != nil {
		return nil, err
	}
	st, err := ocr2.ReadState(s.view, addr)
	if err != nil {
		return nil, statusError(err)
	}
	return &AggregatorSummaryResponse{
		State:         addr.String(),
		Feed:          st.Feed.String(),
		ConfigDigest:  hex.EncodeToString(st.Config.LatestConfigDigest[:]),
		ConfigCount:   st.Config.ConfigCount,
		F:             st.Config.F,
		Oracles:       len(st.Oracles),
		LatestRoundID: st.Config.LatestAggregatorRoundID,
		MinAnswer:     st.Config.MinAnswer.String(),
		MaxAnswer:     st.Config.MaxAnswer.String(),
	}, nil
}
