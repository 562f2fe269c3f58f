package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// Full method names
const (
	FeedServiceName               = "ocr2.v1.FeedService"
	FeedService_LatestRoundData   = "/ocr2.v1.FeedService/LatestRoundData"
	FeedService_RoundData         = "/ocr2.v1.FeedService/RoundData"
	FeedService_Description       = "/ocr2.v1.FeedService/Description"
	FeedService_AggregatorSummary = "/ocr2.v1.FeedService/AggregatorSummary"
)

// FeedRequest selects a feed.
type FeedRequest struct {
	Feed string `json:"feed"`
}

// RoundDataRequest selects one round of a feed.
type RoundDataRequest struct {
	Feed    string `json:"feed"`
	RoundID uint32 `json:"round_id"`
}

// RoundDataResponse is one stored answer.
type RoundDataResponse struct {
	Feed      string `json:"feed"`
	RoundID   uint32 `json:"round_id"`
	Answer    string `json:"answer"`
	Decimals  uint8  `json:"decimals"`
	Slot      uint64 `json:"slot"`
	Timestamp uint32 `json:"timestamp"`
}

// DescriptionResponse describes a feed.
type DescriptionResponse struct {
	Feed          string `json:"feed"`
	Description   string `json:"description"`
	Decimals      uint8  `json:"decimals"`
	Version       uint8  `json:"version"`
	LatestRoundID uint32 `json:"latest_round_id"`
}

// AggregatorRequest selects an aggregator state account.
type AggregatorRequest struct {
	State string `json:"state"`
}

// AggregatorSummaryResponse is the public configuration of an aggregator.
type AggregatorSummaryResponse struct {
	State         string `json:"state"`
	Feed          string `json:"feed"`
	ConfigDigest  string `json:"config_digest"`
	ConfigCount   uint32 `json:"config_count"`
	F             uint8  `json:"f"`
	Oracles       int    `json:"oracles"`
	LatestRoundID uint32 `json:"latest_round_id"`
	MinAnswer     string `json:"min_answer"`
	MaxAnswer     string `json:"max_answer"`
}

// FeedServiceServer is the server API for ocr2.v1.FeedService.
type FeedServiceServer interface {
	LatestRoundData(context.Context, *FeedRequest) (*RoundDataResponse, error)
	RoundData(context.Context, *RoundDataRequest) (*RoundDataResponse, error)
	Description(context.Context, *FeedRequest) (*DescriptionResponse, error)
	AggregatorSummary(context.Context, *AggregatorRequest) (*AggregatorSummaryResponse, error)
}

// RegisterFeedServiceServer registers srv on s.
func RegisterFeedServiceServer(s grpc.ServiceRegistrar, srv FeedServiceServer) {
	s.RegisterService(&FeedService_ServiceDesc, srv)
}

// unary adapts a typed handler to a grpc.MethodDesc handler.
func unary[Req any, Resp any](method string, call func(FeedServiceServer, context.Context, *Req) (*Resp, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FeedServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(FeedServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FeedService_ServiceDesc is the grpc.ServiceDesc for ocr2.v1.FeedService.
var FeedService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: FeedServiceName,
	HandlerType: (*FeedServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "LatestRoundData",
			Handler:    unary(FeedService_LatestRoundData, FeedServiceServer.LatestRoundData),
		},
		{
			MethodName: "RoundData",
			Handler:    unary(FeedService_RoundData, FeedServiceServer.RoundData),
		},
		{
			MethodName: "Description",
			Handler:    unary(FeedService_Description, FeedServiceServer.Description),
		},
		{
			MethodName: "AggregatorSummary",
			Handler:    unary(FeedService_AggregatorSummary, FeedServiceServer.AggregatorSummary),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ocr2/v1/feed",
}

// FeedServiceClient calls ocr2.v1.FeedService with the JSON codec.
type FeedServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewFeedServiceClient wraps a client connection.
func NewFeedServiceClient(cc grpc.ClientConnInterface) *FeedServiceClient {
	return &FeedServiceClient{cc: cc}
}

func (c *FeedServiceClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *FeedServiceClient) LatestRoundData(ctx context.Context, in *FeedRequest, opts ...grpc.CallOption) (*RoundDataResponse, error) {
	out := new(RoundDataResponse)
	if err := c.invoke(ctx, FeedService_LatestRoundData, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FeedServiceClient) RoundData(ctx context.Context, in *RoundDataRequest, opts ...grpc.CallOption) (*RoundDataResponse, error) {
	out := new(RoundDataResponse)
	if err := c.invoke(ctx, FeedService_RoundData, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FeedServiceClient) Description(ctx context.Context, in *FeedRequest, opts ...grpc.CallOption) (*DescriptionResponse, error) {
	out := new(DescriptionResponse)
	if err := c.invoke(ctx, FeedService_Description, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FeedServiceClient) AggregatorSummary(ctx context.Context, in *AggregatorRequest, opts ...grpc.CallOption) (*AggregatorSummaryResponse, error) {
	out := new(AggregatorSummaryResponse)
	if err := c.invoke(ctx, FeedService_AggregatorSummary, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
