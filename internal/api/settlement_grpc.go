package api

import (
	"context"

	"blinklean/internal/models"
	"blinklean/internal/service"

	"google.golang.org/grpc"
)

const (
	settlementServiceName = "blinklean.settlement.v1.SettlementService"

	methodCheckEligibility = "/" + settlementServiceName + "/CheckEligibility"
	methodEstimateValue    = "/" + settlementServiceName + "/EstimateValue"
	methodCreateOrder      = "/" + settlementServiceName + "/CreateOrder"
	methodVerifyPayment    = "/" + settlementServiceName + "/VerifyPayment"
)

type CheckEligibilityRequest struct {
	Pincode   string   `json:"pincode"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type EstimateValueRequest struct {
	Items []models.MaterialLine `json:"items"`
}

type CreateOrderRequest struct {
	BookingID int64 `json:"booking_id"`
}

// SettlementServer is the server API of the settlement service.
type SettlementServer interface {
	CheckEligibility(context.Context, *CheckEligibilityRequest) (*models.Eligibility, error)
	EstimateValue(context.Context, *EstimateValueRequest) (*ValuationResponse, error)
	CreateOrder(context.Context, *CreateOrderRequest) (*models.OrderResult, error)
	VerifyPayment(context.Context, *models.PaymentCallback) (*service.VerifyResult, error)
}

func RegisterSettlementServer(s grpc.ServiceRegistrar, srv SettlementServer) {
	s.RegisterService(&settlementServiceDesc, srv)
}

var settlementServiceDesc = grpc.ServiceDesc{
	ServiceName: settlementServiceName,
	HandlerType: (*SettlementServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckEligibility", Handler: checkEligibilityHandler},
		{MethodName: "EstimateValue", Handler: estimateValueHandler},
		{MethodName: "CreateOrder", Handler: createOrderHandler},
		{MethodName: "VerifyPayment", Handler: verifyPaymentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blinklean/settlement/v1",
}

func checkEligibilityHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckEligibilityRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SettlementServer).CheckEligibility(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCheckEligibility}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SettlementServer).CheckEligibility(ctx, req.(*CheckEligibilityRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func estimateValueHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(EstimateValueRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SettlementServer).EstimateValue(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodEstimateValue}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SettlementServer).EstimateValue(ctx, req.(*EstimateValueRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func createOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SettlementServer).CreateOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCreateOrder}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SettlementServer).CreateOrder(ctx, req.(*CreateOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func verifyPaymentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.PaymentCallback)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SettlementServer).VerifyPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodVerifyPayment}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SettlementServer).VerifyPayment(ctx, req.(*models.PaymentCallback))
	}
	return interceptor(ctx, in, info, handler)
}

// SettlementClient calls the settlement service over a JSON-coded connection.
type SettlementClient struct {
	cc grpc.ClientConnInterface
}

func NewSettlementClient(cc grpc.ClientConnInterface) *SettlementClient {
	return &SettlementClient{cc: cc}
}

func (c *SettlementClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(jsonCodec{})}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *SettlementClient) CheckEligibility(ctx context.Context, in *CheckEligibilityRequest, opts ...grpc.CallOption) (*models.Eligibility, error) {
	out := new(models.Eligibility)
	if err := c.invoke(ctx, methodCheckEligibility, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SettlementClient) EstimateValue(ctx context.Context, in *EstimateValueRequest, opts ...grpc.CallOption) (*ValuationResponse, error) {
	out := new(ValuationResponse)
	if err := c.invoke(ctx, methodEstimateValue, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SettlementClient) CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*models.OrderResult, error) {
	out := new(models.OrderResult)
	if err := c.invoke(ctx, methodCreateOrder, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SettlementClient) VerifyPayment(ctx context.Context, in *models.PaymentCallback, opts ...grpc.CallOption) (*service.VerifyResult, error) {
	out := new(service.VerifyResult)
	if err := c.invoke(ctx, methodVerifyPayment, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
