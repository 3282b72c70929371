package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rl1809/inventory-service/internal/core/service"
	"github.com/rl1809/inventory-service/internal/logger"
	"github.com/rl1809/inventory-service/internal/port"
)

const InventoryServiceName = "inventory.v1.InventoryService"

// InventoryServer carries items as google.protobuf.Struct so the service needs
// no generated stubs. Field names match the HTTP JSON body.
type InventoryServer interface {
	CreateItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: InventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateItem", Handler: unaryHandler("CreateItem", InventoryServer.CreateItem)},
		{MethodName: "GetItem", Handler: unaryHandler("GetItem", InventoryServer.GetItem)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/inventory.proto",
}

func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

type unaryMethod func(InventoryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, method unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + InventoryServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(InventoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return method(srv.(InventoryServer), ctx, req.(*structpb.Struct))
		})
	}
}

type GRPCHandler struct {
	items    *service.ItemService
	validate *validator.Validate
}

func NewGRPCHandler(items *service.ItemService) *GRPCHandler {
	return &GRPCHandler{items: items, validate: newValidator()}
}

func (h *GRPCHandler) CreateItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := protojson.Marshal(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	var body ItemRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := h.validate.Struct(body); err != nil {
		return nil, validationStatus(err)
	}

	item, err := h.items.CreateItem(ctx, body.Fields())
	if err != nil {
		return nil, grpcError(err, "")
	}
	return toStruct(newItemResponse(*item))
}

func (h *GRPCHandler) GetItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "Enter ID")
	}

	item, err := h.items.GetItem(ctx, id)
	if err != nil {
		return nil, grpcError(err, id)
	}
	return toStruct(newItemResponse(*item))
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func validationStatus(err error) error {
	details := fieldErrors(err)
	if details == nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	msgs := make([]string, 0, len(details))
	for _, d := range details {
		msgs = append(msgs, d.Message)
	}
	return status.Error(codes.InvalidArgument, strings.Join(msgs, "; "))
}

func grpcError(err error, id string) error {
	switch {
	case errors.Is(err, service.ErrIDAllocationExhausted):
		return status.Error(codes.ResourceExhausted, "Failed to generate unique ID after multiple attempts.")
	case errors.Is(err, port.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, "store unavailable")
	case errors.Is(err, port.ErrNotFound):
		return status.Error(codes.NotFound, fmt.Sprintf("Item with ID %s not found", id))
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// UnaryLoggingInterceptor mirrors the HTTP request logger for gRPC calls.
func UnaryLoggingInterceptor(l *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()

		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(strings.ToLower(logger.RequestIDHeader)); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		reqLogger := l.With(zap.String("request_id", requestID), zap.String("method", info.FullMethod))
		resp, err := next(logger.WithContext(ctx, reqLogger), req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		switch code {
		case codes.OK:
			reqLogger.Info("gRPC Request", fields...)
		case codes.Internal, codes.Unavailable, codes.ResourceExhausted:
			reqLogger.Error("gRPC Request", append(fields, zap.Error(err))...)
		default:
			reqLogger.Warn("gRPC Request", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}

// NewGRPCServer registers the inventory and health services. The health
// server starts out SERVING for both the overall and the inventory service.
func NewGRPCServer(h *GRPCHandler, l *zap.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryLoggingInterceptor(l)))
	RegisterInventoryServer(srv, h)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(InventoryServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}
