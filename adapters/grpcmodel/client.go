// Package grpcmodel talks to the external model service that hosts the trained
// encoder, scaler and classifier. Messages are google.protobuf.Struct values so no
// generated stubs are needed.
package grpcmodel

import (
	"context"
	"fmt"
	"time"

	"chronorate/domain/core"
	"chronorate/internal/errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names on the model service.
const (
	serviceName     = "/chronorate.model.v1.ModelService/"
	MethodStatus    = serviceName + "Status"
	MethodEncode    = serviceName + "Encode"
	MethodTransform = serviceName + "Transform"
	MethodPredict   = serviceName + "Predict"
)

// batchField carries the vectors in requests and responses.
const batchField = "batch"

// Capability names reported by Status.
const (
	CapabilityEncoder    = "encoder"
	CapabilityClassifier = "classifier"
	CapabilityScaler     = "scaler"
)

// Client wraps the gRPC connection to the model service.
type Client struct {
	conn    grpc.ClientConnInterface
	closer  func() error
	timeout time.Duration
}

// Dial connects to the model service at addr.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	c := NewClientWithConn(conn, timeout)
	c.closer = conn.Close
	return c, nil
}

// NewClientWithConn uses an existing connection. Used for testing without a real
// server.
func NewClientWithConn(conn grpc.ClientConnInterface, timeout time.Duration) *Client {
	return &Client{conn: conn, timeout: timeout}
}

// Close shuts down the connection if the client owns it.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// Status reports which capabilities the service has loaded.
func (c *Client) Status(ctx context.Context) (map[string]bool, error) {
	var resp structpb.Struct
	if err := c.invoke(ctx, MethodStatus, &emptypb.Empty{}, &resp); err != nil {
		return nil, err
	}

	loaded := make(map[string]bool, len(resp.GetFields()))
	for name, v := range resp.GetFields() {
		loaded[name] = v.GetBoolValue()
	}
	return loaded, nil
}

// Batch sends vectors to one of the batch methods and returns the result vectors.
func (c *Client) Batch(ctx context.Context, method string, batch [][]float64) ([][]float64, error) {
	var resp structpb.Struct
	if err := c.invoke(ctx, method, EncodeBatch(batch), &resp); err != nil {
		return nil, err
	}
	return DecodeBatch(&resp)
}

func (c *Client) invoke(ctx context.Context, method string, in, out proto.Message) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	err := c.conn.Invoke(ctx, method, in, out)
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.Unimplemented, codes.FailedPrecondition:
		return fmt.Errorf("%s: %w: %v", method, core.ErrModelUnavailable, err)
	default:
		return errors.ExternalServiceError("model", fmt.Errorf("%s rpc: %w", method, err))
	}
}

// EncodeBatch packs vectors as {"batch": [[...], ...]}.
func EncodeBatch(batch [][]float64) *structpb.Struct {
	rows := make([]*structpb.Value, len(batch))
	for i, row := range batch {
		values := make([]*structpb.Value, len(row))
		for j, v := range row {
			values[j] = structpb.NewNumberValue(v)
		}
		rows[i] = structpb.NewListValue(&structpb.ListValue{Values: values})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		batchField: structpb.NewListValue(&structpb.ListValue{Values: rows}),
	}}
}

// DecodeBatch is the inverse of EncodeBatch.
func DecodeBatch(s *structpb.Struct) ([][]float64, error) {
	field, ok := s.GetFields()[batchField]
	if !ok {
		return nil, fmt.Errorf("response has no %q field", batchField)
	}
	list := field.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%q is not a list", batchField)
	}

	out := make([][]float64, len(list.GetValues()))
	for i, rowValue := range list.GetValues() {
		row := rowValue.GetListValue()
		if row == nil {
			return nil, fmt.Errorf("row %d is not a list", i)
		}
		out[i] = make([]float64, len(row.GetValues()))
		for j, v := range row.GetValues() {
			if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
				return nil, fmt.Errorf("row %d column %d is not a number", i, j)
			}
			out[i][j] = v.GetNumberValue()
		}
	}
	return out, nil
}
