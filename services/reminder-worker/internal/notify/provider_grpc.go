//go:build protogen

package notify

import (
	"context"
	"time"

	"github.com/agendafacil/agendafacil/libs/grpcx"
	notifierv1 "github.com/agendafacil/agendafacil/protos/gen/notifier/v1"
)

// grpcSender delivers through a self-hosted message-gateway gRPC service.
// Requires generated stubs (make proto); default builds fall back to the
// webhook or noop sender.
type grpcSender struct {
	client notifierv1.NotifierServiceClient
}

func NewGRPCSender(addr string) (Sender, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcSender{client: notifierv1.NewNotifierServiceClient(conn)}, nil
}

func (s *grpcSender) ProviderID() string {
	return "grpc-gateway"
}

func (s *grpcSender) Send(ctx context.Context, phone string, message string) error {
	_, err := s.client.SendMessage(ctx, &notifierv1.SendMessageRequest{
		Phone: phone,
		Body:  message,
	})
	return err
}
