//go:build !protogen

package notify

// NewGRPCSender is a stub without generated gRPC stubs; callers fall back to
// the webhook or noop sender when it returns nil.
func NewGRPCSender(_ string) (Sender, error) {
	return nil, nil
}
