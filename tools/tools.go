//go:build tools

// Package tools pins the protobuf code generators used by the gRPC
// notifier provider (protogen build tag).
package tools

import (
	_ "google.golang.org/grpc/cmd/protoc-gen-go-grpc"
	_ "google.golang.org/protobuf/cmd/protoc-gen-go"
)
