// Package rpc holds the connect plumbing shared by the HTTP services.
package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// ServicePrefix is the package part of every procedure name.
const ServicePrefix = "/planningpoker.v1."

// jsonCodec lets connect carry plain Go structs as JSON, so the services do
// not need generated protobuf messages.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

// JSONCodec returns the codec registered under the "json" name.
func JSONCodec() connect.Codec {
	return jsonCodec{}
}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(message any) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", message, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("unmarshal into %T: %w", message, err)
	}
	return nil
}

// HandlerOptions are applied to every handler mounted by the server.
func HandlerOptions(extra ...connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec())}, extra...)
}

// ClientOptions mirror HandlerOptions for callers and tests.
func ClientOptions(extra ...connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec())}, extra...)
}

// Procedure builds the full procedure path for service and method.
func Procedure(service, method string) string {
	return ServicePrefix + service + "/" + method
}

// UserIDHeader carries the caller identity on API requests
const UserIDHeader = "X-User-Id"
