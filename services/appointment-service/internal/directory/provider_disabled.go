//go:build !protogen

package directory

// NewGRPCProvider is a no-op without generated protobuf bindings; callers
// fall back to direct table reads.
func NewGRPCProvider(_ string) (Provider, error) {
	return nil, nil
}
