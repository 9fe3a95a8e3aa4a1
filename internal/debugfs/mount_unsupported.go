//go:build !linux
// +build !linux

package debugfs

import (
	"context"
	"fmt"
)

// Mount is unavailable on non-Linux builds because the debug filesystem
// depends on go-fuse.
func Mount(_ context.Context, mountPoint string, state StateProvider) (func(), error) {
	return nil, fmt.Errorf("debugfs mount is only supported on linux builds")
}
