//go:build linux
// +build linux

package debugfs

import (
	"context"
	"log"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Mount mounts the debug filesystem at mountPoint and unmounts it when ctx
// is canceled.
func Mount(ctx context.Context, mountPoint string, state StateProvider) (unmount func(), err error) {
	root := &Root{State: state}
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			Debug: false,
		},
	}
	server, err := fs.Mount(mountPoint, root, opts)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		log.Printf("debugfs: unmounting %s", mountPoint)
		_ = server.Unmount()
	}()

	return func() { _ = server.Unmount() }, nil
}
