//go:build linux
// +build linux

package debugfs

import (
	"context"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// liveFileNode is a read-only virtual file whose content is recomputed from
// render on every Getattr/Read, so a `cat` mid-session always sees the
// current scheduler state rather than a value captured at mount time.
type liveFileNode struct {
	fs.Inode
	Root   *Root
	render func() []byte
}

var _ fs.NodeGetattrer = (*liveFileNode)(nil)
var _ fs.NodeOpener = (*liveFileNode)(nil)
var _ fs.NodeReader = (*liveFileNode)(nil)

func (n *liveFileNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Size = uint64(len(n.render()))
	out.Mode = fuse.S_IFREG | 0444
	out.SetTimes(nil, &time.Time{}, nil)
	return 0
}

func (n *liveFileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	// Rendered fresh on every open; force direct I/O so the kernel page
	// cache never serves a stale reading from a prior open.
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *liveFileNode) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	content := n.render()
	if off >= int64(len(content)) {
		return fuse.ReadResultData(dest[:0]), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(content)) {
		end = int64(len(content))
	}
	n2 := copy(dest, content[off:end])
	return fuse.ReadResultData(dest[:n2]), 0
}
