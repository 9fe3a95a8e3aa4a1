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

// Root is the mount point's single directory, holding state.json and
// current.txt as its only two entries.
type Root struct {
	fs.Inode
	State StateProvider
}

var _ fs.NodeLookuper = (*Root)(nil)

func (r *Root) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	switch name {
	case "state.json":
		node := &liveFileNode{Root: r, render: r.renderStateJSON}
		ch := r.NewInode(ctx, node, fs.StableAttr{Mode: fuse.S_IFREG, Ino: inoFromString("debugfs:state.json")})
		out.Mode = fuse.S_IFREG | 0444
		out.SetEntryTimeout(0)
		out.SetAttrTimeout(0)
		return ch, 0
	case "current.txt":
		node := &liveFileNode{Root: r, render: r.renderCurrentTxt}
		ch := r.NewInode(ctx, node, fs.StableAttr{Mode: fuse.S_IFREG, Ino: inoFromString("debugfs:current.txt")})
		out.Mode = fuse.S_IFREG | 0444
		out.SetEntryTimeout(0)
		out.SetAttrTimeout(0)
		return ch, 0
	default:
		return nil, syscall.ENOENT
	}
}

func (r *Root) renderStateJSON() []byte {
	loaded, segmentCount, lastShownIndex := r.State.Status()
	return stateJSON(loaded, segmentCount, lastShownIndex, time.Now())
}

func (r *Root) renderCurrentTxt() []byte {
	lines := r.State.CurrentLines()
	if len(lines) == 0 {
		return nil
	}
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return []byte(out + "\n")
}
