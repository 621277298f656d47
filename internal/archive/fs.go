package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/visadir/internal/core"
)

// FSArchiver writes archived files under a local directory.
type FSArchiver struct {
	root   string
	prefix string
	now    func() time.Time
}

var _ core.Archiver = (*FSArchiver)(nil)

// NewFSArchiver archives under root/prefix.
func NewFSArchiver(root, prefix string) *FSArchiver {
	return &FSArchiver{root: root, prefix: prefix, now: time.Now}
}

// Archive writes data and returns the file path.
func (a *FSArchiver) Archive(ctx context.Context, batchID, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p := filepath.Join(a.root, filepath.FromSlash(Key(a.prefix, batchID, fileName, a.now())))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	return p, nil
}
