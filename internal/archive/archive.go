// Package archive keeps a copy of every uploaded listing file.
//
// Archived files let an operator see exactly what was submitted for a
// batch after the fact. Keys are laid out by upload date:
//
//	{prefix}/batches/2025/03/01/{batch-id}-{file-name}
package archive

import (
	"path"
	"strings"
	"time"
)

// Key builds the archive key for a batch file uploaded at t.
func Key(prefix, batchID, fileName string, t time.Time) string {
	t = t.UTC()
	name := batchID + "-" + sanitizeName(fileName)
	return path.Join(strings.Trim(prefix, "/"), "batches", t.Format("2006"), t.Format("01"), t.Format("02"), name)
}

// sanitizeName drops any directory part and replaces characters that are
// awkward in object keys.
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
