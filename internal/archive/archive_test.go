package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var fixedTime = time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)

func TestKey(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"uploads", "listings.tsv", "uploads/batches/2025/03/01/b1-listings.tsv"},
		{"/uploads/", "listings.tsv", "uploads/batches/2025/03/01/b1-listings.tsv"},
		{"", "listings.tsv", "batches/2025/03/01/b1-listings.tsv"},
		{"uploads", "../../etc/passwd", "uploads/batches/2025/03/01/b1-passwd"},
		{"uploads", `C:\Users\ops\my list.tsv`, "uploads/batches/2025/03/01/b1-my_list.tsv"},
		{"uploads", "", "uploads/batches/2025/03/01/b1-upload"},
	}
	for _, tt := range tests {
		if got := Key(tt.prefix, "b1", tt.name, fixedTime); got != tt.want {
			t.Errorf("Key(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestFSArchiver(t *testing.T) {
	root := t.TempDir()
	a := NewFSArchiver(root, "uploads")
	a.now = func() time.Time { return fixedTime }

	loc, err := a.Archive(context.Background(), "b1", "listings.tsv", []byte("Business Name *\n"))
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	want := filepath.Join(root, "uploads", "batches", "2025", "03", "01", "b1-listings.tsv")
	if loc != want {
		t.Errorf("location = %q, want %q", loc, want)
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		t.Fatalf("read archived file: %v", err)
	}
	if string(data) != "Business Name *\n" {
		t.Errorf("content = %q", data)
	}
	if _, err := os.Stat(loc + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestFSArchiver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFSArchiver(t.TempDir(), "").Archive(ctx, "b1", "a.tsv", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archiver(t *testing.T) {
	p := &fakePutter{}
	a := NewS3Archiver(p, "visadir-archive", "uploads")
	a.now = func() time.Time { return fixedTime }

	loc, err := a.Archive(context.Background(), "b1", "listings.tsv", []byte("data"))
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if loc != "s3://visadir-archive/uploads/batches/2025/03/01/b1-listings.tsv" {
		t.Errorf("location = %q", loc)
	}
	if aws.ToString(p.input.Bucket) != "visadir-archive" || p.body != "data" {
		t.Errorf("put input = %+v body=%q", p.input, p.body)
	}
	if aws.ToInt64(p.input.ContentLength) != 4 {
		t.Errorf("ContentLength = %d", aws.ToInt64(p.input.ContentLength))
	}
}

func TestS3Archiver_Error(t *testing.T) {
	p := &fakePutter{err: errors.New("access denied")}
	_, err := NewS3Archiver(p, "b", "").Archive(context.Background(), "b1", "a.tsv", nil)
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Errorf("err = %v", err)
	}
}
