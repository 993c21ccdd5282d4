package static

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/searchktools/duplex-server/core/http"
)

func serve(t *testing.T, h *Handler, path string) string {
	t.Helper()

	client, server := net.Pipe()
	var out []byte
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		out, _ = io.ReadAll(client)
	}()

	req := http.NewRequestCtx(&http.Request{Method: "GET", Path: path}, nil)
	res := http.NewResponseCtx(server, nil)
	h.Serve(req, res)

	server.Close()
	wg.Wait()
	return string(out)
}

func TestServeFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi there"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := &Handler{Root: root, JailToRoot: true}
	out := serve(t, h, "/hello.txt")

	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("status: %q", out)
	}
	if !strings.Contains(out, "Content-Type: text/plain") {
		t.Errorf("content type missing: %q", out)
	}
	if !strings.HasSuffix(out, "hi there") {
		t.Errorf("body missing: %q", out)
	}
}

func TestServeMissingFile(t *testing.T) {
	h := &Handler{Root: t.TempDir()}
	out := serve(t, h, "/nope.txt")

	if !strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n") {
		t.Errorf("status: %q", out)
	}
}

func TestJailBlocksEscape(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	defer os.Remove(outside)

	h := &Handler{Root: root, JailToRoot: true}
	out := serve(t, h, "/../secret.txt")

	if !strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n") {
		t.Errorf("path escape should 404: %q", out)
	}
}

func TestDirectoryListing(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644)
	os.Mkdir(filepath.Join(root, "sub"), 0o755)

	h := &Handler{Root: root, DirectoryListing: true}
	out := serve(t, h, "/")

	if !strings.Contains(out, `<a href="/a.txt">a.txt</a>`) {
		t.Errorf("listing missing file entry: %q", out)
	}
	if !strings.Contains(out, `<a href="/sub/">sub/</a>`) {
		t.Errorf("listing missing dir entry: %q", out)
	}

	h.DirectoryListing = false
	out = serve(t, h, "/")
	if !strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n") {
		t.Errorf("listing disabled should 404: %q", out)
	}
}

func TestSymlinkKnob(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.txt")
	os.WriteFile(target, []byte("linked"), 0o644)
	if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	h := &Handler{Root: root, FollowSymlinks: false}
	out := serve(t, h, "/link.txt")
	if !strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n") {
		t.Errorf("symlink should 404 when following is off: %q", out)
	}

	h.FollowSymlinks = true
	out = serve(t, h, "/link.txt")
	if !strings.HasSuffix(out, "linked") {
		t.Errorf("symlink should serve when following is on: %q", out)
	}
}
