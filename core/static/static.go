package static

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/searchktools/duplex-server/core/http"
)

// Handler serves files under a root directory for requests no route
// matched. The knobs mirror the listener configuration: directory listing,
// symlink following, and jailing resolved paths to the root.
type Handler struct {
	Root             string
	DirectoryListing bool
	FollowSymlinks   bool
	JailToRoot       bool
}

// Serve resolves the request path under the root and streams the file, a
// directory listing, or a 404.
func (h *Handler) Serve(req *http.RequestCtx, res *http.ResponseCtx) {
	// Clean with a leading slash so ".." segments cannot escape before the
	// join.
	rel := filepath.Clean("/" + req.Path())
	full := filepath.Join(h.Root, rel)

	if h.JailToRoot && !h.inRoot(full) {
		res.NotFound()
		return
	}

	info, err := os.Lstat(full)
	if err != nil {
		res.NotFound()
		return
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !h.FollowSymlinks {
			res.NotFound()
			return
		}
		resolved, err := filepath.EvalSymlinks(full)
		if err != nil {
			res.NotFound()
			return
		}
		if h.JailToRoot && !h.inRoot(resolved) {
			res.NotFound()
			return
		}
		full = resolved
		if info, err = os.Stat(full); err != nil {
			res.NotFound()
			return
		}
	}

	if info.IsDir() {
		if !h.DirectoryListing {
			res.NotFound()
			return
		}
		h.serveListing(req, res, full)
		return
	}

	res.SendFile(full)
}

func (h *Handler) inRoot(path string) bool {
	root, err := filepath.Abs(h.Root)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == root || strings.HasPrefix(abs, root+string(filepath.Separator))
}

func (h *Handler) serveListing(req *http.RequestCtx, res *http.ResponseCtx, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		res.NotFound()
		return
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	base := strings.TrimSuffix(req.Path(), "/")

	var b strings.Builder
	b.WriteString("<html><body><ul>\n")
	for _, name := range names {
		b.WriteString(`<li><a href="` + base + "/" + name + `">` + name + "</a></li>\n")
	}
	b.WriteString("</ul></body></html>\n")

	res.Data(200, "text/html; charset=utf-8", []byte(b.String()))
}
