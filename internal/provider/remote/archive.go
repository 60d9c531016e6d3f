package remote

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/samhoang/skillkit/internal/skill"
)

// Archive discovers skills in a .tar.gz, .tgz or .zip downloaded over HTTP.
// A single top-level directory in the archive is stripped.
type Archive struct {
	*checkouts
	client *http.Client
}

// NewArchive creates an archive provider using http.DefaultClient
func NewArchive() *Archive {
	return NewArchiveWithClient(http.DefaultClient)
}

// NewArchiveWithClient creates an archive provider using client
func NewArchiveWithClient(client *http.Client) *Archive {
	a := &Archive{client: client}
	a.checkouts = newCheckouts(a.download)
	return a
}

func (a *Archive) download(ctx context.Context, url, dir string) error {
	if !skill.IsArchiveURL(url) {
		return &Error{Op: "http download", Source: url, Err: errors.New("unsupported archive type")}
	}

	tmpFile, err := os.CreateTemp("", "skillkit-download-*")
	if err != nil {
		return &Error{Op: "http download", Source: url, Err: err}
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Op: "http download", Source: url, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return &Error{Op: "http download", Source: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Op: "http download", Source: url, Err: errors.Errorf("status %d", resp.StatusCode)}
	}

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return &Error{Op: "http download", Source: url, Err: err}
	}
	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return &Error{Op: "http extract", Source: url, Err: err}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return &Error{Op: "http extract", Source: url, Err: err}
	}

	lower := strings.ToLower(url)
	if strings.HasSuffix(lower, ".zip") {
		err = extractZip(tmpFile.Name(), dir)
	} else {
		err = extractTarGz(tmpFile, dir)
	}
	if err != nil {
		return &Error{Op: "http extract", Source: url, Err: err}
	}
	return nil
}

// commonTopDir returns the directory every entry lives under, or "" when
// the entries do not share one.
func commonTopDir(names []string) string {
	top := ""
	for _, name := range names {
		name = strings.TrimPrefix(name, "./")
		first, _, nested := strings.Cut(name, "/")
		if !nested {
			// a file at the archive root
			return ""
		}
		if top == "" {
			top = first
		} else if top != first {
			return ""
		}
	}
	return top
}

func stripTop(name, top string) string {
	name = strings.TrimPrefix(name, "./")
	if top != "" {
		name = strings.TrimPrefix(strings.TrimPrefix(name, top), "/")
	}
	return name
}

func extractTarGz(r io.ReadSeeker, dest string) error {
	names, err := tarNames(r)
	if err != nil {
		return err
	}
	top := commonTopDir(names)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}

	gzr, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		name := stripTop(header.Name, top)
		if name == "" {
			continue
		}
		target, err := safeJoin(dest, name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		}
	}
	return nil
}

func tarNames(r io.Reader) ([]string, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gzr.Close()

	var names []string
	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, err
		}
		name := header.Name
		if header.Typeflag == tar.TypeDir && !strings.HasSuffix(name, "/") {
			name += "/"
		}
		names = append(names, name)
	}
}

func extractZip(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	top := commonTopDir(names)

	for _, f := range r.File {
		name := stripTop(f.Name, top)
		if name == "" {
			continue
		}
		target, err := safeJoin(dest, name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, rc, f.Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if mode == 0 {
		mode = 0644
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
