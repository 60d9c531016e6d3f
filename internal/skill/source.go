package skill

import (
	"regexp"
	"strings"

	skerr "github.com/samhoang/skillkit/internal/errors"
)

var repoShorthand = regexp.MustCompile(`^[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+(/[^@]*)?(@[^@/]+)?$`)

// ParseSource parses a source argument as accepted on the command line.
//
// Accepted forms:
//
//	self | embedded                     compiled-in skills
//	local | local:<path> | ./dir | /dir local filesystem
//	github:owner/repo[/subpath][@ref]   GitHub repository
//	gitlab:owner/repo[/subpath][@ref]   GitLab repository
//	https://github.com/owner/repo       GitHub (also gitlab.com)
//	https://host/pkg.tar.gz | .zip      direct archive download
//	direct:<url>                        direct archive download
//	owner/repo[@ref]                    GitHub shorthand
func ParseSource(input string) (Source, error) {
	in := strings.TrimSpace(input)
	if in == "" {
		return Source{}, skerr.NewSourceError(input, KindNames())
	}

	if k, err := ParseKind(in); err == nil {
		src := Source{Kind: k}
		if k == KindLocal {
			src.URL = "."
		}
		if k.RequiresProvider() {
			// a bare remote kind has nothing to fetch from
			return Source{}, skerr.NewSourceError(input, KindNames())
		}
		return src, nil
	}

	if prefix, rest, ok := strings.Cut(in, ":"); ok && len(prefix) > 1 && !strings.HasPrefix(rest, "//") {
		k, err := ParseKind(prefix)
		if err != nil {
			return Source{}, err
		}
		switch k {
		case KindLocal:
			return Source{Kind: KindLocal, URL: rest}, nil
		case KindDirect:
			return Source{Kind: KindDirect, URL: rest}, nil
		case KindGitHub:
			return parseRepo(KindGitHub, "https://github.com/", rest), nil
		case KindGitLab:
			return parseRepo(KindGitLab, "https://gitlab.com/", rest), nil
		}
		return Source{Kind: k}, nil
	}

	if strings.HasPrefix(in, ".") || strings.HasPrefix(in, "/") || strings.HasPrefix(in, "~") {
		return Source{Kind: KindLocal, URL: in}, nil
	}

	lower := strings.ToLower(in)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if IsArchiveURL(lower) {
			return Source{Kind: KindDirect, URL: in}, nil
		}
		host := strings.TrimPrefix(strings.TrimPrefix(in, "https://"), "http://")
		switch {
		case strings.HasPrefix(host, "github.com/"):
			return parseHostedURL(KindGitHub, "https://github.com/", strings.TrimPrefix(host, "github.com/")), nil
		case strings.HasPrefix(host, "gitlab.com/"):
			return parseHostedURL(KindGitLab, "https://gitlab.com/", strings.TrimPrefix(host, "gitlab.com/")), nil
		}
		return Source{}, skerr.NewSourceError(input, KindNames())
	}

	if strings.HasPrefix(in, "github.com/") {
		return parseHostedURL(KindGitHub, "https://github.com/", strings.TrimPrefix(in, "github.com/")), nil
	}
	if strings.HasPrefix(in, "gitlab.com/") {
		return parseHostedURL(KindGitLab, "https://gitlab.com/", strings.TrimPrefix(in, "gitlab.com/")), nil
	}

	if repoShorthand.MatchString(in) {
		return parseRepo(KindGitHub, "https://github.com/", in), nil
	}

	return Source{}, skerr.NewSourceError(input, KindNames())
}

// IsArchiveURL reports whether url names an archive the direct provider can unpack
func IsArchiveURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasSuffix(lower, ".tar.gz") ||
		strings.HasSuffix(lower, ".tgz") ||
		strings.HasSuffix(lower, ".zip")
}

// parseRepo handles owner/repo[/subpath][@ref]
func parseRepo(kind Kind, base, path string) Source {
	src := Source{Kind: kind}
	if at := strings.LastIndex(path, "@"); at > 0 {
		src.Ref = path[at+1:]
		path = path[:at]
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")

	parts := strings.SplitN(path, "/", 3)
	if len(parts) >= 2 {
		src.URL = base + parts[0] + "/" + strings.TrimSuffix(parts[1], ".git")
	} else {
		src.URL = base + path
	}
	if len(parts) == 3 {
		src.Subpath = parts[2]
	}
	return src
}

// parseHostedURL handles the path part of a browser URL, including the
// owner/repo/tree/<ref>/<subpath> form.
func parseHostedURL(kind Kind, base, path string) Source {
	path = strings.Trim(path, "/")
	parts := strings.SplitN(path, "/", 5)
	if len(parts) < 4 {
		return parseRepo(kind, base, path)
	}
	src := Source{Kind: kind, URL: base + parts[0] + "/" + strings.TrimSuffix(parts[1], ".git")}
	switch {
	case parts[2] == "tree":
		src.Ref = parts[3]
		if len(parts) == 5 {
			src.Subpath = parts[4]
		}
		return src
	case parts[2] == "-" && parts[3] == "tree" && len(parts) == 5:
		// gitlab: owner/repo/-/tree/<ref>/<subpath>
		ref, sub, _ := strings.Cut(parts[4], "/")
		src.Ref = ref
		src.Subpath = sub
		return src
	}
	return parseRepo(kind, base, path)
}
