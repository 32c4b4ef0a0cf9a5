package formatting

import (
	"fmt"
	"net/url"
	"strings"
)

const shortShaLength = 7

// ShortSHA returns a shortsha
func ShortSHA(sha string) string {
	if len(sha) <= shortShaLength {
		return sha
	}
	return sha[0:shortShaLength]
}

// GetRepoOwnerFromURL returns the owner and the repository of a clone URL,
// either https://host/owner/repo.git or the scp like git@host:owner/repo.git.
func GetRepoOwnerFromURL(gitURL string) (string, string, error) {
	path := ""
	if host, rest, ok := strings.Cut(gitURL, ":"); ok && !strings.Contains(gitURL, "://") && strings.Contains(host, "@") {
		path = rest
	} else {
		u, err := url.Parse(gitURL)
		if err != nil {
			return "", "", err
		}
		path = u.Path
	}
	sp := strings.Split(strings.Trim(path, "/"), "/")
	if len(sp) < 2 || sp[len(sp)-2] == "" {
		return "", "", fmt.Errorf("not a URL with a OWNER/REPO at the end: %s", gitURL)
	}
	return sp[len(sp)-2], strings.TrimSuffix(sp[len(sp)-1], ".git"), nil
}
