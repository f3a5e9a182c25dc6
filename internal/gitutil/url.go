// Package gitutil resolves pull request references: full GitHub URLs and
// bare PR numbers against the current repository's remote.
package gitutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var prURLRegex = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)$`)

// ParsePullRequestURL extracts owner, repo, and PR number from a GitHub
// pull request URL of the form https://github.com/{owner}/{repo}/pull/{number}.
func ParsePullRequestURL(url string) (owner, repo string, prNumber int, err error) {
	url = strings.TrimSuffix(url, "/")

	matches := prURLRegex.FindStringSubmatch(url)
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("invalid pull request URL format: %s", url)
	}

	owner = matches[1]
	repo = matches[2]
	prNumber, err = strconv.Atoi(matches[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid PR number %q: %w", matches[3], err)
	}
	return owner, repo, prNumber, nil
}

// IsBareNumber reports whether target is a plain PR number, to be resolved
// against the ambient repository context.
func IsBareNumber(target string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(target, "#"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
