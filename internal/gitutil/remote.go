package gitutil

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

var remoteURLRegex = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/\s]+?)(?:\.git)?$`)

// CurrentRepo detects the GitHub owner/repo of the working directory from
// its origin remote. Used to resolve bare PR numbers.
func CurrentRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("no usable git remote: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from HTTPS and SSH GitHub remote URLs.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	matches := remoteURLRegex.FindStringSubmatch(url)
	if len(matches) != 3 {
		return "", "", fmt.Errorf("remote %q is not a github.com repository", url)
	}
	return matches[1], matches[2], nil
}
