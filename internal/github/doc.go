// Package github fetches pull request diffs and posts scan results back
// as PR reviews through the GitHub REST API.
package github
