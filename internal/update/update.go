// Package update checks a remote location for a newer application release.
package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/temirov/backupfiles/internal/utils"
)

const (
	minimumTimeout     = time.Second
	maximumBodyBytes   = 1 << 20
	userAgentHeader    = "User-Agent"
	versionPrefix      = "v"
	unknownVersionText = "unknown"

	createRequestErrorFormat  = "create update request: %w"
	fetchUpdateErrorFormat    = "fetch %s: %w"
	unexpectedStatusFormat    = "fetch %s: unexpected status %s"
	readUpdateBodyErrorFormat = "read update response: %w"
)

var remoteVersionExpression = regexp.MustCompile(`v?(\d+)\.(\d+)\.(\d+)`)

// Schedule holds the configured update check settings.
type Schedule struct {
	IntervalMinutes int
	// LastBackup is the created timestamp of the configuration.
	LastBackup string
	URL        string
}

// ShouldCheck reports whether an update check is due. Checks are disabled by a non-positive
// interval or an empty URL. A missing or unparsable LastBackup makes the check due.
func ShouldCheck(schedule Schedule, now time.Time) bool {
	if schedule.IntervalMinutes <= 0 || strings.TrimSpace(schedule.URL) == "" {
		return false
	}
	if strings.TrimSpace(schedule.LastBackup) == "" {
		return true
	}
	lastBackup, parseError := utils.ParseBackupTimestamp(schedule.LastBackup)
	if parseError != nil {
		return true
	}
	return now.Sub(lastBackup) >= time.Duration(schedule.IntervalMinutes)*time.Minute
}

// Result describes the outcome of a completed check.
type Result struct {
	CurrentVersion string
	RemoteVersion  string
	Available      bool
}

// Checker fetches the remote version text over HTTP.
type Checker struct {
	Client *http.Client
}

// Check downloads url within timeout (at least one second) and compares the first
// major.minor.patch found in the response with currentVersion. Available is false when either
// version is not a valid semantic version.
func (checker Checker) Check(ctx context.Context, url string, timeout time.Duration, currentVersion string) (Result, error) {
	if timeout < minimumTimeout {
		timeout = minimumTimeout
	}
	requestContext, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, requestError := http.NewRequestWithContext(requestContext, http.MethodGet, url, nil)
	if requestError != nil {
		return Result{}, fmt.Errorf(createRequestErrorFormat, requestError)
	}
	request.Header.Set(userAgentHeader, utils.ApplicationName)

	client := checker.Client
	if client == nil {
		client = http.DefaultClient
	}
	response, fetchError := client.Do(request)
	if fetchError != nil {
		return Result{}, fmt.Errorf(fetchUpdateErrorFormat, url, fetchError)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf(unexpectedStatusFormat, url, response.Status)
	}
	body, readError := io.ReadAll(io.LimitReader(response.Body, maximumBodyBytes))
	if readError != nil {
		return Result{}, fmt.Errorf(readUpdateBodyErrorFormat, readError)
	}

	result := Result{CurrentVersion: currentVersion}
	match := remoteVersionExpression.FindStringSubmatch(string(body))
	if match == nil {
		return result, nil
	}
	result.RemoteVersion = strings.Join(match[1:], ".")
	current := canonicalVersion(currentVersion)
	if current == "" {
		return result, nil
	}
	result.Available = semver.Compare(versionPrefix+result.RemoteVersion, current) > 0
	return result, nil
}

func canonicalVersion(version string) string {
	trimmed := strings.TrimSpace(version)
	if trimmed == "" || trimmed == unknownVersionText {
		return ""
	}
	if !strings.HasPrefix(trimmed, versionPrefix) {
		trimmed = versionPrefix + trimmed
	}
	if !semver.IsValid(trimmed) {
		return ""
	}
	return trimmed
}
