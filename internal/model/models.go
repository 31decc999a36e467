// internal/model/models.go
package model

import (
	"time"
)

// Repository represents a starred GitHub repository as returned by the API.
type Repository struct {
	ID              int64
	GithubRepoID    int64 `json:"github_repo_id"`
	Owner           string
	Name            string
	FullName        string
	Description     *string
	URL             string
	Language        *string
	ForksCount      int
	StarsCount      int
	OpenIssuesCount int
	Topics          []string
	RepoCreatedAt   time.Time
	RepoUpdatedAt   time.Time
	PushedAt        *time.Time
	StarredAt       *time.Time
}

// ActivityType tags an ActivityRecord.
type ActivityType string

const (
	ActivityCommit      ActivityType = "commit"
	ActivityIssue       ActivityType = "issue"
	ActivityPullRequest ActivityType = "pr"
	ActivityRelease     ActivityType = "release"
	ActivityReadme      ActivityType = "readme"
)

// Activity is an observation of a commit, issue or pull request on a repository.
// URL is its natural key within a repository.
type Activity struct {
	Type        ActivityType
	Title       string
	Description string
	URL         string
	Author      string
	DetectedAt  time.Time
}

// SyncSettings is the per-user sync configuration.
type SyncSettings struct {
	Enabled         bool       `json:"syncEnabled"`
	IntervalMinutes int        `json:"syncIntervalMinutes"`
	LastSyncAt      *time.Time `json:"lastSyncAt"`
}

// SyncStage is a step of a single sync run.
type SyncStage string

const (
	StageFetching SyncStage = "fetching"
	StageSaving   SyncStage = "saving"
	StageUpdates  SyncStage = "updates"
	StageComplete SyncStage = "complete"
)

// SyncProgress is emitted on every stage transition and periodically within a stage.
type SyncProgress struct {
	Stage   SyncStage `json:"stage"`
	Current int       `json:"current"`
	Total   int       `json:"total"`
	Message string    `json:"message"`
}

// SyncResult summarizes one sync run. It is never persisted.
type SyncResult struct {
	RunID           string   `json:"runId"`
	Success         bool     `json:"success"`
	Disabled        bool     `json:"disabled,omitempty"`
	UserID          int64    `json:"userId"`
	ReposSynced     int      `json:"reposSynced"`
	UpdatesDetected int      `json:"updatesDetected"`
	Errors          []string `json:"errors,omitempty"`
	DurationMS      int64    `json:"duration"`
}

// SweepSummary aggregates the results of a scheduled sweep.
type SweepSummary struct {
	Success              bool     `json:"success"`
	UsersProcessed       int      `json:"usersProcessed"`
	Succeeded            int      `json:"succeeded"`
	Failed               int      `json:"failed"`
	TotalReposSynced     int      `json:"totalReposSynced"`
	TotalUpdatesDetected int      `json:"totalUpdatesDetected"`
	Errors               []string `json:"errors"`
	DurationMS           int64    `json:"duration"`
}

// SyncStatus answers whether a manual sync may run now.
type SyncStatus struct {
	HasSynced       bool       `json:"hasSynced"`
	LastSyncAt      *time.Time `json:"lastSyncAt"`
	IntervalMinutes int        `json:"syncIntervalMinutes"`
	SyncEnabled     bool       `json:"syncEnabled"`
	CanSync         bool       `json:"canSync"`
	WaitSeconds     int        `json:"waitTime,omitempty"`
	RepositoryCount int64      `json:"repositoryCount"`
}
