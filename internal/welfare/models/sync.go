package models

import "time"

// SyncResult summarizes one synchronization run against one source.
type SyncResult struct {
	Source      string    `json:"source"`
	Region      string    `json:"region,omitempty"`
	SubRegion   string    `json:"sub_region,omitempty"`
	Fetched     int       `json:"fetched"`
	Upserted    int       `json:"upserted"`
	Unchanged   int       `json:"unchanged"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Pages       int       `json:"pages"`
	Deactivated int       `json:"deactivated"`
	Disabled    bool      `json:"disabled,omitempty"`
	InProgress  bool      `json:"in_progress,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Errors      []string  `json:"errors,omitempty"`
}

// Complete reports whether every page was fetched and applied.
func (r *SyncResult) Complete() bool {
	return r.Failed == 0 && len(r.Errors) == 0 && !r.Disabled && !r.InProgress
}

// Merge folds another result into r, used when syncing several regions.
func (r *SyncResult) Merge(o SyncResult) {
	r.Fetched += o.Fetched
	r.Upserted += o.Upserted
	r.Unchanged += o.Unchanged
	r.Skipped += o.Skipped
	r.Failed += o.Failed
	r.Pages += o.Pages
	r.Deactivated += o.Deactivated
	r.Errors = append(r.Errors, o.Errors...)
	if o.FinishedAt.After(r.FinishedAt) {
		r.FinishedAt = o.FinishedAt
	}
}
