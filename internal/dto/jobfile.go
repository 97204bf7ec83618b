package dto

import "time"

// DocumentLink pairs a document with a signed download token.
type DocumentLink struct {
	FileName  string    `json:"file_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BackfillResult summarises a job file backfill run.
type BackfillResult struct {
	JobRefsSeen    int `json:"job_refs_seen"`
	GroupsCreated  int `json:"groups_created"`
	GroupsUpdated  int `json:"groups_updated"`
	DocumentsTotal int `json:"documents_total"`
}
