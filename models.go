package struai

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// Point is an x/y pair in graph coordinate space.
type Point [2]float64

// BBox is [min_x, min_y, max_x, max_y] in graph coordinate space.
type BBox [4]float64

// splitExtras unmarshals data into known and returns every top-level field
// the struct does not declare. Servers may add fields at any time; callers
// keep them instead of dropping them.
func splitExtras(data []byte, known any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, known); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, name := range jsonFieldNames(known) {
		delete(all, name)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func jsonFieldNames(v any) []string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var names []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "-" || tag == "" {
			continue
		}
		names = append(names, strings.Split(tag, ",")[0])
	}
	return names
}

// JobState is the server-side lifecycle state of an ingestion job.
type JobState string

const (
	JobQueued   JobState = "queued"
	JobRunning  JobState = "running"
	JobComplete JobState = "complete"
	JobFailed   JobState = "failed"
)

// Terminal reports whether the state will never change again.
func (s JobState) Terminal() bool {
	return s == JobComplete || s == JobFailed
}

// JobStatus is one status fetch for an ingestion job. The client only ever
// reads it; all mutation happens server-side.
type JobStatus struct {
	JobID  string       `json:"job_id"`
	Status JobState     `json:"status"`
	Page   *int         `json:"page,omitempty"`
	Result *SheetResult `json:"result,omitempty"`
	Error  *string      `json:"error,omitempty"`

	// Extra holds fields this client version does not know about.
	Extra map[string]json.RawMessage `json:"-"`
}

func (j *JobStatus) UnmarshalJSON(data []byte) error {
	type alias JobStatus
	var a alias
	extra, err := splitExtras(data, &a)
	if err != nil {
		return err
	}
	*j = JobStatus(a)
	j.Extra = extra
	return nil
}

// IsComplete reports successful terminal state.
func (j *JobStatus) IsComplete() bool { return j.Status == JobComplete }

// IsFailed reports failed terminal state.
func (j *JobStatus) IsFailed() bool { return j.Status == JobFailed }

// SheetResult is the terminal payload of a successful ingestion job. The
// server may signal completion without one, e.g. for skipped no-op jobs.
type SheetResult struct {
	SheetID              string `json:"sheet_id"`
	EntitiesCreated      int    `json:"entities_created"`
	RelationshipsCreated int    `json:"relationships_created"`
	Skipped              bool   `json:"skipped,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (r *SheetResult) UnmarshalJSON(data []byte) error {
	type alias SheetResult
	var a alias
	extra, err := splitExtras(data, &a)
	if err != nil {
		return err
	}
	*r = SheetResult(a)
	r.Extra = extra
	return nil
}

// ProjectData is the server representation of a project.
type ProjectData struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	SheetsCount   int       `json:"sheets_count"`
	EntitiesCount int       `json:"entities_count"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (p *ProjectData) UnmarshalJSON(data []byte) error {
	type alias ProjectData
	var a alias
	extra, err := splitExtras(data, &a)
	if err != nil {
		return err
	}
	*p = ProjectData(a)
	p.Extra = extra
	return nil
}

// ProjectDeleteResult reports a project deletion.
type ProjectDeleteResult struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Sheet is one analyzed page within a project.
type Sheet struct {
	ID            string    `json:"id"`
	Title         *string   `json:"title,omitempty"`
	Name          *string   `json:"name,omitempty"`
	Page          int       `json:"page"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	CreatedAt     time.Time `json:"created_at"`
	EntitiesCount int       `json:"entities_count"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (s *Sheet) UnmarshalJSON(data []byte) error {
	type alias Sheet
	var a alias
	extra, err := splitExtras(data, &a)
	if err != nil {
		return err
	}
	*s = Sheet(a)
	s.Extra = extra
	return nil
}

// SheetDetail is a Sheet with ingestion provenance.
type SheetDetail struct {
	ID                string    `json:"id"`
	Title             *string   `json:"title,omitempty"`
	Name              *string   `json:"name,omitempty"`
	Page              int       `json:"page"`
	Width             int       `json:"width"`
	Height            int       `json:"height"`
	CreatedAt         time.Time `json:"created_at"`
	EntitiesCount     int       `json:"entities_count"`
	PageHash          string    `json:"page_hash,omitempty"`
	SourceDescription *string   `json:"source_description,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (s *SheetDetail) UnmarshalJSON(data []byte) error {
	type alias SheetDetail
	var a alias
	extra, err := splitExtras(data, &a)
	if err != nil {
		return err
	}
	*s = SheetDetail(a)
	s.Extra = extra
	return nil
}

// SheetDeleteResult reports a sheet deletion and its cleanup stats.
type SheetDeleteResult struct {
	Deleted              bool   `json:"deleted"`
	SheetID              string `json:"sheet_id"`
	EntitiesDeleted      int    `json:"entities_deleted"`
	RelationshipsDeleted int    `json:"relationships_deleted"`
}

// ingestDescriptor is one job reference in a sheet ingestion response.
type ingestDescriptor struct {
	JobID string `json:"job_id"`
	Page  *int   `json:"page,omitempty"`
}

type ingestResponse struct {
	Jobs []ingestDescriptor `json:"jobs"`
}
