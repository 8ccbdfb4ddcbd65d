package models

// ContentResult is a hit from the semantic-search (primary) service.
// Score is only formatted for display, never compared.
type ContentResult struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
	// DisplayScore is the two-decimal score set by renderers of machine-readable output.
	DisplayScore string `json:"displayScore,omitempty"`
}

// VideoResult is a hit from the video-search (secondary) service.
type VideoResult struct {
	Title   string `json:"title"`
	VideoID string `json:"videoId"`
}

// ContentResponse is the primary service reply. A missing "results" field decodes to nil.
type ContentResponse struct {
	Results []ContentResult `json:"results"`
	Error   string          `json:"error,omitempty"`
}

// VideoResponse is the secondary service reply. A missing "videos" field decodes to nil.
type VideoResponse struct {
	Videos []VideoResult `json:"videos"`
	Error  string        `json:"error,omitempty"`
}

// Record is the combined result of both searches for one sub-topic.
// It is created once both searches resolve and is not modified afterwards.
type Record struct {
	SubTopic  SubTopic        `json:"subTopic"`
	Primary   []ContentResult `json:"primaryResults"`
	Secondary []VideoResult   `json:"secondaryResults"`
}

// NewRecord builds a Record, replacing nil result lists with empty ones.
func NewRecord(sub SubTopic, primary []ContentResult, secondary []VideoResult) *Record {
	if primary == nil {
		primary = []ContentResult{}
	}
	if secondary == nil {
		secondary = []VideoResult{}
	}
	return &Record{SubTopic: sub, Primary: primary, Secondary: secondary}
}

// Outcome is the settled state of one sub-topic query: either Record or Err is set.
// Index is the sub-topic's position in the decomposition response.
type Outcome struct {
	Index    int
	SubTopic SubTopic
	Record   *Record
	Err      error
}

// Failed reports whether the sub-topic query failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}
