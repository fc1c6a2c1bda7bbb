package domain

import "time"

// MatchTier identifies which duplicate rule matched
type MatchTier string

const (
	TierNone       MatchTier = "none"
	TierIDHash     MatchTier = "id_hash"    // exact derived key
	TierAttributes MatchTier = "attributes" // filename narrowed by length/last-modified/etag
	TierProvenance MatchTier = "provenance" // url + referrer
)

// Decision is the classifier's verdict for one record
type Decision struct {
	Duplicate bool      `json:"duplicate"`
	Tier      MatchTier `json:"tier"`
}

// Action returns the wire action for the decision
func (d Decision) Action() Action {
	if d.Duplicate {
		return ActionPause
	}
	return ActionProceed
}

// Action is what the decision endpoint tells a client to do
type Action int

const (
	ActionCancel  Action = -1
	ActionProceed Action = 0
	ActionPause   Action = 1
)

// String returns a human readable action name
func (a Action) String() string {
	switch a {
	case ActionProceed:
		return "proceed"
	case ActionPause:
		return "pause"
	case ActionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// DecisionRequest is the body of POST /process_download
type DecisionRequest struct {
	ID   interface{}   `json:"id"`
	Data *DecisionData `json:"data"`
}

// DecisionData groups everything a client knows about a pending download
type DecisionData struct {
	DownloadMetaData        map[string]interface{} `json:"download_meta_data"`
	FetchedCompleteMetadata map[string]interface{} `json:"fetched_complete_metadata"`
	FileDetails             map[string]interface{} `json:"downloadFileNameDomainUrlDetails"`
	PartialHash             *string                `json:"partial_hash"`
	DeviceInfo              *DeviceInfo            `json:"device_info"`
}

// DecisionResponse is the body returned by POST /process_download
type DecisionResponse struct {
	Action *Action `json:"action"`
}

// DeleteRequest is the body of POST /delete_record
type DeleteRequest struct {
	PartialHash string      `json:"partial_hash_verify"`
	DeviceInfo  *DeviceInfo `json:"device_info,omitempty"`
}

// DecisionEvent is published to live subscribers after each classification
type DecisionEvent struct {
	Time        time.Time   `json:"time"`
	RequestID   interface{} `json:"request_id"`
	URL         string      `json:"url"`
	Filename    string      `json:"filename"`
	PartialHash string      `json:"partial_hash,omitempty"`
	Duplicate   bool        `json:"duplicate"`
	Tier        MatchTier   `json:"tier"`
	Action      Action      `json:"action"`
	DeviceName  string      `json:"device_name"`
}
