package model

import "encoding/json"

// Pipeline webhook event types. The external media pipeline posts these to
// /webhooks/pipeline as the asset moves through processing.
const (
	PipelineAssetCreated    = "video.asset.created"
	PipelineAssetReady      = "video.asset.ready"
	PipelineAssetErrored    = "video.asset.errored"
	PipelineAssetDeleted    = "video.asset.deleted"
	PipelineTrackReady      = "video.asset.track.ready"
	PipelineUploadCancelled = "video.upload.cancelled"
)

// PipelineEvent is the webhook envelope. Data is decoded per event type.
type PipelineEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PipelineAssetData carries the asset fields the webhook updates rows from.
type PipelineAssetData struct {
	AssetID    string  `json:"id"`
	UploadID   string  `json:"upload_id"`
	Status     string  `json:"status"`
	PlaybackID *string `json:"playback_id"`
	DurationS  float64 `json:"duration"`
	Error      *string `json:"error"`
}

// PipelineTrackData describes a generated track (e.g. subtitles) on an asset.
type PipelineTrackData struct {
	AssetID string `json:"asset_id"`
	TrackID string `json:"id"`
	Type    string `json:"type"`
	Status  string `json:"status"`
}
