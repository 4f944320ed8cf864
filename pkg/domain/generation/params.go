// Package generation defines the request/response shapes of the synthetic
// mission pipeline: generation parameters, the scene document the generative
// service must return, and the post-generation review verdict.
package generation

import "fmt"

// LandmarkDistribution is the sampling policy for landmark placement across
// a mission's waypoints.
type LandmarkDistribution string

const (
	// DistributionUniform spreads landmarks evenly across waypoints.
	DistributionUniform LandmarkDistribution = "uniform"
	// DistributionClustered concentrates landmarks around the target.
	DistributionClustered LandmarkDistribution = "clustered"
	// DistributionSingle places landmarks only on the target waypoint.
	DistributionSingle LandmarkDistribution = "single"
)

// DefaultWaypointsPerMission matches the original pipeline's batch shape.
const DefaultWaypointsPerMission = 5

// ReviewConfidenceThreshold is the confidence below which a generated
// mission is always flagged for human review.
const ReviewConfidenceThreshold = 0.75

// Params enumerate the recognized generation options.
type Params struct {
	// Count is the number of missions to synthesize.
	Count int `json:"count"`
	// LandmarkDistribution is the sampling policy for landmark placement.
	LandmarkDistribution LandmarkDistribution `json:"landmark_distribution,omitempty"`
	// Seed makes waypoint/landmark sampling deterministic when set.
	Seed *int64 `json:"seed,omitempty"`
	// WaypointsPerMission sizes each synthesized mission; zero means default.
	WaypointsPerMission int `json:"waypoints_per_mission,omitempty"`
	// DatasetSplit labels the resulting missions (e.g. sft_train).
	DatasetSplit string `json:"dataset_split,omitempty"`
	// SynthesizeMedia renders waypoint imagery when the provider supports it.
	SynthesizeMedia bool `json:"synthesize_media,omitempty"`
}

// Normalize fills defaults and validates the recognized options.
func (p *Params) Normalize() error {
	if p.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", p.Count)
	}
	if p.WaypointsPerMission < 0 {
		return fmt.Errorf("waypoints_per_mission must not be negative")
	}
	if p.WaypointsPerMission == 0 {
		p.WaypointsPerMission = DefaultWaypointsPerMission
	}
	if p.LandmarkDistribution == "" {
		p.LandmarkDistribution = DistributionUniform
	}
	switch p.LandmarkDistribution {
	case DistributionUniform, DistributionClustered, DistributionSingle:
	default:
		return fmt.Errorf("unknown landmark distribution %q", p.LandmarkDistribution)
	}
	if p.DatasetSplit == "" {
		p.DatasetSplit = "sft_train"
	}
	return nil
}

// Review is the pipeline's verdict on one generated mission. Confidence
// below the threshold always forces human review, regardless of what the
// reviewing model claimed.
type Review struct {
	Valid       bool    `json:"mission_is_valid"`
	Confidence  float64 `json:"confidence_score"`
	NeedsReview bool    `json:"needs_human_review"`
	Reasoning   string  `json:"reasoning"`
}

// EnforceThreshold forces the review flag when confidence is below the
// given threshold.
func (r *Review) EnforceThreshold(threshold float64) {
	if r.Confidence < threshold && !r.NeedsReview {
		r.NeedsReview = true
		r.Reasoning += " [forced review: low confidence]"
	}
}
