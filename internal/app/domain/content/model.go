package content

// Item is a piece of creator content submitted for evaluation. It is
// read-only input; the platform never stores content itself.
type Item struct {
	ContentID      string   `json:"contentId"`
	CreatorAddress string   `json:"creatorAddress"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	Price          float64  `json:"price"`
	Type           string   `json:"type"`
}

// Analysis is the scorer's verdict on a single item. Scores are in [0,1].
// An Analysis lives for one decision and is not persisted on its own.
type Analysis struct {
	QualityScore   float64  `json:"qualityScore"`
	RelevanceScore float64  `json:"relevanceScore"`
	DetectedTopics []string `json:"detectedTopics"`
	EstimatedValue float64  `json:"estimatedValue"`
	Summary        string   `json:"summary"`
}
