package shared

const (
	ProjectID = "eczemacare-1195e" // Can be overridden by GOOGLE_CLOUD_PROJECT

	// ClassifierURL is the predictImage function that grades an uploaded photo.
	ClassifierURL = "https://us-central1-eczemacare-1195e.cloudfunctions.net/predictImage"

	TopicAnalysisRecorded = "topic-skin-analysis-recorded"

	CollectionUsers        = "users"
	CollectionImages       = "images"
	CollectionSkinAnalysis = "skinAnalysis"

	// ImagePrefix is the object storage folder holding per-user uploads.
	ImagePrefix = "images"
)
