package constants

// Stage names a pipeline step. Stable values: used as metric labels and log attributes.
type Stage string

const (
	StageModels   Stage = "models"
	StageIngest   Stage = "ingest"
	StageExtract  Stage = "extract"
	StageClassify Stage = "classify"
	StageFields   Stage = "fields"
	StageAnomaly  Stage = "anomaly"
	StageDecision Stage = "decision"
	StageRender   Stage = "render"
)

// Artifact file names written under each run directory.
const (
	HeatmapArtifact  = "heatmap.png"
	FieldsArtifact   = "fields.png"
	DecisionArtifact = "decision.png"
)
