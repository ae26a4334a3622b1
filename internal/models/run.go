package models

// ReconRun is the persisted record of one pipeline run. The artifact tree on
// disk stays the source of truth; this row exists so the server can list and
// locate past runs.
type ReconRun struct {
	UUID            string  `gorm:"primaryKey;type:varchar(36)" json:"uuid"`
	TargetsFile     string  `json:"targets_file"`
	OutputRoot      string  `json:"output_root"`
	NumberOfTargets int     `json:"number_of_targets"`
	Successful      int     `json:"successful"`
	Empty           int     `json:"empty"`
	Errors          int     `json:"errors"`
	HarvestState    string  `json:"harvest_state"`
	AnalyzeState    string  `json:"analyze_state"`
	ScriptsState    string  `json:"scripts_state"`
	DorkState       string  `json:"dork_state"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	CreatedAt       int64   `json:"created_at"`
	UpdatedAt       int64   `json:"updated_at"`
}
