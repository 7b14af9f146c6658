package ingestion

// Step tahapan satu siklus ingestion.
type Step string

const (
	StepRoadNetwork Step = "road_network"
	StepElevation   Step = "elevation"
	StepWeather     Step = "weather"
	StepScoring     Step = "scoring"
	StepPublish     Step = "publish"
)

// Progress observer progress per step (dipakai progressbar di cmd/ingest).
type Progress interface {
	StepStarted(step Step, total int)
	StepAdvanced(step Step, n int)
	StepFinished(step Step)
}

type noopProgress struct{}

func (noopProgress) StepStarted(Step, int)  {}
func (noopProgress) StepAdvanced(Step, int) {}
func (noopProgress) StepFinished(Step)      {}
