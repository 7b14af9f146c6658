package main

import (
	"fmt"

	"lintang/floodnav/pkg/ingestion"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

var stepOrder = []ingestion.Step{
	ingestion.StepRoadNetwork,
	ingestion.StepElevation,
	ingestion.StepWeather,
	ingestion.StepScoring,
	ingestion.StepPublish,
}

var stepDescription = map[ingestion.Step]string{
	ingestion.StepRoadNetwork: "Download road network...",
	ingestion.StepElevation:   "Fetch elevation...",
	ingestion.StepWeather:     "Fetch curah hujan...",
	ingestion.StepScoring:     "Hitung flood score...",
	ingestion.StepPublish:     "Simpan snapshot...",
}

// barProgress satu progressbar per step ingestion.
type barProgress struct {
	bars map[ingestion.Step]*progressbar.ProgressBar
}

func newBarProgress() *barProgress {
	return &barProgress{bars: make(map[ingestion.Step]*progressbar.ProgressBar)}
}

func stepNumber(step ingestion.Step) int {
	for i, s := range stepOrder {
		if s == step {
			return i + 1
		}
	}
	return 0
}

func (p *barProgress) StepStarted(step ingestion.Step, total int) {
	if total <= 0 {
		total = 1
	}
	p.bars[step] = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][%d/%d][reset] %s",
			stepNumber(step), len(stepOrder), stepDescription[step])),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func (p *barProgress) StepAdvanced(step ingestion.Step, n int) {
	if bar, ok := p.bars[step]; ok {
		bar.Add(n)
	}
}

func (p *barProgress) StepFinished(step ingestion.Step) {
	bar, ok := p.bars[step]
	if !ok {
		return
	}
	bar.Finish()
	fmt.Println()
	delete(p.bars, step)
}
