package workflow

import (
	"log/slog"

	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Download   stage.Handler
	Transcribe stage.Handler
	Extract    stage.Handler
	Publish    stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

type pipelineState struct {
	stages             []pipelineStage
	statusOrder        []queue.Status
	stageByStart       map[queue.Status]pipelineStage
	processingStatuses []queue.Status
	logger             *slog.Logger
}

func (p *pipelineState) finalize() {
	if p == nil {
		return
	}
	p.stageByStart = make(map[queue.Status]pipelineStage, len(p.stages))
	p.statusOrder = make([]queue.Status, 0, len(p.stages))
	seenProcessing := make(map[queue.Status]struct{})
	for _, stg := range p.stages {
		p.stageByStart[stg.startStatus] = stg
		p.statusOrder = append(p.statusOrder, stg.startStatus)
		if stg.processingStatus != "" {
			if _, ok := seenProcessing[stg.processingStatus]; !ok {
				p.processingStatuses = append(p.processingStatuses, stg.processingStatus)
				seenProcessing[stg.processingStatus] = struct{}{}
			}
		}
	}
}

func (p *pipelineState) stageForStatus(status queue.Status) (pipelineStage, bool) {
	if p == nil {
		return pipelineStage{}, false
	}
	stg, ok := p.stageByStart[status]
	return stg, ok
}

// loggerAware is implemented by stage handlers that want the per-item stage
// logger injected before Prepare runs.
type loggerAware interface {
	SetLogger(*slog.Logger)
}
