package workflow

import "yt2tandoor/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
// Stages execute in pipeline order; a nil handler removes its stage, and the
// next configured stage picks up from the preceding done status.
func (m *Manager) ConfigureStages(set StageSet) {
	pipeline := &pipelineState{}

	if set.Download != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "download",
			handler:          set.Download,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusDownloading,
			doneStatus:       queue.StatusDownloaded,
		})
	}
	if set.Transcribe != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "transcribe",
			handler:          set.Transcribe,
			startStatus:      queue.StatusDownloaded,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		})
	}
	extractStart := queue.StatusTranscribed
	if set.Transcribe == nil {
		extractStart = queue.StatusDownloaded
	}
	if set.Extract != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "extract",
			handler:          set.Extract,
			startStatus:      extractStart,
			processingStatus: queue.StatusExtracting,
			doneStatus:       queue.StatusExtracted,
		})
	}
	publishStart := queue.StatusExtracted
	if set.Extract == nil {
		publishStart = extractStart
	}
	if set.Publish != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "publish",
			handler:          set.Publish,
			startStatus:      publishStart,
			processingStatus: queue.StatusPublishing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	pipeline.finalize()

	m.mu.Lock()
	m.pipeline = pipeline
	m.mu.Unlock()
}
