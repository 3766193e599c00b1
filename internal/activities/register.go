package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ExtractTextActivity)
	w.RegisterActivity(a.ChunkDocumentActivity)
	w.RegisterActivity(a.ReplaceChunksActivity)
	w.RegisterActivity(a.UpdateDocumentStatusActivity)
	w.RegisterActivity(a.LoadHandbookContextActivity)
	w.RegisterActivity(a.GenerateSectionActivity)
	w.RegisterActivity(a.UpdateHandbookStatusActivity)
	w.RegisterActivity(a.CompleteHandbookActivity)
	w.RegisterActivity(a.FailHandbookActivity)
}
