package consultation

import (
	"context"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/messaging"
	"go.uber.org/zap"
)

// uploader uploads the pending files of lab result drafts one at a time. A
// failed upload is logged and reported but never aborts the save.
type uploader struct {
	backend   Uploader
	publisher messaging.PublisherInterface
	metrics   Metrics
	log       *zap.Logger
}

func (u uploader) resolve(ctx context.Context, patientID int64, d LabResultDraft) (LabResultInput, []SkippedFile) {
	paths := append([]string(nil), d.KeepFiles...)
	var skipped []SkippedFile

	for _, f := range d.Files {
		path, err := u.backend.UploadFile(ctx, f)
		if err == nil && path != "" {
			paths = append(paths, path)
			continue
		}
		reason := "upload returned no path"
		if err != nil {
			reason = err.Error()
		}
		u.log.Warn("skipping lab result attachment",
			zap.String("test_name", d.TestName),
			zap.String("file", f.Name),
			zap.String("reason", reason))
		skipped = append(skipped, SkippedFile{TestName: d.TestName, Name: f.Name, Reason: reason})

		if u.metrics != nil {
			u.metrics.RecordAttachmentSkipped(ctx)
		}
		messaging.Emit(ctx, u.publisher, u.log, messaging.EventAttachmentSkipped, messaging.AttachmentSkippedEvent{
			BaseEvent: messaging.NewBaseEvent(messaging.EventAttachmentSkipped),
			Data: messaging.AttachmentSkippedData{
				PatientID: patientID,
				TestName:  d.TestName,
				FileName:  f.Name,
				Reason:    reason,
			},
		})
	}

	return LabResultInput{
		TestName:      d.TestName,
		ResultSummary: d.ResultSummary,
		TestDate:      d.TestDate,
		Files:         compact(paths),
	}, skipped
}
