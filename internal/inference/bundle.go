package inference

import "chronorate/ports"

// ModelBundle holds the externally trained capabilities. It is built once at startup
// and only read afterwards, so one bundle may serve concurrent Infer calls.
type ModelBundle struct {
	encoder    ports.Encoder
	classifier ports.Classifier
	scaler     ports.Scaler
}

// NewModelBundle groups the capabilities. Any of them may be nil.
func NewModelBundle(encoder ports.Encoder, classifier ports.Classifier, scaler ports.Scaler) *ModelBundle {
	return &ModelBundle{encoder: encoder, classifier: classifier, scaler: scaler}
}

// EmptyBundle has no capabilities; every inference against it fails softly.
func EmptyBundle() *ModelBundle {
	return &ModelBundle{}
}

// Loaded reports whether classification is possible. The encoder is optional.
func (b *ModelBundle) Loaded() bool {
	return b != nil && b.classifier != nil && b.scaler != nil
}

// EncoderLoaded reports whether learned representations are available.
func (b *ModelBundle) EncoderLoaded() bool {
	return b != nil && b.encoder != nil && b.encoder.IsLoaded()
}

// Status lists which capabilities are present.
func (b *ModelBundle) Status() map[string]bool {
	return map[string]bool{
		"encoder":    b.EncoderLoaded(),
		"classifier": b != nil && b.classifier != nil,
		"scaler":     b != nil && b.scaler != nil,
	}
}
