package effectdetect

// ClassificationRequest packages one accepted clip with the fixed instruction
// for a model variant attempt. The same value is handed to the secondary
// variant unchanged if the primary is unavailable.
//
// Video is only valid for the duration of the attempt; clients must not
// retain it.
type ClassificationRequest struct {
	Video       []byte
	MediaType   string
	Instruction string
}

// buildRequest pairs a validated payload with the classification instruction.
// It performs no I/O and cannot fail on validated input.
func buildRequest(p payload) ClassificationRequest {
	return ClassificationRequest{
		Video:       p.data,
		MediaType:   p.mediaType,
		Instruction: classificationInstruction,
	}
}
