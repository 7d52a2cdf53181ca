package models

// Speech is the audio outcome of a reply: NoSpeech, FullSpeech or
// DegradedSpeech. Callers switch on the concrete type.
type Speech interface {
	speech()
}

// NoSpeech means no audio was requested.
type NoSpeech struct{}

// FullSpeech means audio was synthesized and stored at Ref.
type FullSpeech struct {
	Ref StorageRef
}

// DegradedSpeech means audio was requested but only text is delivered.
type DegradedSpeech struct {
	Reason string
}

func (NoSpeech) speech()       {}
func (FullSpeech) speech()     {}
func (DegradedSpeech) speech() {}

// ReplyPayload is the terminal artifact handed to the transport.
type ReplyPayload struct {
	Text     string
	Modality Modality
	Speech   Speech
}

// NewTextReply returns a text-only reply.
func NewTextReply(text string) ReplyPayload {
	return ReplyPayload{Text: text, Modality: ModalityText, Speech: NoSpeech{}}
}

// AudioRef returns the stored audio reference when the reply carries audio.
func (r ReplyPayload) AudioRef() (StorageRef, bool) {
	if full, ok := r.Speech.(FullSpeech); ok {
		return full.Ref, true
	}
	return StorageRef{}, false
}

// Degraded reports whether audio was requested but not produced.
func (r ReplyPayload) Degraded() bool {
	_, ok := r.Speech.(DegradedSpeech)
	return ok
}
