// Package aid turns conversations into persisted learning aids.
//
// A learning aid (mind map, quiz, or visual summary) is a view over an
// artifact of kind "ai_generated" in the content store. The [Orchestrator]
// runs the generate → persist → announce pipeline that creates one; the
// [Registry] tracks the aids known to the running session; [Filter] and
// [SortAids] back the gallery surface.
//
// # Pipeline atomicity
//
// Stages run strictly sequentially. Generation or persistence failures
// abort everything after them, so a registered aid always references a
// store-confirmed artifact. An announce failure leaves the artifact
// persisted and the aid registered without a chat message; callers receive
// the aid together with a wrapped [ErrAnnounceFailed].
package aid
