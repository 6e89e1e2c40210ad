package adapter

import "context"

// GeneratePostRequest carries everything the external engine needs to write a
// post on the user's behalf.
type GeneratePostRequest struct {
	Niche      string
	Topic      string
	Question   string
	UserAnswer string
	PostGoal   string
}

// EngineClient is the boundary to the external workflow engine. Every call is
// a full dispatch-and-wait round trip; errors distinguish dispatch failure,
// explicit rejection and timeout (domain.ErrDispatchFailed,
// domain.ErrExternalRejected, domain.ErrExternalTimeout).
type EngineClient interface {
	DetectNiche(ctx context.Context, description string) (string, error)
	AdaptTopic(ctx context.Context, topic, niche string) (string, error)
	GeneratePost(ctx context.Context, req GeneratePostRequest) (string, error)
}
