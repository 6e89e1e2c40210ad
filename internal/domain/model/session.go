package model

// SessionContent is the ephemeral per-turn state of a content flow: the topic
// being worked on, the question asked, the chosen goal and the provisional
// niche awaiting confirmation. It lives only in the session store and is lost
// on restart; the user simply requests a topic again.
type SessionContent struct {
	ProvisionalNiche string `json:"provisional_niche,omitempty"`
	ContentID        string `json:"content_id,omitempty"`
	Topic            string `json:"topic,omitempty"`
	AdaptedTopic     string `json:"adapted_topic,omitempty"`
	Question         string `json:"question,omitempty"`
	Goal             string `json:"goal,omitempty"`
}

// BestTopic prefers the niche-adapted topic over the universal one.
func (c *SessionContent) BestTopic() string {
	if c == nil {
		return ""
	}
	if c.AdaptedTopic != "" {
		return c.AdaptedTopic
	}
	return c.Topic
}
