package config

// TopicMaps holds the lookup tables derived from TopicPairs: split topic →
// canonical campaign id, canonical id → output chat topic, name, and the
// effective GM set per campaign. Built once per configuration version and
// shared by every check in a run.
type TopicMaps struct {
	version int64

	toCanonical map[int64]int64
	chatTopics  map[int64]int64
	names       map[int64]string
	pairs       map[int64]*TopicPair
	gmSets      map[int64]map[int64]bool

	// Campaigns lists canonical ids in configuration order.
	Campaigns []int64
}

// Maps returns the lookup tables for this configuration, rebuilding them
// only when the configuration version changed since the cached build.
func (c *GroupConfig) Maps() *TopicMaps {
	if m := c.maps.Load(); m != nil && m.version == c.Version {
		return m
	}
	m := buildTopicMaps(c)
	c.maps.Store(m)
	return m
}

func buildTopicMaps(c *GroupConfig) *TopicMaps {
	m := &TopicMaps{
		version:     c.Version,
		toCanonical: make(map[int64]int64),
		chatTopics:  make(map[int64]int64),
		names:       make(map[int64]string),
		pairs:       make(map[int64]*TopicPair),
		gmSets:      make(map[int64]map[int64]bool),
	}

	globalGMs := make(map[int64]bool, len(c.GMUserIDs))
	for _, id := range c.GMUserIDs {
		globalGMs[id] = true
	}

	for i := range c.TopicPairs {
		pair := &c.TopicPairs[i]
		canonical := pair.Canonical()
		if canonical == 0 {
			continue
		}

		m.Campaigns = append(m.Campaigns, canonical)
		m.pairs[canonical] = pair
		m.names[canonical] = pair.Name
		m.chatTopics[canonical] = pair.ChatTopicID
		for _, topic := range pair.PBPTopicIDs {
			m.toCanonical[topic] = canonical
		}

		gms := globalGMs
		if len(pair.GMUserIDs) > 0 {
			gms = make(map[int64]bool, len(pair.GMUserIDs))
			for _, id := range pair.GMUserIDs {
				gms[id] = true
			}
		}
		m.gmSets[canonical] = gms
	}

	return m
}

// Canonical resolves a raw topic id to its campaign's canonical id.
func (m *TopicMaps) Canonical(topic int64) (int64, bool) {
	c, ok := m.toCanonical[topic]
	return c, ok
}

// ChatTopic returns the output thread for a campaign, 0 if unknown.
func (m *TopicMaps) ChatTopic(campaign int64) int64 {
	return m.chatTopics[campaign]
}

// Name returns the campaign's display name, "" if unknown.
func (m *TopicMaps) Name(campaign int64) string {
	return m.names[campaign]
}

// Pair returns the TopicPair for a canonical campaign id, nil if unknown.
func (m *TopicMaps) Pair(campaign int64) *TopicPair {
	return m.pairs[campaign]
}

// IsGM reports whether a user runs the given campaign.
func (m *TopicMaps) IsGM(campaign, user int64) bool {
	return m.gmSets[campaign][user]
}

// GMSet returns the effective GM set for a campaign. The returned map is
// shared; callers must not mutate it.
func (m *TopicMaps) GMSet(campaign int64) map[int64]bool {
	return m.gmSets[campaign]
}

// CharacterName returns the configured character for a player, if any.
func (m *TopicMaps) CharacterName(campaign, user int64) (string, bool) {
	pair := m.pairs[campaign]
	if pair == nil {
		return "", false
	}
	name, ok := pair.Characters[user]
	return name, ok
}
