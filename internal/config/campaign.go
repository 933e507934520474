package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
)

// Feature toggle names accepted in a campaign's disabled_features list.
const (
	FeatureAlerts      = "alerts"
	FeatureWarnings    = "warnings"
	FeatureRoster      = "roster"
	FeatureAward       = "award"
	FeatureCombat      = "combat"
	FeaturePace        = "pace"
	FeatureAnniversary = "anniversary"
	FeatureRecruitment = "recruitment"
	FeatureMilestones  = "milestones"
	FeatureSilence     = "silence"
)

var knownFeatures = map[string]bool{
	FeatureAlerts:      true,
	FeatureWarnings:    true,
	FeatureRoster:      true,
	FeatureAward:       true,
	FeatureCombat:      true,
	FeaturePace:        true,
	FeatureAnniversary: true,
	FeatureRecruitment: true,
	FeatureMilestones:  true,
	FeatureSilence:     true,
}

// TopicPair describes one campaign: the forum topics where play happens and
// the chat topic where the bot posts. The first pbp topic id is the
// campaign's canonical id; the rest are split topics folded into it.
type TopicPair struct {
	Name             string           `json:"name"`
	ChatTopicID      int64            `json:"chat_topic_id"`
	PBPTopicIDs      []int64          `json:"pbp_topic_ids"`
	Created          string           `json:"created,omitempty"` // YYYY-MM-DD
	DisabledFeatures []string         `json:"disabled_features,omitempty"`
	Characters       map[int64]string `json:"characters,omitempty"`
	GMUserIDs        []int64          `json:"gm_user_ids,omitempty"` // replaces the global set for this campaign
}

// Canonical returns the campaign's canonical topic id (first pbp topic id),
// or 0 when the pair has no topics configured.
func (p *TopicPair) Canonical() int64 {
	if len(p.PBPTopicIDs) == 0 {
		return 0
	}
	return p.PBPTopicIDs[0]
}

// FeatureEnabled reports whether a named check family runs for this campaign.
func (p *TopicPair) FeatureEnabled(name string) bool {
	for _, f := range p.DisabledFeatures {
		if f == name {
			return false
		}
	}
	return true
}

// GroupConfig is the static group configuration file: the watched chat, the
// GM roster, and one TopicPair per campaign, plus an optional settings block
// overriding engine tunables.
type GroupConfig struct {
	GroupID            int64           `json:"group_id"`
	GroupName          string          `json:"group_name,omitempty"`
	LeaderboardTopicID int64           `json:"leaderboard_topic_id,omitempty"` // 0 = first campaign's chat topic
	GMUserIDs          []int64         `json:"gm_user_ids"`
	TopicPairs         []TopicPair     `json:"topic_pairs"`
	SettingsBlock      json.RawMessage `json:"settings,omitempty"`

	// Version is the reload token: derived lookup structures cache against
	// it, never against pointer identity.
	Version int64 `json:"-"`

	settings Settings
	maps     atomic.Pointer[TopicMaps]
}

const defaultGroupName = "Path Wars"

var configVersions atomic.Int64

// LoadGroupConfig reads and resolves the group configuration file. Settings
// are defaults overlaid with the file's settings block. Validation is the
// caller's job (see Validate); Load fails only on unreadable or unparsable
// input.
func LoadGroupConfig(path string) (*GroupConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read group config: %w", err)
	}
	return ParseGroupConfig(data)
}

// ParseGroupConfig resolves group configuration from raw JSON.
func ParseGroupConfig(data []byte) (*GroupConfig, error) {
	var gc GroupConfig
	if err := json.Unmarshal(data, &gc); err != nil {
		return nil, fmt.Errorf("parse group config: %w", err)
	}

	if gc.GroupName == "" {
		gc.GroupName = defaultGroupName
	}

	gc.settings = DefaultSettings()
	if len(gc.SettingsBlock) > 0 {
		if err := json.Unmarshal(gc.SettingsBlock, &gc.settings); err != nil {
			return nil, fmt.Errorf("parse settings block: %w", err)
		}
	}

	gc.Version = configVersions.Add(1)
	return &gc, nil
}

// Settings returns the resolved tunables for this configuration. The value
// is a copy; callers thread it through the run explicitly.
func (c *GroupConfig) Settings() Settings {
	return c.settings
}

// Pair returns the TopicPair owning a canonical campaign id.
func (c *GroupConfig) Pair(campaign int64) *TopicPair {
	for i := range c.TopicPairs {
		if c.TopicPairs[i].Canonical() == campaign {
			return &c.TopicPairs[i]
		}
	}
	return nil
}
