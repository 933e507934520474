package config

import (
	"fmt"
	"time"
)

// Problem is a single validation finding. Fatal problems stop the engine;
// the rest are reported and tolerated.
type Problem struct {
	Fatal   bool
	Message string
}

func fatalf(format string, args ...interface{}) Problem {
	return Problem{Fatal: true, Message: fmt.Sprintf(format, args...)}
}

func warnf(format string, args ...interface{}) Problem {
	return Problem{Message: fmt.Sprintf(format, args...)}
}

// HasFatal reports whether any problem in the list is fatal.
func HasFatal(problems []Problem) bool {
	for _, p := range problems {
		if p.Fatal {
			return true
		}
	}
	return false
}

// Validate checks the group configuration for contradictions the engine
// cannot run with (fatal) and suspicious-but-workable entries (warnings).
func (c *GroupConfig) Validate() []Problem {
	var problems []Problem

	if c.GroupID == 0 {
		problems = append(problems, fatalf("group_id is required"))
	}
	if len(c.TopicPairs) == 0 {
		problems = append(problems, fatalf("topic_pairs must contain at least one campaign"))
	}
	if len(c.GMUserIDs) == 0 {
		problems = append(problems, warnf("gm_user_ids is empty; every poster counts as a player"))
	}

	seenNames := make(map[string]bool)
	seenTopics := make(map[int64]string)
	for i := range c.TopicPairs {
		pair := &c.TopicPairs[i]
		label := pair.Name
		if label == "" {
			label = fmt.Sprintf("topic_pairs[%d]", i)
			problems = append(problems, fatalf("%s: name is required", label))
		}
		if seenNames[pair.Name] && pair.Name != "" {
			problems = append(problems, fatalf("duplicate campaign name %q", pair.Name))
		}
		seenNames[pair.Name] = true

		if len(pair.PBPTopicIDs) == 0 {
			problems = append(problems, fatalf("%s: pbp_topic_ids must not be empty", label))
		}
		for _, topic := range pair.PBPTopicIDs {
			if owner, dup := seenTopics[topic]; dup {
				problems = append(problems, fatalf(
					"%s: pbp topic %d already belongs to %s", label, topic, owner))
			}
			seenTopics[topic] = label
		}

		if pair.ChatTopicID == 0 {
			problems = append(problems, fatalf("%s: chat_topic_id is required", label))
		}

		if pair.Created != "" {
			if _, err := time.Parse("2006-01-02", pair.Created); err != nil {
				problems = append(problems, fatalf("%s: created %q is not YYYY-MM-DD", label, pair.Created))
			}
		} else {
			problems = append(problems, warnf("%s: no created date; anniversaries are skipped", label))
		}

		for _, f := range pair.DisabledFeatures {
			if !knownFeatures[f] {
				problems = append(problems, warnf("%s: unknown feature toggle %q ignored", label, f))
			}
		}
	}

	for _, msg := range c.settings.validate() {
		problems = append(problems, fatalf("settings: %s", msg))
	}

	return problems
}
