package knowledge

import (
	"sort"
	"time"
)

// topTopicsLimit caps the topic leaderboard in Stats.
const topTopicsLimit = 10

// TopicCount is one entry in the topic leaderboard.
type TopicCount struct {
	// Topic is the tag value.
	Topic string `json:"topic"`
	// Count is the number of documents carrying the tag.
	Count int `json:"count"`
}

// Stats is the aggregate view of a store, derived in a single pass.
// It is a display aggregate, not a correctness-critical path.
type Stats struct {
	// TotalDocuments is the document count.
	TotalDocuments int `json:"totalDocuments"`
	// LastIndexUpdate is the instant of the most recent mutation.
	LastIndexUpdate time.Time `json:"lastIndexUpdate"`
	// DocumentTypes counts documents grouped by type.
	DocumentTypes map[DocType]int `json:"documentTypes"`
	// DifficultyLevels counts documents grouped by difficulty.
	DifficultyLevels map[Difficulty]int `json:"difficultyLevels"`
	// TopTopics is the ten most frequent topics, descending by count.
	TopTopics []TopicCount `json:"topTopics"`
}

// Stats scans the store once and derives the aggregate analytics view.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Stats{
		TotalDocuments:   len(s.docs),
		LastIndexUpdate:  s.lastUpdate,
		DocumentTypes:    make(map[DocType]int),
		DifficultyLevels: make(map[Difficulty]int),
	}

	topicCounts := make(map[string]int)
	for _, id := range s.order {
		doc := s.docs[id]
		out.DocumentTypes[doc.Metadata.Type]++
		out.DifficultyLevels[doc.Metadata.Difficulty]++
		for _, topic := range doc.Metadata.Topics {
			topicCounts[topic]++
		}
	}

	topics := make([]TopicCount, 0, len(topicCounts))
	for topic, count := range topicCounts {
		topics = append(topics, TopicCount{Topic: topic, Count: count})
	}
	// Ties broken by name so the leaderboard is deterministic.
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Topic < topics[j].Topic
	})
	if len(topics) > topTopicsLimit {
		topics = topics[:topTopicsLimit]
	}
	out.TopTopics = topics

	return out
}
