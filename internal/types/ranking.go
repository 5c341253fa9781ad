package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metric selects which contribution statistic a ranking counts.
type Metric string

const (
	MetricPosts    Metric = "posts"
	MetricComments Metric = "comments"
)

// ParseMetric converts a user-supplied string into a Metric.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricPosts, MetricComments:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown metric %q (valid: posts, comments)", s)
}

// CountField is the JSON key under which a row reports its count.
func (m Metric) CountField() string {
	if m == MetricComments {
		return "comment_count"
	}
	return "post_count"
}

// RankingRow is one ranked member for one metric and period.
type RankingRow struct {
	Rank        int
	MemberID    string
	UserID      string
	NickName    string
	MemberLevel string
	Count       int
	Metric      Metric
}

// MarshalJSON emits the count under post_count or comment_count,
// depending on the row's metric.
func (r RankingRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"rank":                r.Rank,
		"memberId":            r.MemberID,
		"userId":              r.UserID,
		"nickName":            r.NickName,
		"memberLevel":         r.MemberLevel,
		r.Metric.CountField(): r.Count,
	})
}

// RankingSnapshot is the result of one successful ranking run.
type RankingSnapshot struct {
	Posts       []RankingRow `json:"posts"`
	Comments    []RankingRow `json:"comments"`
	CollectedAt time.Time    `json:"collected_at"`
}

// Clone returns a deep copy of the snapshot.
func (s RankingSnapshot) Clone() RankingSnapshot {
	return RankingSnapshot{
		Posts:       append([]RankingRow(nil), s.Posts...),
		Comments:    append([]RankingRow(nil), s.Comments...),
		CollectedAt: s.CollectedAt,
	}
}

// IsZero reports whether no ranking run has completed yet.
func (s RankingSnapshot) IsZero() bool {
	return s.CollectedAt.IsZero() && len(s.Posts) == 0 && len(s.Comments) == 0
}

// NicknameEntry is one harvest of recent-post author nicknames.
type NicknameEntry struct {
	Nicknames   []string  `json:"nicknames"`
	CollectedAt time.Time `json:"timestamp"`
	Count       int       `json:"count"`
}

// NewNicknameEntry builds an entry, keeping the first occurrence of each
// nickname in insertion order.
func NewNicknameEntry(nicknames []string, at time.Time) NicknameEntry {
	seen := make(map[string]struct{}, len(nicknames))
	unique := make([]string, 0, len(nicknames))
	for _, n := range nicknames {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}
	return NicknameEntry{Nicknames: unique, CollectedAt: at, Count: len(unique)}
}

// Clone returns a deep copy of the entry.
func (e NicknameEntry) Clone() NicknameEntry {
	e.Nicknames = append([]string(nil), e.Nicknames...)
	return e
}
