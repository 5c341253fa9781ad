package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingRowJSONUsesMetricCountField(t *testing.T) {
	row := RankingRow{Rank: 1, MemberID: "m1", UserID: "u1", NickName: "수산나", Count: 10, Metric: MetricComments}

	data, err := json.Marshal(row)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(10), got["comment_count"])
	assert.NotContains(t, got, "post_count")
	assert.Contains(t, string(data), "수산나", "non-ASCII nicknames must not be escaped")
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("posts")
	require.NoError(t, err)
	assert.Equal(t, MetricPosts, m)

	_, err = ParseMetric("likes")
	assert.Error(t, err)
}

func TestNewNicknameEntryDedupsInOrder(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := NewNicknameEntry([]string{"b", "a", "b", "c", "a"}, at)

	assert.Equal(t, []string{"b", "a", "c"}, e.Nicknames)
	assert.Equal(t, 3, e.Count)
	assert.Equal(t, at, e.CollectedAt)
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := RankingSnapshot{Posts: []RankingRow{{Rank: 1, NickName: "a"}}}
	c := s.Clone()
	c.Posts[0].NickName = "changed"
	assert.Equal(t, "a", s.Posts[0].NickName)
}

func TestAcquisitionErrorUnwrapsBothCauses(t *testing.T) {
	remote := errors.New("connection refused")
	local := errors.New("chromium not found")
	err := error(&AcquisitionError{Remote: remote, Local: local})

	assert.ErrorIs(t, err, remote)
	assert.ErrorIs(t, err, local)
	assert.Contains(t, err.Error(), "remote: connection refused")
	assert.Contains(t, err.Error(), "local: chromium not found")
}
