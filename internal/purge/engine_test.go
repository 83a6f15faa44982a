package purge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// sliceHistory yields items in order, counting every Next call.
type sliceHistory struct {
	items []item
	calls int
}

type item struct {
	msg *discordgo.Message
	err error
}

func (h *sliceHistory) Next(ctx context.Context) (*discordgo.Message, error) {
	h.calls++
	if len(h.items) == 0 {
		return nil, io.EOF
	}
	it := h.items[0]
	h.items = h.items[1:]
	return it.msg, it.err
}

func messages(n int) *sliceHistory {
	h := &sliceHistory{}
	for i := 0; i < n; i++ {
		h.items = append(h.items, item{msg: &discordgo.Message{ID: fmt.Sprint(i), ChannelID: "chan", Content: fmt.Sprint("message ", i)}})
	}
	return h
}

type mockDeleter struct {
	mock.Mock
}

func (m *mockDeleter) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	args := m.Called(channelID, messageID)
	return args.Error(0)
}

func TestEngine_AllDeletesExactlyMaxScan(t *testing.T) {
	d := &mockDeleter{}
	d.On("ChannelMessageDelete", "chan", mock.Anything).Return(nil)

	h := messages(30)
	r := NewEngine(d, nil).Run(context.Background(), h, Filter{Kind: All}, 10)

	assert.Equal(t, Report{Scanned: 10, Matched: 10, Deleted: 10}, r)
	d.AssertNumberOfCalls(t, "ChannelMessageDelete", 10)
	for i := 0; i < 10; i++ {
		d.AssertCalled(t, "ChannelMessageDelete", "chan", fmt.Sprint(i))
	}
	d.AssertNotCalled(t, "ChannelMessageDelete", "chan", "10")
}

func TestEngine_NeverExceedsMaxScanFetches(t *testing.T) {
	d := &mockDeleter{}
	d.On("ChannelMessageDelete", mock.Anything, mock.Anything).Return(nil)

	for _, k := range []int{1, 5, 50} {
		t.Run(fmt.Sprint(k), func(t *testing.T) {
			h := messages(200)
			NewEngine(d, nil).Run(context.Background(), h, Filter{Kind: All}, k)
			assert.Equal(t, k, h.calls)
		})
	}
}

func TestEngine_DefaultMaxScan(t *testing.T) {
	d := &mockDeleter{}
	d.On("ChannelMessageDelete", mock.Anything, mock.Anything).Return(nil)

	h := messages(80)
	r := NewEngine(d, nil).Run(context.Background(), h, Filter{Kind: All}, 0)
	assert.Equal(t, DefaultMaxScan, r.Scanned)
	assert.Equal(t, DefaultMaxScan, h.calls)
}

func TestEngine_BoundLimitsScannedNotMatched(t *testing.T) {
	d := &mockDeleter{}
	d.On("ChannelMessageDelete", mock.Anything, mock.Anything).Return(nil)

	h := messages(20)
	h.items[3].msg.Content = "link https://a"
	h.items[12].msg.Content = "link https://b"

	r := NewEngine(d, nil).Run(context.Background(), h, Filter{Kind: ContainsLink}, 10)
	assert.Equal(t, Report{Scanned: 10, Matched: 1, Deleted: 1}, r)
	d.AssertCalled(t, "ChannelMessageDelete", "chan", "3")
	d.AssertNotCalled(t, "ChannelMessageDelete", "chan", "12")
}

func TestEngine_SkipsFailures(t *testing.T) {
	d := &mockDeleter{}
	d.On("ChannelMessageDelete", "chan", "0").Return(errors.New("unknown message"))
	d.On("ChannelMessageDelete", "chan", mock.Anything).Return(nil)

	h := messages(3)
	h.items = append(h.items[:1], append([]item{{err: errors.New("fetch failed")}}, h.items[1:]...)...)

	r := NewEngine(d, nil).Run(context.Background(), h, Filter{Kind: All}, 10)
	assert.Equal(t, Report{Scanned: 4, Skipped: 1, Matched: 3, Deleted: 2, Failed: 1}, r)
}

func TestEngine_StreamExhaustedEarly(t *testing.T) {
	d := &mockDeleter{}
	h := messages(0)
	r := NewEngine(d, nil).Run(context.Background(), h, Filter{Kind: All}, 10)
	assert.Equal(t, Report{}, r)
	assert.Equal(t, 1, h.calls)
	d.AssertNotCalled(t, "ChannelMessageDelete", mock.Anything, mock.Anything)
}

func TestRESTClassifier(t *testing.T) {
	tooMany := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
	notFound := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}

	assert.True(t, RESTClassifier(fmt.Errorf("delete: %w", tooMany)))
	assert.False(t, RESTClassifier(notFound))
	assert.False(t, RESTClassifier(errors.New("plain")))
}

// pagedLister serves a fixed channel history newest first.
type pagedLister struct {
	ids   []string
	calls []string
	fail  int
}

func (p *pagedLister) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	p.calls = append(p.calls, beforeID)
	if p.fail > 0 {
		p.fail--
		return nil, errors.New("gateway timeout")
	}
	start := 0
	if beforeID != "" {
		for i, id := range p.ids {
			if id == beforeID {
				start = i + 1
			}
		}
	}
	end := min(start+limit, len(p.ids))
	var out []*discordgo.Message
	for _, id := range p.ids[start:end] {
		out = append(out, &discordgo.Message{ID: id, ChannelID: channelID})
	}
	return out, nil
}

func TestChannelHistory_PagesLazily(t *testing.T) {
	lister := &pagedLister{ids: []string{"9", "8", "7", "6", "5"}}
	h := NewChannelHistory(lister, "chan", 2)

	var got []string
	for {
		m, err := h.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, m.ID)
	}

	assert.Equal(t, []string{"9", "8", "7", "6", "5"}, got)
	assert.Equal(t, []string{"", "8", "6"}, lister.calls, "short page ends the stream")

	_, err := h.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF, "history is not restartable")
}

func TestChannelHistory_ErrorIsPerItem(t *testing.T) {
	lister := &pagedLister{ids: []string{"3", "2", "1"}, fail: 1}
	h := NewChannelHistory(lister, "chan", 100)

	_, err := h.Next(context.Background())
	require.Error(t, err)

	m, err := h.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", m.ID)
}

func TestChannelHistory_WithEngine(t *testing.T) {
	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprint(1000 - i)
	}
	lister := &pagedLister{ids: ids}
	d := &mockDeleter{}
	d.On("ChannelMessageDelete", "chan", mock.Anything).Return(nil)

	r := NewEngine(d, nil).Run(context.Background(), NewChannelHistory(lister, "chan", 100), Filter{Kind: All}, 120)
	assert.Equal(t, 120, r.Deleted)
	assert.Len(t, lister.calls, 2)
}

func TestNewChannelHistory_ClampsPageSize(t *testing.T) {
	assert.Equal(t, maxPageSize, NewChannelHistory(nil, "c", 0).pageSize)
	assert.Equal(t, maxPageSize, NewChannelHistory(nil, "c", 500).pageSize)
	assert.Equal(t, 25, NewChannelHistory(nil, "c", 25).pageSize)
}
