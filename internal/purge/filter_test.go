package purge

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(content string) *discordgo.Message {
	return &discordgo.Message{ID: "1", ChannelID: "c", Content: content, Author: &discordgo.User{ID: "100"}}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		filter  string
		user    string
		text    string
		want    Filter
		wantErr error
	}{
		{name: "all", filter: "all", want: Filter{Kind: All}},
		{name: "case and spaces", filter: " Links ", want: Filter{Kind: ContainsLink}},
		{name: "from user", filter: "from_user", user: "123", want: Filter{Kind: FromActor, Actor: 123}},
		{name: "from user without user", filter: "from_user", wantErr: ErrMissingUser},
		{name: "from user with bad id", filter: "from_user", user: "abc", wantErr: ErrInvalidUser},
		{name: "contains lowers needle", filter: "contains", text: "AbC", want: Filter{Kind: ContainsText, Needle: "abc"}},
		{name: "contains without text", filter: "contains", wantErr: ErrMissingText},
		{name: "bots", filter: "bots", want: Filter{Kind: IsAutomated}},
		{name: "unknown", filter: "reactions", wantErr: ErrUnknownFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.filter, tt.user, tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_ContainsTextIsCaseInsensitive(t *testing.T) {
	f, err := ParseFilter("contains", "", "abc")
	require.NoError(t, err)

	for _, content := range []string{"ABC", "abc", "xAbCy"} {
		assert.True(t, f.Match(msg(content)), content)
	}
	assert.False(t, f.Match(msg("ab c")))
}

func TestFilter_Match(t *testing.T) {
	bot := &discordgo.Message{Author: &discordgo.User{ID: "7", Bot: true}}
	image := &discordgo.Message{Attachments: []*discordgo.MessageAttachment{{Height: 64, Width: 64}}}
	file := &discordgo.Message{Attachments: []*discordgo.MessageAttachment{{Filename: "log.txt"}}}
	imageSecond := &discordgo.Message{Attachments: []*discordgo.MessageAttachment{{Filename: "a.txt"}, {Height: 10}}}
	embed := &discordgo.Message{Embeds: []*discordgo.MessageEmbed{{Title: "x"}}}

	tests := []struct {
		name   string
		filter Filter
		msg    *discordgo.Message
		want   bool
	}{
		{"all matches anything", Filter{Kind: All}, msg(""), true},
		{"nil message", Filter{Kind: All}, nil, false},
		{"from actor numeric equal", Filter{Kind: FromActor, Actor: 100}, msg("hi"), true},
		{"from actor leading zero", Filter{Kind: FromActor, Actor: 100}, &discordgo.Message{Author: &discordgo.User{ID: "0100"}}, true},
		{"from actor other", Filter{Kind: FromActor, Actor: 101}, msg("hi"), false},
		{"from actor no author", Filter{Kind: FromActor, Actor: 100}, &discordgo.Message{}, false},
		{"embed present", Filter{Kind: HasEmbed}, embed, true},
		{"embed absent", Filter{Kind: HasEmbed}, msg("x"), false},
		{"image with dimensions", Filter{Kind: IsImage}, image, true},
		{"plain file is not image", Filter{Kind: IsImage}, file, false},
		{"only first attachment counts", Filter{Kind: IsImage}, imageSecond, false},
		{"attachment present", Filter{Kind: HasAttachment}, file, true},
		{"attachment absent", Filter{Kind: HasAttachment}, msg("x"), false},
		{"bot author", Filter{Kind: IsAutomated}, bot, true},
		{"human author", Filter{Kind: IsAutomated}, msg("x"), false},
		{"https link", Filter{Kind: ContainsLink}, msg("see HTTPS://example.com"), true},
		{"http inside word", Filter{Kind: ContainsLink}, msg("xhttp://y"), true},
		{"bare domain", Filter{Kind: ContainsLink}, msg("example.com"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.msg))
		})
	}
}

func TestChoices(t *testing.T) {
	var names []string
	for _, c := range Choices() {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.Label)
	}
	assert.Equal(t, []string{"all", "from_user", "embeds", "images", "attachments", "contains", "bots", "links"}, names)
	assert.Equal(t, "contains", ContainsText.String())
}
