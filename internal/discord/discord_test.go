package discord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/command/commandtest"
	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeCommand struct {
	name   string
	roles  []string
	err    error
	before func(v *command.SlashInteractionContext) error
	got    []*cmd.Invocation
}

func (f *fakeCommand) Name() string        { return f.name }
func (f *fakeCommand) Description() string { return f.name + " command" }
func (f *fakeCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	f.got = append(f.got, inv)
	if f.before != nil {
		if err := f.before(inv.Data.(*command.SlashInteractionContext)); err != nil {
			return err
		}
	}
	return f.err
}
func (f *fakeCommand) Roles(g *config.Guild) []string { return f.roles }
func (f *fakeCommand) SlashDefinition(g *config.Guild) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: f.name, Description: f.Description()}
}

type mockRegistrar struct{ mock.Mock }

func (m *mockRegistrar) ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID)
	return args.Get(0).([]*discordgo.ApplicationCommand), args.Error(1)
}

func (m *mockRegistrar) ApplicationCommandCreate(appID string, guildID string, c *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.ApplicationCommand), args.Error(1)
}

func (m *mockRegistrar) ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error {
	return m.Called(appID, guildID, cmdID).Error(0)
}

func (m *mockRegistrar) ApplicationCommandPermissionsEdit(appID, guildID, cmdID string, permissions *discordgo.ApplicationCommandPermissionsList, options ...discordgo.RequestOption) error {
	return m.Called(appID, guildID, cmdID, permissions).Error(0)
}

func byName(name string) interface{} {
	return mock.MatchedBy(func(c *discordgo.ApplicationCommand) bool { return c.Name == name })
}

func testRegistry(t *testing.T, cmds ...cmd.Command) *cmd.Registry {
	t.Helper()
	reg := cmd.NewRegistry()
	for _, c := range cmds {
		require.NoError(t, command.RegisterCommand(reg, c))
	}
	return reg
}

func TestDefinitions_Visibility(t *testing.T) {
	g := &config.Guild{ID: "g1"}
	reg := testRegistry(t,
		&fakeCommand{name: "open"},
		&fakeCommand{name: "staff", roles: []string{"r1"}},
	)

	defs := Definitions(reg, g)
	require.Len(t, defs, 2)
	assert.Equal(t, "open", defs[0].Name)
	assert.Nil(t, defs[0].DefaultMemberPermissions)
	assert.Equal(t, discordgo.ChatApplicationCommand, defs[0].Type)
	require.NotNil(t, defs[1].DefaultMemberPermissions)
	assert.Zero(t, *defs[1].DefaultMemberPermissions)
}

func TestRegisterCommands(t *testing.T) {
	g := &config.Guild{ID: "g1", ApplyPermissions: true}
	reg := testRegistry(t,
		&fakeCommand{name: "open"},
		&fakeCommand{name: "staff", roles: []string{"r1", "r2"}},
	)

	api := &mockRegistrar{}
	api.On("ApplicationCommands", "app", "g1").Return([]*discordgo.ApplicationCommand{
		{ID: "old1", Name: "gone"},
		{ID: "old2", Name: "open"},
	}, nil)
	api.On("ApplicationCommandDelete", "app", "g1", "old1").Return(nil).Once()
	api.On("ApplicationCommandCreate", "app", "g1", byName("open")).Return(&discordgo.ApplicationCommand{ID: "c1", Name: "open"}, nil)
	api.On("ApplicationCommandCreate", "app", "g1", byName("staff")).Return(&discordgo.ApplicationCommand{ID: "c2", Name: "staff"}, nil)
	api.On("ApplicationCommandPermissionsEdit", "app", "g1", "c2", mock.MatchedBy(func(l *discordgo.ApplicationCommandPermissionsList) bool {
		return len(l.Permissions) == 2 && l.Permissions[0].ID == "r1" && l.Permissions[1].ID == "r2" && l.Permissions[0].Permission
	})).Return(nil).Once()

	require.NoError(t, RegisterCommands(api, "app", g, reg))
	api.AssertExpectations(t)
	api.AssertNotCalled(t, "ApplicationCommandPermissionsEdit", "app", "g1", "c1", mock.Anything)
}

func TestRegisterCommands_SkipsGrantsWhenDisabled(t *testing.T) {
	g := &config.Guild{ID: "g1"}
	reg := testRegistry(t, &fakeCommand{name: "staff", roles: []string{"r1"}})

	api := &mockRegistrar{}
	api.On("ApplicationCommands", "app", "g1").Return([]*discordgo.ApplicationCommand{}, nil)
	api.On("ApplicationCommandCreate", "app", "g1", byName("staff")).Return(&discordgo.ApplicationCommand{ID: "c1"}, nil)

	require.NoError(t, RegisterCommands(api, "app", g, reg))
	api.AssertNotCalled(t, "ApplicationCommandPermissionsEdit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterCommands_FailureAborts(t *testing.T) {
	g := &config.Guild{ID: "g1"}
	reg := testRegistry(t, &fakeCommand{name: "a"}, &fakeCommand{name: "b"})

	api := &mockRegistrar{}
	api.On("ApplicationCommands", "app", "g1").Return([]*discordgo.ApplicationCommand{}, nil)
	api.On("ApplicationCommandCreate", "app", "g1", byName("a")).Return(nil, errors.New("403 Forbidden"))

	err := RegisterCommands(api, "app", g, reg)
	assert.ErrorContains(t, err, "register command a")
	api.AssertNotCalled(t, "ApplicationCommandCreate", "app", "g1", byName("b"))
}

func TestDispatch_ResolvesSubCommand(t *testing.T) {
	notes := &fakeCommand{name: "notes"}
	svc := &command.Services{Guild: &config.Guild{ID: "g1"}}
	d := NewDispatcher(testRegistry(t, notes), svc)

	e := commandtest.Slash("g1", "c1", "1", nil, "notes", commandtest.Sub("add", commandtest.UserOpt("user", "2")))
	d.Dispatch(context.Background(), commandtest.NewFakeSession(), e)

	require.Len(t, notes.got, 1)
	assert.Equal(t, "add", notes.got[0].Sub())
	v := notes.got[0].Data.(*command.SlashInteractionContext)
	assert.Same(t, svc, v.Services)
}

func TestDispatch_UnknownCommandIsIgnored(t *testing.T) {
	fs := commandtest.NewFakeSession()
	d := NewDispatcher(testRegistry(t), &command.Services{})
	d.Dispatch(context.Background(), fs, commandtest.Slash("g1", "c1", "1", nil, "nope"))
	assert.Empty(t, fs.Calls)
}

func TestDispatch_Failures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		answered  bool
		wantTitle string
	}{
		{name: "transport", err: errors.New("boom"), wantTitle: "Something went wrong!"},
		{name: "database", err: command.DatabaseError("list notes", errors.New("locked")), wantTitle: "Database Error!"},
		{name: "already acknowledged", err: errors.New("boom"), answered: true, wantTitle: "Something went wrong!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := commandtest.NewFakeSession()
			if tt.answered {
				fs.Errors["InteractionRespond"] = errors.New("interaction has already been acknowledged")
			}
			d := NewDispatcher(testRegistry(t, &fakeCommand{name: "x", err: tt.err}), &command.Services{})
			d.Dispatch(context.Background(), fs, commandtest.Slash("g1", "c1", "1", nil, "x"))

			assert.Equal(t, tt.wantTitle, fs.LastText())
			if tt.answered {
				require.Len(t, fs.Followups, 1)
				assert.Equal(t, discordgo.MessageFlagsEphemeral, fs.Followups[0].Flags)
			} else {
				require.Len(t, fs.Responses, 1)
				assert.Equal(t, discordgo.MessageFlagsEphemeral, fs.Responses[0].Data.Flags)
			}
		})
	}
}

func TestDispatch_FailureAfterAcknowledge(t *testing.T) {
	deferPublic := func(v *command.SlashInteractionContext) error {
		_, err := v.Acknowledge(false)
		return err
	}
	finishFirst := func(v *command.SlashInteractionContext) error {
		d, err := v.Acknowledge(false)
		if err != nil {
			return err
		}
		return d.Finalize(&discordgo.MessageEmbed{Title: "Page 1 of 2"})
	}

	t.Run("pending placeholder is finalized", func(t *testing.T) {
		fs := commandtest.NewFakeSession()
		c := &fakeCommand{name: "notes", err: command.DatabaseError("list notes", errors.New("locked")), before: deferPublic}
		NewDispatcher(testRegistry(t, c), &command.Services{}).
			Dispatch(context.Background(), fs, commandtest.Slash("g1", "c1", "1", nil, "notes"))

		assert.Equal(t, 1, fs.Count("InteractionRespond"), "no second response to an acknowledged interaction")
		assert.Empty(t, fs.Followups)
		require.Len(t, fs.Edits, 1)
		assert.Equal(t, "Database Error!", fs.LastText())
	})

	t.Run("finished response gets a follow-up", func(t *testing.T) {
		fs := commandtest.NewFakeSession()
		c := &fakeCommand{name: "notes", err: errors.New("unknown webhook"), before: finishFirst}
		NewDispatcher(testRegistry(t, c), &command.Services{}).
			Dispatch(context.Background(), fs, commandtest.Slash("g1", "c1", "1", nil, "notes"))

		assert.Equal(t, 1, fs.Count("InteractionRespond"))
		require.Len(t, fs.Edits, 1, "the delivered page is left alone")
		require.Len(t, fs.Followups, 1)
		assert.Equal(t, discordgo.MessageFlagsEphemeral, fs.Followups[0].Flags)
		assert.Equal(t, "Something went wrong!", fs.LastText())
	})
}

func TestBot_RegistersOnFirstReadyOnly(t *testing.T) {
	g := &config.Guild{ID: "g1"}
	reg := testRegistry(t, &fakeCommand{name: "ping"})

	api := &mockRegistrar{}
	api.On("ApplicationCommands", "app", "g1").Return([]*discordgo.ApplicationCommand{}, nil).Once()
	api.On("ApplicationCommandCreate", "app", "g1", byName("ping")).Return(&discordgo.ApplicationCommand{ID: "c1"}, nil).Once()

	b := NewBot(&discordgo.Session{}, g, reg, &command.Services{})
	b.api = api

	r := &discordgo.Ready{User: &discordgo.User{ID: "app", Username: "scrims"}}
	b.ready(r)
	b.ready(r)

	api.AssertExpectations(t)
	api.AssertNumberOfCalls(t, "ApplicationCommands", 1)
	api.AssertNumberOfCalls(t, "ApplicationCommandCreate", 1)
	select {
	case err := <-b.errCh:
		t.Fatalf("unexpected failure: %v", err)
	default:
	}
}

func TestBot_RegistrationFailureIsReported(t *testing.T) {
	g := &config.Guild{ID: "g1"}
	api := &mockRegistrar{}
	api.On("ApplicationCommands", "app", "g1").Return([]*discordgo.ApplicationCommand{}, errors.New("502 Bad Gateway"))

	b := NewBot(&discordgo.Session{}, g, testRegistry(t), &command.Services{})
	b.api = api
	b.ready(&discordgo.Ready{User: &discordgo.User{ID: "app"}})

	select {
	case err := <-b.errCh:
		assert.ErrorContains(t, err, "register commands")
	default:
		t.Fatal("registration failure not reported")
	}
}

func TestBot_DrainWaitsForInteractions(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := &fakeCommand{name: "slow", before: func(*command.SlashInteractionContext) error {
		close(started)
		<-release
		return nil
	}}
	b := NewBot(&discordgo.Session{}, &config.Guild{ID: "g1"}, testRegistry(t, slow), &command.Services{})

	go b.onInteractionCreate(nil, commandtest.Slash("g1", "c1", "1", nil, "slow"))
	<-started

	drained := make(chan struct{})
	go func() {
		b.drain()
		close(drained)
	}()

	select {
	case <-drained:
		t.Fatal("drain returned while a command was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("drain did not return after the command finished")
	}
}
