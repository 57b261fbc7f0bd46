package repository

import (
	"context"
	"testing"

	"github.com/FrankKleiton/vote-app/models"
	"github.com/FrankKleiton/vote-app/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *GormStore {
	t.Helper()
	return NewGormStore(testutil.OpenTestDB(t))
}

func optionTexts(options []models.Option) []string {
	texts := make([]string, len(options))
	for i, o := range options {
		texts[i] = o.Text
	}
	return texts
}

func TestCreateUser_ThenFind(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created, err := store.CreateUser(ctx, "alice")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := store.FindUser(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "alice", found.Name)
}

func TestFindUser_NotFound(t *testing.T) {
	store := setupStore(t)

	found, err := store.FindUser(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestCreatePoll(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "alice")
	require.NoError(t, err)

	poll, err := store.CreatePoll(ctx, user.ID, "Favourite language?", []string{"Go", "Rust", "Zig"})
	require.NoError(t, err)
	assert.NotZero(t, poll.ID)
	assert.Equal(t, user.ID, poll.UserID)
	require.NotNil(t, poll.User)
	assert.Equal(t, "alice", poll.User.Name)
	require.Len(t, poll.Options, 3)
	for _, o := range poll.Options {
		assert.NotZero(t, o.ID)
		assert.Equal(t, poll.ID, o.PollID)
	}

	loaded, err := store.FindPoll(ctx, poll.ID, FullPoll())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Favourite language?", loaded.Description)
	assert.ElementsMatch(t, []string{"Go", "Rust", "Zig"}, optionTexts(loaded.Options))
	assert.Empty(t, loaded.Votes)
	require.NotNil(t, loaded.User)
	assert.Equal(t, user.ID, loaded.User.ID)
}

func TestCreatePoll_NoOptions(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "bob")
	require.NoError(t, err)

	poll, err := store.CreatePoll(ctx, user.ID, "Empty poll", nil)
	require.NoError(t, err)

	options, err := store.OptionsByPoll(ctx, poll.ID)
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestCreatePoll_UnknownCreator(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreatePoll(ctx, 99, "Orphan", []string{"a", "b"})
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	polls, err := store.ListPolls(ctx, PollRelations{})
	require.NoError(t, err)
	assert.Empty(t, polls)
}

func TestCreateVote(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	author, _ := store.CreateUser(ctx, "author")
	voter, _ := store.CreateUser(ctx, "voter")
	poll, err := store.CreatePoll(ctx, author.ID, "Tabs or spaces?", []string{"Tabs", "Spaces"})
	require.NoError(t, err)
	option := poll.Options[1]

	vote, err := store.CreateVote(ctx, voter.ID, poll.ID, option.ID)
	require.NoError(t, err)
	assert.NotZero(t, vote.ID)
	require.NotNil(t, vote.User)
	require.NotNil(t, vote.Poll)
	require.NotNil(t, vote.Option)
	assert.Equal(t, "voter", vote.User.Name)
	assert.Equal(t, poll.ID, vote.Poll.ID)
	assert.Equal(t, "Spaces", vote.Option.Text)

	loaded, err := store.FindPoll(ctx, poll.ID, FullPoll())
	require.NoError(t, err)
	require.Len(t, loaded.Votes, 1)
	require.NotNil(t, loaded.Votes[0].User)
	require.NotNil(t, loaded.Votes[0].Option)
	assert.Equal(t, voter.ID, loaded.Votes[0].User.ID)
	assert.Equal(t, option.ID, loaded.Votes[0].Option.ID)
}

func TestCreateVote_InvalidReferences(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	author, _ := store.CreateUser(ctx, "author")
	first, err := store.CreatePoll(ctx, author.ID, "First", []string{"A", "B"})
	require.NoError(t, err)
	second, err := store.CreatePoll(ctx, author.ID, "Second", []string{"C"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		userID   uint
		pollID   uint
		optionID uint
		target   error
	}{
		{name: "unknown user", userID: 999, pollID: first.ID, optionID: first.Options[0].ID, target: ErrReferenceNotFound},
		{name: "unknown poll", userID: author.ID, pollID: 999, optionID: first.Options[0].ID, target: ErrReferenceNotFound},
		{name: "unknown option", userID: author.ID, pollID: first.ID, optionID: 999, target: ErrReferenceNotFound},
		{name: "option of another poll", userID: author.ID, pollID: first.ID, optionID: second.Options[0].ID, target: ErrOptionNotInPoll},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.CreateVote(ctx, tc.userID, tc.pollID, tc.optionID)
			assert.ErrorIs(t, err, tc.target)
		})
	}

	votes, err := store.ListVotes(ctx, VoteFilter{}, VoteRelations{})
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestListPolls_LoadsRelations(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	alice, _ := store.CreateUser(ctx, "alice")
	bob, _ := store.CreateUser(ctx, "bob")
	p1, err := store.CreatePoll(ctx, alice.ID, "P1", []string{"x", "y"})
	require.NoError(t, err)
	p2, err := store.CreatePoll(ctx, bob.ID, "P2", []string{"z"})
	require.NoError(t, err)

	_, err = store.CreateVote(ctx, bob.ID, p1.ID, p1.Options[0].ID)
	require.NoError(t, err)
	_, err = store.CreateVote(ctx, alice.ID, p1.ID, p1.Options[1].ID)
	require.NoError(t, err)
	_, err = store.CreateVote(ctx, alice.ID, p2.ID, p2.Options[0].ID)
	require.NoError(t, err)

	polls, err := store.ListPolls(ctx, FullPoll())
	require.NoError(t, err)
	require.Len(t, polls, 2)

	assert.Equal(t, p1.ID, polls[0].ID)
	assert.Len(t, polls[0].Options, 2)
	require.Len(t, polls[0].Votes, 2)
	for _, v := range polls[0].Votes {
		assert.NotNil(t, v.User)
		assert.NotNil(t, v.Option)
	}

	assert.Equal(t, p2.ID, polls[1].ID)
	assert.Len(t, polls[1].Options, 1)
	assert.Len(t, polls[1].Votes, 1)
}

func TestRelationLookups(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	alice, _ := store.CreateUser(ctx, "alice")
	bob, _ := store.CreateUser(ctx, "bob")
	poll, err := store.CreatePoll(ctx, alice.ID, "P", []string{"x", "y"})
	require.NoError(t, err)
	_, err = store.CreateVote(ctx, bob.ID, poll.ID, poll.Options[1].ID)
	require.NoError(t, err)

	polls, err := store.PollsByUser(ctx, alice.ID, PollRelations{})
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Nil(t, polls[0].Options)

	polls, err = store.PollsByUser(ctx, bob.ID, PollRelations{})
	require.NoError(t, err)
	assert.Empty(t, polls)

	option, err := store.FindOption(ctx, poll.Options[1].ID)
	require.NoError(t, err)
	require.NotNil(t, option)
	assert.Equal(t, "y", option.Text)

	missing, err := store.FindOption(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byUser, err := store.ListVotes(ctx, VoteFilter{UserID: bob.ID}, VoteRelations{Poll: true})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	require.NotNil(t, byUser[0].Poll)
	assert.Equal(t, poll.ID, byUser[0].Poll.ID)

	byOption, err := store.ListVotes(ctx, VoteFilter{OptionID: poll.Options[0].ID}, VoteRelations{})
	require.NoError(t, err)
	assert.Empty(t, byOption)
}

func TestFindPoll_NotFound(t *testing.T) {
	store := setupStore(t)

	poll, err := store.FindPoll(context.Background(), 7, FullPoll())
	assert.NoError(t, err)
	assert.Nil(t, poll)
}
