package graph

import (
	"context"
	"fmt"

	"github.com/FrankKleiton/vote-app/models"
	"github.com/FrankKleiton/vote-app/repository"

	"github.com/graph-gophers/graphql-go"
)

// Nested fields use the relations their parent was loaded with and fall
// back to a follow-up store call otherwise.

type userResolver struct {
	root *Resolver
	user *models.User
}

func (u *userResolver) ID() graphql.ID {
	return formatID(u.user.ID)
}

func (u *userResolver) Name() string {
	return u.user.Name
}

func (u *userResolver) Polls(ctx context.Context) ([]*pollResolver, error) {
	polls, err := u.root.store.PollsByUser(ctx, u.user.ID, repository.PollRelations{})
	if err != nil {
		return nil, u.root.fail("User.polls", err)
	}
	return u.root.newPollResolvers(polls, repository.PollRelations{}), nil
}

func (u *userResolver) Votes(ctx context.Context) ([]*voteResolver, error) {
	votes, err := u.root.store.ListVotes(ctx, repository.VoteFilter{UserID: u.user.ID}, repository.VoteRelations{})
	if err != nil {
		return nil, u.root.fail("User.votes", err)
	}
	return u.root.newVoteResolvers(votes, repository.VoteRelations{}), nil
}

type pollResolver struct {
	root *Resolver
	poll *models.Poll
	rel  repository.PollRelations
}

func (p *pollResolver) ID() graphql.ID {
	return formatID(p.poll.ID)
}

func (p *pollResolver) Description() string {
	return p.poll.Description
}

func (p *pollResolver) User(ctx context.Context) (*userResolver, error) {
	if p.rel.Creator && p.poll.User != nil {
		return &userResolver{root: p.root, user: p.poll.User}, nil
	}
	user, err := p.root.store.FindUser(ctx, p.poll.UserID)
	if err != nil {
		return nil, p.root.fail("Poll.user", err)
	}
	if user == nil {
		return nil, p.root.fail("Poll.user", fmt.Errorf("poll %d: creator %d missing", p.poll.ID, p.poll.UserID))
	}
	return &userResolver{root: p.root, user: user}, nil
}

func (p *pollResolver) Options(ctx context.Context) ([]*optionResolver, error) {
	options := p.poll.Options
	if !p.rel.Options {
		var err error
		options, err = p.root.store.OptionsByPoll(ctx, p.poll.ID)
		if err != nil {
			return nil, p.root.fail("Poll.options", err)
		}
	}
	out := make([]*optionResolver, len(options))
	for i := range options {
		out[i] = &optionResolver{root: p.root, option: &options[i], poll: p.poll}
	}
	return out, nil
}

func (p *pollResolver) Votes(ctx context.Context) ([]*voteResolver, error) {
	if p.rel.LoadVotes {
		return p.root.newVoteResolvers(p.poll.Votes, p.rel.Votes), nil
	}
	votes, err := p.root.store.ListVotes(ctx, repository.VoteFilter{PollID: p.poll.ID}, repository.VoteRelations{})
	if err != nil {
		return nil, p.root.fail("Poll.votes", err)
	}
	return p.root.newVoteResolvers(votes, repository.VoteRelations{}), nil
}

type optionResolver struct {
	root   *Resolver
	option *models.Option
	// poll is set when the option was reached through its poll.
	poll *models.Poll
}

func (o *optionResolver) ID() graphql.ID {
	return formatID(o.option.ID)
}

func (o *optionResolver) Text() string {
	return o.option.Text
}

func (o *optionResolver) Poll(ctx context.Context) (*pollResolver, error) {
	if o.poll != nil {
		return &pollResolver{root: o.root, poll: o.poll}, nil
	}
	poll, err := o.root.store.FindPoll(ctx, o.option.PollID, repository.PollRelations{})
	if err != nil {
		return nil, o.root.fail("Option.poll", err)
	}
	if poll == nil {
		return nil, o.root.fail("Option.poll", fmt.Errorf("option %d: poll %d missing", o.option.ID, o.option.PollID))
	}
	return &pollResolver{root: o.root, poll: poll}, nil
}

func (o *optionResolver) Votes(ctx context.Context) ([]*voteResolver, error) {
	votes, err := o.root.store.ListVotes(ctx, repository.VoteFilter{OptionID: o.option.ID}, repository.VoteRelations{})
	if err != nil {
		return nil, o.root.fail("Option.votes", err)
	}
	return o.root.newVoteResolvers(votes, repository.VoteRelations{}), nil
}

type voteResolver struct {
	root *Resolver
	vote *models.Vote
	rel  repository.VoteRelations
}

func (v *voteResolver) ID() graphql.ID {
	return formatID(v.vote.ID)
}

func (v *voteResolver) User(ctx context.Context) (*userResolver, error) {
	if v.rel.User && v.vote.User != nil {
		return &userResolver{root: v.root, user: v.vote.User}, nil
	}
	user, err := v.root.store.FindUser(ctx, v.vote.UserID)
	if err != nil {
		return nil, v.root.fail("Vote.user", err)
	}
	if user == nil {
		return nil, v.root.fail("Vote.user", fmt.Errorf("vote %d: user %d missing", v.vote.ID, v.vote.UserID))
	}
	return &userResolver{root: v.root, user: user}, nil
}

func (v *voteResolver) Poll(ctx context.Context) (*pollResolver, error) {
	if v.rel.Poll && v.vote.Poll != nil {
		return &pollResolver{root: v.root, poll: v.vote.Poll}, nil
	}
	poll, err := v.root.store.FindPoll(ctx, v.vote.PollID, repository.PollRelations{})
	if err != nil {
		return nil, v.root.fail("Vote.poll", err)
	}
	if poll == nil {
		return nil, v.root.fail("Vote.poll", fmt.Errorf("vote %d: poll %d missing", v.vote.ID, v.vote.PollID))
	}
	return &pollResolver{root: v.root, poll: poll}, nil
}

func (v *voteResolver) Option(ctx context.Context) (*optionResolver, error) {
	if v.rel.Option && v.vote.Option != nil {
		return &optionResolver{root: v.root, option: v.vote.Option}, nil
	}
	option, err := v.root.store.FindOption(ctx, v.vote.OptionID)
	if err != nil {
		return nil, v.root.fail("Vote.option", err)
	}
	if option == nil {
		return nil, v.root.fail("Vote.option", fmt.Errorf("vote %d: option %d missing", v.vote.ID, v.vote.OptionID))
	}
	return &optionResolver{root: v.root, option: option}, nil
}
