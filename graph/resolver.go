// Package graph binds the polling GraphQL schema to the repository.
package graph

import (
	"context"
	"errors"
	"strconv"

	"github.com/FrankKleiton/vote-app/models"
	"github.com/FrankKleiton/vote-app/repository"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

// Resolver is the root resolver for queries and mutations. Each field
// performs one store operation.
type Resolver struct {
	store repository.Store
	log   *zap.Logger
}

// NewResolver creates a root resolver on store.
func NewResolver(store repository.Store, log *zap.Logger) *Resolver {
	return &Resolver{
		store: store,
		log:   log.Named("graphql"),
	}
}

// Users resolves Query.users.
func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return nil, r.fail("users", err)
	}
	out := make([]*userResolver, len(users))
	for i := range users {
		out[i] = &userResolver{root: r, user: &users[i]}
	}
	return out, nil
}

// User resolves Query.user. An unknown or malformed id yields null.
func (r *Resolver) User(ctx context.Context, args struct{ ID graphql.ID }) (*userResolver, error) {
	id, ok := parseID(args.ID)
	if !ok {
		return nil, nil
	}
	user, err := r.store.FindUser(ctx, id)
	if err != nil {
		return nil, r.fail("user", err)
	}
	if user == nil {
		return nil, nil
	}
	return &userResolver{root: r, user: user}, nil
}

// Polls resolves Query.polls with options and votes loaded.
func (r *Resolver) Polls(ctx context.Context) ([]*pollResolver, error) {
	polls, err := r.store.ListPolls(ctx, repository.FullPoll())
	if err != nil {
		return nil, r.fail("polls", err)
	}
	return r.newPollResolvers(polls, repository.FullPoll()), nil
}

// Poll resolves Query.poll with options and votes loaded. An unknown or
// malformed id yields null.
func (r *Resolver) Poll(ctx context.Context, args struct{ ID graphql.ID }) (*pollResolver, error) {
	id, ok := parseID(args.ID)
	if !ok {
		return nil, nil
	}
	poll, err := r.store.FindPoll(ctx, id, repository.FullPoll())
	if err != nil {
		return nil, r.fail("poll", err)
	}
	if poll == nil {
		return nil, nil
	}
	return &pollResolver{root: r, poll: poll, rel: repository.FullPoll()}, nil
}

// CreateUser resolves Mutation.createUser.
func (r *Resolver) CreateUser(ctx context.Context, args struct{ Name string }) (*userResolver, error) {
	user, err := r.store.CreateUser(ctx, args.Name)
	if err != nil {
		return nil, r.fail("createUser", err)
	}
	return &userResolver{root: r, user: user}, nil
}

type createPollArgs struct {
	ID          graphql.ID
	Description string
	Options     []string
}

// CreatePoll resolves Mutation.createPoll. args.ID names the creator.
func (r *Resolver) CreatePoll(ctx context.Context, args createPollArgs) (*pollResolver, error) {
	creatorID, err := referenceID("user", args.ID)
	if err != nil {
		return nil, r.fail("createPoll", err)
	}
	poll, err := r.store.CreatePoll(ctx, creatorID, args.Description, args.Options)
	if err != nil {
		return nil, r.fail("createPoll", err)
	}
	return &pollResolver{
		root: r,
		poll: poll,
		rel:  repository.PollRelations{Creator: true, Options: true},
	}, nil
}

type createVoteArgs struct {
	UserID   graphql.ID
	PollID   graphql.ID
	OptionID graphql.ID
}

// CreateVote resolves Mutation.createVote.
func (r *Resolver) CreateVote(ctx context.Context, args createVoteArgs) (*voteResolver, error) {
	userID, err := referenceID("user", args.UserID)
	if err != nil {
		return nil, r.fail("createVote", err)
	}
	pollID, err := referenceID("poll", args.PollID)
	if err != nil {
		return nil, r.fail("createVote", err)
	}
	optionID, err := referenceID("option", args.OptionID)
	if err != nil {
		return nil, r.fail("createVote", err)
	}

	vote, err := r.store.CreateVote(ctx, userID, pollID, optionID)
	if err != nil {
		return nil, r.fail("createVote", err)
	}
	return &voteResolver{
		root: r,
		vote: vote,
		rel:  repository.VoteRelations{User: true, Poll: true, Option: true},
	}, nil
}

func (r *Resolver) newPollResolvers(polls []models.Poll, rel repository.PollRelations) []*pollResolver {
	out := make([]*pollResolver, len(polls))
	for i := range polls {
		out[i] = &pollResolver{root: r, poll: &polls[i], rel: rel}
	}
	return out
}

func (r *Resolver) newVoteResolvers(votes []models.Vote, rel repository.VoteRelations) []*voteResolver {
	out := make([]*voteResolver, len(votes))
	for i := range votes {
		out[i] = &voteResolver{root: r, vote: &votes[i], rel: rel}
	}
	return out
}

// fail logs a store failure and hands it back for graphql-go to report.
func (r *Resolver) fail(field string, err error) error {
	if errors.Is(err, repository.ErrReferenceNotFound) {
		r.log.Warn("rejected write", zap.String("field", field), zap.Error(err))
	} else {
		r.log.Error("resolver failed", zap.String("field", field), zap.Error(err))
	}
	return err
}

func parseID(id graphql.ID) (uint, bool) {
	n, err := strconv.ParseUint(string(id), 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// referenceID parses an id argument of a create; a malformed id refers to
// no row and fails like an unknown one.
func referenceID(kind string, id graphql.ID) (uint, error) {
	n, ok := parseID(id)
	if !ok {
		return 0, &malformedIDError{kind: kind, id: string(id)}
	}
	return n, nil
}

type malformedIDError struct {
	kind string
	id   string
}

func (e *malformedIDError) Error() string {
	return repository.ErrReferenceNotFound.Error() + ": " + e.kind + " " + strconv.Quote(e.id)
}

func (e *malformedIDError) Unwrap() error {
	return repository.ErrReferenceNotFound
}

func formatID(id uint) graphql.ID {
	return graphql.ID(strconv.FormatUint(uint64(id), 10))
}
