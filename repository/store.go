package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/FrankKleiton/vote-app/models"

	"gorm.io/gorm"
)

var (
	// ErrReferenceNotFound is returned when a create refers to a row that does not exist.
	ErrReferenceNotFound = errors.New("referenced record not found")

	// ErrOptionNotInPoll is returned when a vote's option belongs to another poll.
	ErrOptionNotInPoll = fmt.Errorf("%w: option does not belong to poll", ErrReferenceNotFound)
)

// VoteFilter narrows a vote listing. Zero fields are ignored.
type VoteFilter struct {
	UserID   uint
	PollID   uint
	OptionID uint
}

// Store is the data access API used by the GraphQL resolvers. Lookups
// return (nil, nil) when no row matches.
type Store interface {
	FindUser(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, name string) (*models.User, error)

	FindPoll(ctx context.Context, id uint, rel PollRelations) (*models.Poll, error)
	ListPolls(ctx context.Context, rel PollRelations) ([]models.Poll, error)
	PollsByUser(ctx context.Context, userID uint, rel PollRelations) ([]models.Poll, error)
	CreatePoll(ctx context.Context, creatorID uint, description string, options []string) (*models.Poll, error)

	FindOption(ctx context.Context, id uint) (*models.Option, error)
	OptionsByPoll(ctx context.Context, pollID uint) ([]models.Option, error)

	ListVotes(ctx context.Context, filter VoteFilter, rel VoteRelations) ([]models.Vote, error)
	CreateVote(ctx context.Context, userID, pollID, optionID uint) (*models.Vote, error)
}

// GormStore implements Store on a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindUser returns the user with the given id.
func (s *GormStore) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

// ListUsers returns every user ordered by id.
func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CreateUser inserts a user.
func (s *GormStore) CreateUser(ctx context.Context, name string) (*models.User, error) {
	user := models.User{Name: name}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// FindPoll returns the poll with the given id and the requested relations.
func (s *GormStore) FindPoll(ctx context.Context, id uint, rel PollRelations) (*models.Poll, error) {
	var poll models.Poll
	if err := rel.apply(s.db.WithContext(ctx)).First(&poll, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find poll %d: %w", id, err)
	}
	return &poll, nil
}

// ListPolls returns every poll ordered by id.
func (s *GormStore) ListPolls(ctx context.Context, rel PollRelations) ([]models.Poll, error) {
	var polls []models.Poll
	if err := rel.apply(s.db.WithContext(ctx)).Order("polls.id").Find(&polls).Error; err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	return polls, nil
}

// PollsByUser returns the polls created by a user.
func (s *GormStore) PollsByUser(ctx context.Context, userID uint, rel PollRelations) ([]models.Poll, error) {
	var polls []models.Poll
	err := rel.apply(s.db.WithContext(ctx)).
		Where("polls.user_id = ?", userID).
		Order("polls.id").
		Find(&polls).Error
	if err != nil {
		return nil, fmt.Errorf("list polls of user %d: %w", userID, err)
	}
	return polls, nil
}

// CreatePoll inserts a poll owned by an existing user together with one
// option per text, in a single transaction.
func (s *GormStore) CreatePoll(ctx context.Context, creatorID uint, description string, options []string) (*models.Poll, error) {
	poll := models.Poll{
		UserID:      creatorID,
		Description: description,
		Options:     make([]models.Option, len(options)),
	}
	for i, text := range options {
		poll.Options[i] = models.Option{Text: text}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var creator models.User
		if err := takeReference(tx, &creator, "user", creatorID); err != nil {
			return err
		}
		// Options are inserted by gorm's has-many association save.
		if err := tx.Create(&poll).Error; err != nil {
			return err
		}
		poll.User = &creator
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}
	return &poll, nil
}

// FindOption returns the option with the given id.
func (s *GormStore) FindOption(ctx context.Context, id uint) (*models.Option, error) {
	var option models.Option
	if err := s.db.WithContext(ctx).First(&option, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find option %d: %w", id, err)
	}
	return &option, nil
}

// OptionsByPoll returns the options of a poll ordered by id.
func (s *GormStore) OptionsByPoll(ctx context.Context, pollID uint) ([]models.Option, error) {
	var options []models.Option
	if err := s.db.WithContext(ctx).Where("poll_id = ?", pollID).Order("id").Find(&options).Error; err != nil {
		return nil, fmt.Errorf("list options of poll %d: %w", pollID, err)
	}
	return options, nil
}

// ListVotes returns the votes matching filter ordered by id.
func (s *GormStore) ListVotes(ctx context.Context, filter VoteFilter, rel VoteRelations) ([]models.Vote, error) {
	tx := rel.apply(s.db.WithContext(ctx))
	if filter.UserID != 0 {
		tx = tx.Where("votes.user_id = ?", filter.UserID)
	}
	if filter.PollID != 0 {
		tx = tx.Where("votes.poll_id = ?", filter.PollID)
	}
	if filter.OptionID != 0 {
		tx = tx.Where("votes.option_id = ?", filter.OptionID)
	}

	var votes []models.Vote
	if err := tx.Order("votes.id").Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return votes, nil
}

// CreateVote inserts a vote after checking that the user, poll and option
// exist and that the option belongs to the poll. The returned vote carries
// all three linked records.
func (s *GormStore) CreateVote(ctx context.Context, userID, pollID, optionID uint) (*models.Vote, error) {
	vote := models.Vote{UserID: userID, PollID: pollID, OptionID: optionID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			user   models.User
			poll   models.Poll
			option models.Option
		)
		if err := takeReference(tx, &user, "user", userID); err != nil {
			return err
		}
		if err := takeReference(tx, &poll, "poll", pollID); err != nil {
			return err
		}
		if err := takeReference(tx, &option, "option", optionID); err != nil {
			return err
		}
		if option.PollID != poll.ID {
			return fmt.Errorf("%w: option %d, poll %d", ErrOptionNotInPoll, optionID, pollID)
		}

		if err := tx.Omit("User", "Poll", "Option").Create(&vote).Error; err != nil {
			return err
		}
		vote.User, vote.Poll, vote.Option = &user, &poll, &option
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create vote: %w", err)
	}
	return &vote, nil
}

// takeReference loads the row a create depends on, mapping a missing row to
// ErrReferenceNotFound.
func takeReference(tx *gorm.DB, dst interface{}, kind string, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: %s %d", ErrReferenceNotFound, kind, id)
	}
	if err := tx.Take(dst, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s %d", ErrReferenceNotFound, kind, id)
		}
		return err
	}
	return nil
}
