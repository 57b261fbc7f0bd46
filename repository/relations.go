package repository

import "gorm.io/gorm"

// VoteRelations lists the relations to load alongside each vote.
type VoteRelations struct {
	User   bool
	Poll   bool
	Option bool
}

// PollRelations lists the relations to load alongside each poll. Votes
// only applies when LoadVotes is set.
type PollRelations struct {
	Creator   bool
	Options   bool
	LoadVotes bool
	Votes     VoteRelations
}

// FullPoll loads everything the poll queries expose: options, and votes
// together with their voter and chosen option.
func FullPoll() PollRelations {
	return PollRelations{
		Creator:   true,
		Options:   true,
		LoadVotes: true,
		Votes:     VoteRelations{User: true, Option: true},
	}
}

func byID(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id")
	}
}

func (r PollRelations) apply(tx *gorm.DB) *gorm.DB {
	if r.Creator {
		tx = tx.Preload("User")
	}
	if r.Options {
		tx = tx.Preload("Options", byID("options"))
	}
	if r.LoadVotes {
		tx = tx.Preload("Votes", byID("votes"))
		tx = r.Votes.applyNested(tx, "Votes.")
	}
	return tx
}

func (r VoteRelations) apply(tx *gorm.DB) *gorm.DB {
	return r.applyNested(tx, "")
}

func (r VoteRelations) applyNested(tx *gorm.DB, prefix string) *gorm.DB {
	if r.User {
		tx = tx.Preload(prefix + "User")
	}
	if r.Poll {
		tx = tx.Preload(prefix + "Poll")
	}
	if r.Option {
		tx = tx.Preload(prefix + "Option")
	}
	return tx
}
