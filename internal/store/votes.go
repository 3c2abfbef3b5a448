package store

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/sakif/queridometro/internal/apperror"
	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

func voteID(v model.Vote) int { return v.ID }

// AddVote records a vote. It fails with apperror.ErrDuplicateVote when the
// user already voted for the participant on that date; the check and the
// insert happen in the same queued write.
func (s *Store) AddVote(ctx context.Context, nv repository.NewVote) (*model.Vote, error) {
	return write(ctx, s, "add_vote", func(doc *model.Document) (*model.Vote, error) {
		if indexParticipant(doc, nv.ParticipantID) < 0 {
			return nil, apperror.NotFound("participant", nv.ParticipantID)
		}
		if !slices.ContainsFunc(doc.Emojis, func(e model.Emoji) bool { return e.Emoji == nv.Emoji }) {
			return nil, apperror.ValidationFailed("emoji", "emoji is not in the catalog")
		}
		if _, err := time.Parse(model.VoteDateLayout, nv.VoteDate); err != nil {
			return nil, apperror.ValidationFailed("vote_date", "vote date must be YYYY-MM-DD")
		}

		for _, v := range doc.Votes {
			if v.UserID == nv.UserID && v.ParticipantID == nv.ParticipantID && v.VoteDate == nv.VoteDate {
				return nil, apperror.DuplicateVote(nv.UserID, nv.ParticipantID, nv.VoteDate)
			}
		}

		v := model.Vote{
			ID:            nextID(doc.Votes, voteID),
			UserID:        nv.UserID,
			ParticipantID: nv.ParticipantID,
			Emoji:         nv.Emoji,
			VoteDate:      nv.VoteDate,
			CreatedAt:     timestamp(),
		}
		doc.Votes = append(doc.Votes, v)
		return &v, nil
	})
}

// VotesByUserAndDate returns the votes userID cast on voteDate, by id.
func (s *Store) VotesByUserAndDate(ctx context.Context, userID int, voteDate string) ([]model.Vote, error) {
	doc := s.doc()
	out := []model.Vote{}
	for _, v := range doc.Votes {
		if v.UserID == userID && v.VoteDate == voteDate {
			out = append(out, v)
		}
	}
	return out, nil
}

// VoteCountsByDate counts votes on voteDate per (participant, emoji). Only
// pairs with at least one vote are returned, ordered by participant id then
// emoji.
func (s *Store) VoteCountsByDate(ctx context.Context, voteDate string) ([]model.VoteCount, error) {
	type key struct {
		participantID int
		emoji         string
	}

	doc := s.doc()
	counts := map[key]int{}
	for _, v := range doc.Votes {
		if v.VoteDate == voteDate {
			counts[key{v.ParticipantID, v.Emoji}]++
		}
	}

	out := make([]model.VoteCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.VoteCount{ParticipantID: k.participantID, Emoji: k.emoji, Count: n})
	}
	slices.SortFunc(out, compareVoteCount)
	return out, nil
}

// VoteCountsBetween is VoteCountsByDate for every date in [from, to], ordered
// by date first. Both bounds are YYYY-MM-DD, so they compare as strings.
func (s *Store) VoteCountsBetween(ctx context.Context, from, to string) ([]model.DatedVoteCount, error) {
	type key struct {
		date          string
		participantID int
		emoji         string
	}

	doc := s.doc()
	counts := map[key]int{}
	for _, v := range doc.Votes {
		if v.VoteDate >= from && v.VoteDate <= to {
			counts[key{v.VoteDate, v.ParticipantID, v.Emoji}]++
		}
	}

	out := make([]model.DatedVoteCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.DatedVoteCount{
			VoteDate:  k.date,
			VoteCount: model.VoteCount{ParticipantID: k.participantID, Emoji: k.emoji, Count: n},
		})
	}
	slices.SortFunc(out, func(a, b model.DatedVoteCount) int {
		if c := cmp.Compare(a.VoteDate, b.VoteDate); c != 0 {
			return c
		}
		return compareVoteCount(a.VoteCount, b.VoteCount)
	})
	return out, nil
}

func compareVoteCount(a, b model.VoteCount) int {
	if c := cmp.Compare(a.ParticipantID, b.ParticipantID); c != 0 {
		return c
	}
	return cmp.Compare(a.Emoji, b.Emoji)
}
