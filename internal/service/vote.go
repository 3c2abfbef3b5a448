package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/queridometro/internal/apperror"
	"github.com/sakif/queridometro/internal/metrics"
	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

const (
	// DefaultRangeDays is how far back RangeSummary looks when from is empty.
	DefaultRangeDays = 30
	// MaxRangeDays caps a RangeSummary request.
	MaxRangeDays = 366
)

// EmojiCount is one cell of a summary.
type EmojiCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// ParticipantSummary is one participant's row in a day's summary: one cell
// per catalog emoji, in catalog order, zeros included.
type ParticipantSummary struct {
	ID     int          `json:"id"`
	Name   string       `json:"name"`
	Photo  *string      `json:"photo"`
	Emojis []EmojiCount `json:"emojis"`
}

// DaySummary is the summary of a single vote date.
type DaySummary struct {
	Date         string               `json:"date"`
	Participants []ParticipantSummary `json:"participants"`
}

// VoteService casts votes and builds the summaries.
//
// "Today" is the calendar date in the configured location. Every voter
// shares it, whatever their own time zone.
type VoteService struct {
	votes        repository.VoteRepository
	participants repository.ParticipantRepository
	emojis       repository.EmojiRepository
	metrics      *metrics.Metrics
	logger       *slog.Logger

	loc *time.Location
	now func() time.Time
}

// VoteOptions configures a VoteService. Zero values mean UTC and time.Now.
type VoteOptions struct {
	Location *time.Location
	Now      func() time.Time
	Metrics  *metrics.Metrics
}

func NewVoteService(
	votes repository.VoteRepository,
	participants repository.ParticipantRepository,
	emojis repository.EmojiRepository,
	logger *slog.Logger,
	opts VoteOptions,
) *VoteService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &VoteService{
		votes:        votes,
		participants: participants,
		emojis:       emojis,
		metrics:      opts.Metrics,
		logger:       logger,
		loc:          opts.Location,
		now:          opts.Now,
	}
}

// Today returns the current vote date.
func (s *VoteService) Today() string {
	return s.now().In(s.loc).Format(model.VoteDateLayout)
}

// CastVote records userID's emoji for participantID, dated today.
func (s *VoteService) CastVote(ctx context.Context, userID, participantID int, emoji string) (*model.Vote, error) {
	catalog, err := s.emojis.ListEmojis(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading emojis: %w", err)
	}
	if !inCatalog(catalog, emoji) {
		s.metrics.ObserveVote(metrics.VoteRejected)
		return nil, apperror.ValidationFailed("emoji", "Emoji inválido. Escolha um emoji da lista.")
	}

	vote, err := s.votes.AddVote(ctx, repository.NewVote{
		UserID:        userID,
		ParticipantID: participantID,
		Emoji:         emoji,
		VoteDate:      s.Today(),
	})
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrDuplicateVote):
		s.metrics.ObserveVote(metrics.VoteDuplicate)
		return nil, &apperror.AppError{
			Err:     apperror.ErrDuplicateVote,
			Message: "Você já votou neste participante hoje. Amanhã você pode votar novamente.",
		}
	case errors.Is(err, apperror.ErrNotFound):
		s.metrics.ObserveVote(metrics.VoteRejected)
		return nil, notFoundAs(err, "Participante não encontrado")
	case errors.Is(err, apperror.ErrValidation):
		// the emoji was deleted between the check above and the write
		s.metrics.ObserveVote(metrics.VoteRejected)
		return nil, apperror.ValidationFailed("emoji", "Emoji inválido. Escolha um emoji da lista.")
	default:
		return nil, fmt.Errorf("adding vote: %w", err)
	}

	s.metrics.ObserveVote(metrics.VoteAccepted)
	s.logger.InfoContext(ctx, "vote cast",
		slog.Int("userID", userID),
		slog.Int("participantID", participantID),
		slog.String("date", vote.VoteDate),
	)
	return vote, nil
}

// TodayVotes maps participant id to the emoji userID gave them today.
func (s *VoteService) TodayVotes(ctx context.Context, userID int) (map[int]string, error) {
	votes, err := s.votes.VotesByUserAndDate(ctx, userID, s.Today())
	if err != nil {
		return nil, fmt.Errorf("loading votes: %w", err)
	}
	out := make(map[int]string, len(votes))
	for _, v := range votes {
		out[v.ParticipantID] = v.Emoji
	}
	return out, nil
}

// TodaySummary is DailySummary for today.
func (s *VoteService) TodaySummary(ctx context.Context) (*DaySummary, error) {
	return s.DailySummary(ctx, s.Today())
}

// DailySummary counts the votes on date for every participant and every
// catalog emoji, zero-filled.
func (s *VoteService) DailySummary(ctx context.Context, date string) (*DaySummary, error) {
	if _, err := time.Parse(model.VoteDateLayout, date); err != nil {
		return nil, apperror.ValidationFailed("date", "Data deve estar no formato YYYY-MM-DD")
	}

	participants, catalog, err := s.summaryAxes(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.votes.VoteCountsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("counting votes: %w", err)
	}

	return &DaySummary{Date: date, Participants: buildSummary(participants, catalog, counts)}, nil
}

// RangeSummary returns one DaySummary per date in [from, to], oldest first.
//
// An empty from means DefaultRangeDays before today; an empty to means
// today. from after to yields no days. Ranges longer than MaxRangeDays are
// rejected.
func (s *VoteService) RangeSummary(ctx context.Context, from, to string) ([]DaySummary, error) {
	today, err := time.Parse(model.VoteDateLayout, s.Today())
	if err != nil {
		return nil, err
	}

	start := today.AddDate(0, 0, -DefaultRangeDays)
	end := today
	if from != "" {
		if start, err = time.Parse(model.VoteDateLayout, from); err != nil {
			return nil, apperror.ValidationFailed("from", "Parâmetros from e to devem ser datas no formato YYYY-MM-DD")
		}
	}
	if to != "" {
		if end, err = time.Parse(model.VoteDateLayout, to); err != nil {
			return nil, apperror.ValidationFailed("to", "Parâmetros from e to devem ser datas no formato YYYY-MM-DD")
		}
	}

	if start.After(end) {
		return []DaySummary{}, nil
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > MaxRangeDays {
		return nil, apperror.ValidationFailed("from",
			fmt.Sprintf("Intervalo deve ter no máximo %d dias", MaxRangeDays))
	}

	participants, catalog, err := s.summaryAxes(ctx)
	if err != nil {
		return nil, err
	}
	startDate := start.Format(model.VoteDateLayout)
	endDate := end.Format(model.VoteDateLayout)
	dated, err := s.votes.VoteCountsBetween(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("counting votes: %w", err)
	}

	byDate := make(map[string][]model.VoteCount)
	for _, c := range dated {
		byDate[c.VoteDate] = append(byDate[c.VoteDate], c.VoteCount)
	}

	var out []DaySummary
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(model.VoteDateLayout)
		out = append(out, DaySummary{
			Date:         date,
			Participants: buildSummary(participants, catalog, byDate[date]),
		})
	}
	return out, nil
}

func (s *VoteService) summaryAxes(ctx context.Context) ([]model.Participant, []model.Emoji, error) {
	participants, err := s.participants.ListParticipants(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing participants: %w", err)
	}
	catalog, err := s.emojis.ListEmojis(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading emojis: %w", err)
	}
	return participants, catalog, nil
}

// buildSummary lays counts out on the participants × catalog grid.
//
// When the catalog holds a glyph twice, the count goes to its first entry
// and the duplicate shows zero. Counts for glyphs no longer in the catalog,
// or for unknown participants, are dropped.
func buildSummary(participants []model.Participant, catalog []model.Emoji, counts []model.VoteCount) []ParticipantSummary {
	firstIndex := make(map[string]int, len(catalog))
	for i, e := range catalog {
		if _, seen := firstIndex[e.Emoji]; !seen {
			firstIndex[e.Emoji] = i
		}
	}

	rows := make([]ParticipantSummary, len(participants))
	rowOf := make(map[int]int, len(participants))
	for i, p := range participants {
		cells := make([]EmojiCount, len(catalog))
		for j, e := range catalog {
			cells[j] = EmojiCount{Emoji: e.Emoji}
		}
		rows[i] = ParticipantSummary{ID: p.ID, Name: p.Name, Photo: p.Photo, Emojis: cells}
		rowOf[p.ID] = i
	}

	for _, c := range counts {
		r, ok := rowOf[c.ParticipantID]
		if !ok {
			continue
		}
		if j, ok := firstIndex[c.Emoji]; ok {
			rows[r].Emojis[j].Count = c.Count
		}
	}
	return rows
}

func inCatalog(catalog []model.Emoji, glyph string) bool {
	for _, e := range catalog {
		if e.Emoji == glyph {
			return true
		}
	}
	return false
}
