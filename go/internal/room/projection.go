package room

import (
	"context"
	"sort"

	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const defaultLookupConcurrency = 8

// Projector turns the votes of a session into the roster shown to clients
type Projector struct {
	accounts    AccountLookup
	locale      language.Tag
	concurrency int
}

// NewProjector creates a projector sorting names with the collation rules of locale.
// An unparsable locale falls back to language.Und.
func NewProjector(accounts AccountLookup, locale string, concurrency int) *Projector {
	tag, err := language.Parse(locale)
	if err != nil {
		log.Warn().Err(err).Str("locale", locale).Msg("unknown roster locale, using root collation")
		tag = language.Und
	}
	if concurrency <= 0 {
		concurrency = defaultLookupConcurrency
	}
	return &Projector{
		accounts:    accounts,
		locale:      tag,
		concurrency: concurrency,
	}
}

// Project resolves every voter to a display identity and pairs it with the
// vote. Accounts that cannot be resolved get empty name and email; the
// projection itself never fails.
func (p *Projector) Project(ctx context.Context, votes []models.Vote) []models.PlayerView {
	views := make([]models.PlayerView, len(votes))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, vote := range votes {
		i, vote := i, vote
		views[i] = models.PlayerView{UserID: vote.UserID, Vote: vote.Value}
		g.Go(func() error {
			user, err := p.accounts.GetUser(ctx, vote.UserID)
			if err != nil {
				log.Warn().
					Err(err).
					Str("user_id", vote.UserID).
					Msg("identity lookup failed, projecting empty display fields")
				return nil
			}
			views[i].Name = user.Name
			views[i].Email = user.Email
			return nil
		})
	}
	_ = g.Wait()

	// Collator is not safe for concurrent use
	collator := collate.New(p.locale)
	sort.SliceStable(views, func(i, j int) bool {
		if c := collator.CompareString(views[i].Name, views[j].Name); c != 0 {
			return c < 0
		}
		return views[i].UserID < views[j].UserID
	})
	return views
}
