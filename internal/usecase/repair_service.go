package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/naming"
	"github.com/riskibarqy/league-sync/internal/domain/reference"
	"github.com/riskibarqy/league-sync/internal/domain/team"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
)

type repairRepository interface {
	team.Repository
	reference.Repository
}

// RepairService restores referential integrity after an import.
type RepairService struct {
	logger *logging.Logger
}

func NewRepairService(logger *logging.Logger) *RepairService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RepairService{logger: logger.Named("repair")}
}

// RepairOutcome is the report plus the items left for manual review.
type RepairOutcome struct {
	Report importrun.RepairReport
	Review []importrun.ReviewItem
}

// Run executes, in order: fixture backfill, orphan detection, reference
// repair, orphan deletion and the duplicate report. Duplicates are reported, never merged.
func (s *RepairService) Run(ctx context.Context, repo repairRepository, resolver *Resolver) (RepairOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RepairService.Run")
	defer span.End()

	out := RepairOutcome{Report: importrun.RepairReport{OrphansByClub: make(map[string]int)}}

	linked, review, err := s.backfillFixtures(ctx, repo, resolver)
	if err != nil {
		return out, err
	}
	out.Report.FixturesLinked = linked
	out.Review = append(out.Review, review...)

	orphans, err := repo.ListOrphanTeams(ctx)
	if err != nil {
		return out, fmt.Errorf("list orphan teams: %w", err)
	}
	out.Report.OrphanCandidates = len(orphans)
	orphanIDs := make([]int64, 0, len(orphans))
	orphanSet := make(map[int64]struct{}, len(orphans))
	for _, t := range orphans {
		orphanIDs = append(orphanIDs, t.ID)
		orphanSet[t.ID] = struct{}{}
	}

	relinked, nulled, err := s.repairReferences(ctx, repo, orphanIDs, orphanSet)
	if err != nil {
		return out, err
	}
	out.Report.ReferencesRelinked = relinked
	out.Report.ReferencesNulled = nulled

	if len(orphanIDs) > 0 {
		deleted, err := repo.DeleteTeams(ctx, orphanIDs)
		if err != nil {
			return out, fmt.Errorf("delete orphan teams: %w", err)
		}
		out.Report.OrphansDeleted = deleted
		for _, t := range orphans {
			out.Report.OrphansByClub[t.LeagueCode+"/"+t.ClubName]++
		}
		for _, key := range sortedKeys(out.Report.OrphansByClub) {
			s.logger.InfoContext(ctx, "orphan teams deleted", "league_club", key, "count", out.Report.OrphansByClub[key])
		}
		resolver.Reset()
	}

	groups, err := repo.ListDuplicateTeams(ctx)
	if err != nil {
		return out, fmt.Errorf("list duplicate teams: %w", err)
	}
	out.Report.DuplicateGroups = len(groups)
	for _, group := range groups {
		ids := make([]int64, 0, len(group.Teams))
		names := make([]string, 0, len(group.Teams))
		leagueCode := ""
		for _, t := range group.Teams {
			ids = append(ids, t.ID)
			names = append(names, t.Name)
			leagueCode = t.LeagueCode
		}
		s.logger.WarnContext(ctx, "duplicate teams need review", "league_id", leagueCode, "team_ids", ids)
		out.Review = append(out.Review, importrun.ReviewItem{
			Kind:     importrun.ReviewDuplicateTeams,
			LeagueID: leagueCode,
			Raw:      strings.Join(names, " | "),
			Reason:   fmt.Sprintf("%d teams share club %d, series %d", len(group.Teams), group.Key.ClubID, group.Key.SeriesID),
			TeamIDs:  ids,
		})
	}

	return out, nil
}

// backfillFixtures re-resolves NULL team ids of matches and schedules with lookup-only resolution.
func (s *RepairService) backfillFixtures(ctx context.Context, repo repairRepository, resolver *Resolver) (int, []importrun.ReviewItem, error) {
	fixtures, err := repo.ListUnlinkedFixtures(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("list unlinked fixtures: %w", err)
	}

	var (
		linked int
		review []importrun.ReviewItem
	)
	for _, fixture := range fixtures {
		changed := false
		for _, side := range []struct {
			name string
			id   **int64
		}{
			{fixture.HomeTeam, &fixture.HomeTeamID},
			{fixture.AwayTeam, &fixture.AwayTeamID},
		} {
			if *side.id != nil || strings.TrimSpace(side.name) == "" {
				continue
			}
			teamID, err := resolver.ResolveTeam(ctx, fixture.LeagueCode, side.name, PolicyFixture)
			if err != nil {
				if crerr.Is(err, importrun.ErrAmbiguousTeam) {
					review = append(review, reviewFromError(fixture.LeagueCode, side.name, err))
					continue
				}
				if crerr.Is(err, importrun.ErrUnresolvedEntity) {
					continue
				}
				return linked, review, err
			}
			id := teamID
			*side.id = &id
			changed = true
		}
		if !changed {
			continue
		}
		if err := repo.LinkFixture(ctx, fixture); err != nil {
			return linked, review, fmt.Errorf("link %s %d: %w", fixture.Table, fixture.ID, err)
		}
		linked++
	}

	if linked > 0 {
		s.logger.InfoContext(ctx, "fixtures linked to teams", "count", linked, "unlinked", len(fixtures))
	}
	return linked, review, nil
}

// repairReferences relinks polls and captain messages that point at missing or
// orphaned teams. The owner's current teams are the candidates; a series token
// in the text narrows them. Anything not uniquely resolvable is set to NULL.
func (s *RepairService) repairReferences(ctx context.Context, repo repairRepository, orphanIDs []int64, orphans map[int64]struct{}) (int, int, error) {
	refs, err := repo.ListDanglingReferences(ctx, orphanIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("list dangling references: %w", err)
	}

	relinked, nulled := 0, 0
	userTeams := make(map[int64][]team.Team)
	for _, ref := range refs {
		var target *int64
		if ref.OwnerUserID != nil {
			candidates, ok := userTeams[*ref.OwnerUserID]
			if !ok {
				teams, err := repo.ListUserTeams(ctx, *ref.OwnerUserID)
				if err != nil {
					return relinked, nulled, fmt.Errorf("list teams of user %d: %w", *ref.OwnerUserID, err)
				}
				for _, t := range teams {
					if _, orphan := orphans[t.ID]; !orphan {
						candidates = append(candidates, t)
					}
				}
				userTeams[*ref.OwnerUserID] = candidates
			}
			target = pickReferenceTeam(candidates, naming.ExtractSeriesToken(ref.Text))
		}

		if err := repo.RelinkReference(ctx, ref, target); err != nil {
			return relinked, nulled, fmt.Errorf("relink %s %d: %w", ref.Kind, ref.ID, err)
		}
		if target != nil {
			relinked++
			s.logger.DebugContext(ctx, "reference relinked", "kind", ref.Kind, "id", ref.ID, "team_id", *target)
		} else {
			nulled++
			s.logger.DebugContext(ctx, "reference cleared", "kind", ref.Kind, "id", ref.ID)
		}
	}
	return relinked, nulled, nil
}

func pickReferenceTeam(candidates []team.Team, seriesToken string) *int64 {
	if seriesToken != "" {
		var matched []team.Team
		for _, t := range candidates {
			if strings.EqualFold(naming.SeriesIdentifier(t.SeriesName), seriesToken) {
				matched = append(matched, t)
			}
		}
		if len(matched) == 1 {
			id := matched[0].ID
			return &id
		}
	}
	if len(candidates) == 1 {
		id := candidates[0].ID
		return &id
	}
	return nil
}

func reviewFromError(leagueCode, raw string, err error) importrun.ReviewItem {
	item := importrun.ReviewItem{
		Kind:     importrun.ReviewUnresolved,
		LeagueID: leagueCode,
		Raw:      raw,
		Reason:   err.Error(),
	}
	var unresolved *importrun.UnresolvedEntityError
	if crerr.As(err, &unresolved) {
		item.Reason = unresolved.Reason
		item.TeamIDs = unresolved.Candidates
		if len(unresolved.Candidates) > 1 {
			item.Kind = importrun.ReviewAmbiguousTeam
		}
	}
	return item
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
