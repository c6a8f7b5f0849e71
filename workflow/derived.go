package workflow

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parsaivi/police-department-api/models"
)

// rewardPerRankPoint is the payout multiplier applied to a suspect's
// most-wanted rank when computing the posted reward.
const rewardPerRankPoint int64 = 20_000_000

// wantedSincePtr converts the stored wanted-since stamp to the pure
// functions' optional form. The zero DateTime means never wanted.
func wantedSincePtr(dt primitive.DateTime) *time.Time {
	if dt == 0 {
		return nil
	}
	t := dt.Time()
	return &t
}

// CaseFacts is the slice of an open case that feeds suspect-derived values.
type CaseFacts struct {
	Severity models.CrimeSeverity
	Closed   bool
	Opened   time.Time
}

// DaysWanted returns the whole days elapsed since a suspect entered a
// wanted state. Zero when the suspect is not wanted or wantedSince is in
// the future.
func DaysWanted(wantedSince *time.Time, now time.Time) int {
	if wantedSince == nil || wantedSince.After(now) {
		return 0
	}
	return int(now.Sub(*wantedSince).Hours() / 24)
}

// MaxCrimeSeverity returns the highest danger value across every linked
// case, open or closed. Zero only when the suspect has no case links.
func MaxCrimeSeverity(cases []CaseFacts) int {
	max := 0
	for _, c := range cases {
		if v := c.Severity.Value(); v > max {
			max = v
		}
	}
	return max
}

// MaxDaysWantedForOpenCase returns the longest a suspect has been wanted
// while still linked to at least one open case. The two maxima are taken
// independently, so the severity and the duration may come from different
// cases.
func MaxDaysWantedForOpenCase(wantedSince *time.Time, cases []CaseFacts, now time.Time) int {
	for _, c := range cases {
		if !c.Closed {
			return DaysWanted(wantedSince, now)
		}
	}
	return 0
}

// MostWantedRank scores a wanted suspect as days wanted times peak danger.
// Suspects with no open cases or no wanted clock score zero.
func MostWantedRank(wantedSince *time.Time, cases []CaseFacts, now time.Time) int {
	return MaxDaysWantedForOpenCase(wantedSince, cases, now) * MaxCrimeSeverity(cases)
}

// RewardAmount converts a most-wanted rank into a posted reward.
func RewardAmount(rank int) int64 {
	return int64(rank) * rewardPerRankPoint
}

// mostWantedEligibilityDays is how long a suspect must be under pursuit
// before most-wanted promotion becomes advisable.
const mostWantedEligibilityDays = 30

// IsMostWantedEligible reports whether a suspect under pursuit has been
// wanted long enough to promote. Informational only; promotion still
// requires an explicit transition call.
func IsMostWantedEligible(s *models.Suspect, now time.Time) bool {
	return s.Details.Status == models.SuspectUnderPursuit &&
		DaysWanted(wantedSincePtr(s.Details.WantedSince), now) >= mostWantedEligibilityDays
}

// RankedSuspect pairs a suspect with its computed standing for listing.
type RankedSuspect struct {
	Suspect models.Suspect `json:"suspect"`
	Rank    int            `json:"rank"`
	Reward  int64          `json:"reward"`
}

// RankSuspects computes ranks for the given suspects and returns them in
// descending rank order. The sort is stable so equal-rank suspects keep
// their input order.
func RankSuspects(suspects []models.Suspect, casesBySuspect map[primitive.ObjectID][]CaseFacts, now time.Time) []RankedSuspect {
	ranked := make([]RankedSuspect, 0, len(suspects))
	for _, s := range suspects {
		rank := MostWantedRank(wantedSincePtr(s.Details.WantedSince), casesBySuspect[s.ID], now)
		ranked = append(ranked, RankedSuspect{
			Suspect: s,
			Rank:    rank,
			Reward:  RewardAmount(rank),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rank > ranked[j].Rank
	})
	return ranked
}
