// Package stats computes basketball shooting percentages, efficiency
// ratings and possession-based team metrics from raw counting stats.
// All functions are pure. Percentages are rounded to one decimal place
// and every divide-by-zero case returns 0 rather than NaN or Inf.
package stats

import (
	"math"

	"github.com/mcdev12/courtside/go/internal/models"
)

// ftaPossessionWeight is the standard weighting of free throw attempts
// when estimating possessions (roughly the share of FT trips that end
// a possession).
const ftaPossessionWeight = 0.44

// round1 rounds to one decimal place, half away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Percentage returns made/attempted as a percentage, or 0 when nothing
// was attempted.
func Percentage(made, attempted int) float64 {
	if attempted == 0 {
		return 0
	}
	return round1(float64(made) / float64(attempted) * 100)
}

// EffectiveFieldGoalPercent weights three-pointers by the extra point
// they are worth: (FGM + 0.5*3PM) / FGA.
func EffectiveFieldGoalPercent(fgm, threePM, fga int) float64 {
	if fga == 0 {
		return 0
	}
	return round1((float64(fgm) + 0.5*float64(threePM)) / float64(fga) * 100)
}

// TrueShootingPercent measures scoring efficiency across field goals and
// free throws: Points / (2 * (FGA + 0.44*FTA)).
func TrueShootingPercent(points, fga, fta int) float64 {
	denom := 2 * (float64(fga) + ftaPossessionWeight*float64(fta))
	if denom == 0 {
		return 0
	}
	return round1(float64(points) / denom * 100)
}

// efficiencyNumerator is the raw linear-weights efficiency value:
// positive box score contributions minus missed shots, turnovers and fouls.
func efficiencyNumerator(l models.PlayerStatLine) int {
	return l.Points + l.Rebounds + l.Assists + l.Steals + l.Blocks -
		(l.FieldGoalsAttempted - l.FieldGoalsMade) -
		(l.FreeThrowsAttempted - l.FreeThrowsMade) -
		l.Turnovers - l.Fouls
}

// PlayerEfficiency returns the per-minute efficiency rating for a stat
// line, or 0 when the player has not logged any minutes.
func PlayerEfficiency(l models.PlayerStatLine) float64 {
	if l.MinutesPlayed == 0 {
		return 0
	}
	return round1(float64(efficiencyNumerator(l)) / l.MinutesPlayed)
}

// GameEfficiency returns the unscaled efficiency value for a stat line,
// independent of minutes played.
func GameEfficiency(l models.PlayerStatLine) int {
	return efficiencyNumerator(l)
}

// TurnoverRate estimates the share of possessions ending in a turnover:
// TO / (FGA + 0.44*FTA + TO).
func TurnoverRate(turnovers, fga, fta int) float64 {
	denom := float64(fga) + ftaPossessionWeight*float64(fta) + float64(turnovers)
	if denom == 0 {
		return 0
	}
	return round1(float64(turnovers) / denom * 100)
}

// OffensiveReboundPercent is the share of available offensive rebounds a
// team collected, against the opponent's defensive rebounds on the same
// missed shots.
func OffensiveReboundPercent(ownOffensive, oppDefensive int) float64 {
	return reboundPercent(ownOffensive, oppDefensive)
}

// DefensiveReboundPercent is the share of available defensive rebounds a
// team collected, against the opponent's offensive rebounds.
func DefensiveReboundPercent(ownDefensive, oppOffensive int) float64 {
	return reboundPercent(ownDefensive, oppOffensive)
}

func reboundPercent(own, oppComplementary int) float64 {
	total := own + oppComplementary
	if total == 0 {
		return 0
	}
	return round1(float64(own) / float64(total) * 100)
}

// FreeThrowRate measures how often a team gets to the line relative to
// its field goal attempts: FTA / FGA.
func FreeThrowRate(fta, fga int) float64 {
	if fga == 0 {
		return 0
	}
	return round1(float64(fta) / float64(fga) * 100)
}

// EstimatePossessions approximates team possessions from counting stats:
// round(FGA - OREB + TO + 0.44*FTA).
func EstimatePossessions(fga, offensiveRebounds, turnovers, fta int) int {
	raw := float64(fga) - float64(offensiveRebounds) + float64(turnovers) +
		ftaPossessionWeight*float64(fta)
	return int(math.Round(raw))
}

// OffensiveRating is points scored per 100 possessions.
func OffensiveRating(points, possessions int) float64 {
	return rating(points, possessions)
}

// DefensiveRating is points allowed per 100 possessions.
func DefensiveRating(pointsAllowed, possessions int) float64 {
	return rating(pointsAllowed, possessions)
}

func rating(points, possessions int) float64 {
	if possessions == 0 {
		return 0
	}
	return round1(float64(points) / float64(possessions) * 100)
}

// NetRating is the difference between offensive and defensive rating.
func NetRating(offensive, defensive float64) float64 {
	return round1(offensive - defensive)
}

// Pace normalizes possessions to a regulation 40-minute game.
func Pace(possessions int, minutesPlayed float64) float64 {
	if minutesPlayed == 0 {
		return 0
	}
	return round1(float64(possessions) / minutesPlayed * 40)
}
