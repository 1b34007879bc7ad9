package scenario

import "github.com/wargame2d/engine/pkg/core"

const (
	defaultGridWidth  = 20
	defaultGridHeight = 13
	defaultMaxTurns   = 50
	defaultSeed       = 42

	aircraftRadarRange   = 5.0
	aircraftMissiles     = 4
	aircraftMissileRange = 4.0
	aircraftBaseHitProb  = 0.8
	aircraftMinHitProb   = 0.1

	samRadarRange   = 8.0
	samMissiles     = 6
	samMissileRange = 6.0
	samBaseHitProb  = 0.8
	samMinHitProb   = 0.1
	samCooldown     = 5

	awacsRadarRange = 9.0
	decoyRadarRange = 2.0
)

func awacs(id int, team core.Team, name string, x, y int) core.EntitySpec {
	return core.EntitySpec{
		ID: id, Team: team, Kind: core.KindAWACS, Name: name, Pos: [2]int{x, y},
		RadarRange: awacsRadarRange,
	}
}

func fighter(id int, team core.Team, name string, x, y int) core.EntitySpec {
	return core.EntitySpec{
		ID: id, Team: team, Kind: core.KindAircraft, Name: name, Pos: [2]int{x, y},
		RadarRange:      aircraftRadarRange,
		Missiles:        aircraftMissiles,
		MissileMaxRange: aircraftMissileRange,
		BaseHitProb:     aircraftBaseHitProb,
		MinHitProb:      aircraftMinHitProb,
	}
}

func decoy(id int, team core.Team, name string, x, y int) core.EntitySpec {
	return core.EntitySpec{
		ID: id, Team: team, Kind: core.KindDecoy, Name: name, Pos: [2]int{x, y},
		RadarRange: decoyRadarRange,
	}
}

func sam(id int, team core.Team, name string, x, y int, on bool) core.EntitySpec {
	return core.EntitySpec{
		ID: id, Team: team, Kind: core.KindSAM, Name: name, Pos: [2]int{x, y},
		RadarRange:      samRadarRange,
		Missiles:        samMissiles,
		MissileMaxRange: samMissileRange,
		BaseHitProb:     samBaseHitProb,
		MinHitProb:      samMinHitProb,
		CooldownSteps:   samCooldown,
		On:              &on,
	}
}

// Default is the built-in 8 vs 6 engagement. Blue holds the west side with
// its SAMs active; Red's SAMs start dark.
func Default() core.Scenario {
	return core.Scenario{
		Name: "default",
		Config: core.ScenarioConfig{
			GridWidth:              defaultGridWidth,
			GridHeight:             defaultGridHeight,
			MaxTurns:               defaultMaxTurns,
			MaxStalemateTurns:      60,
			MaxNoMoveTurns:         100,
			CheckMissileExhaustion: true,
			Seed:                   defaultSeed,
		},
		Agents: []core.AgentSpec{
			{Team: core.TeamBlue, Type: "doctrine", Name: "Blue Doctrine"},
			{Team: core.TeamRed, Type: "random", Name: "Red Random", Seed: 7},
		},
		Entities: []core.EntitySpec{
			awacs(1, core.TeamBlue, "Blue AWACS", 4, 6),
			fighter(2, core.TeamBlue, "Blue Fighter 1", 7, 10),
			fighter(3, core.TeamBlue, "Blue Fighter 2", 7, 6),
			fighter(4, core.TeamBlue, "Blue Fighter 3", 7, 2),
			decoy(5, core.TeamBlue, "Blue Decoy 1", 6, 9),
			decoy(6, core.TeamBlue, "Blue Decoy 2", 6, 3),
			sam(7, core.TeamBlue, "Blue SAM 1", 4, 11, true),
			sam(8, core.TeamBlue, "Blue SAM 2", 4, 1, true),

			awacs(9, core.TeamRed, "Red AWACS", 15, 6),
			fighter(10, core.TeamRed, "Red Fighter 1", 12, 9),
			fighter(11, core.TeamRed, "Red Fighter 2", 12, 3),
			decoy(12, core.TeamRed, "Red Decoy", 13, 6),
			sam(13, core.TeamRed, "Red SAM 1", 15, 11, false),
			sam(14, core.TeamRed, "Red SAM 2", 15, 1, false),
		},
	}
}
