package opendota

// Hero is an entry of /heroes.
type Hero struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	LocalizedName string `json:"localized_name"`
}

// Item is a value of the name-keyed /constants/items map.
type Item struct {
	ID    int    `json:"id"`
	DName string `json:"dname"`
}

// PublicMatch is a listing entry of /publicMatches.
type PublicMatch struct {
	MatchID     int64 `json:"match_id"`
	Duration    int   `json:"duration"`
	RadiantWin  bool  `json:"radiant_win"`
	AvgRankTier int   `json:"avg_rank_tier"`
	StartTime   int64 `json:"start_time"`
}

// Match is the detail record of /matches/{id}. Players are ordered with the
// five Radiant players first.
type Match struct {
	MatchID     int64    `json:"match_id"`
	Duration    int      `json:"duration"` // seconds
	RadiantWin  bool     `json:"radiant_win"`
	StartTime   int64    `json:"start_time,omitempty"`
	GameMode    int      `json:"game_mode,omitempty"`
	LobbyType   int      `json:"lobby_type,omitempty"`
	AvgRankTier int      `json:"avg_rank_tier,omitempty"`
	Players     []Player `json:"players"`
}

// DurationMinutes returns the match length in whole minutes.
func (m *Match) DurationMinutes() int {
	return m.Duration / 60
}

// Player is one participant of a Match. Zero means the field was missing.
type Player struct {
	HeroID     int `json:"hero_id"`
	PlayerSlot int `json:"player_slot"`
	Kills      int `json:"kills"`
	Deaths     int `json:"deaths"`
	Assists    int `json:"assists"`
	GoldPerMin int `json:"gold_per_min"`
	XPPerMin   int `json:"xp_per_min"`

	Item0 int `json:"item_0"`
	Item1 int `json:"item_1"`
	Item2 int `json:"item_2"`
	Item3 int `json:"item_3"`
	Item4 int `json:"item_4"`
	Item5 int `json:"item_5"`

	Backpack0 int `json:"backpack_0"`
	Backpack1 int `json:"backpack_1"`
	Backpack2 int `json:"backpack_2"`
}

// ItemIDs returns the non-empty inventory slots followed by the non-empty
// backpack slots.
func (p *Player) ItemIDs() []int {
	slots := [...]int{
		p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5,
		p.Backpack0, p.Backpack1, p.Backpack2,
	}
	ids := make([]int, 0, len(slots))
	for _, id := range slots {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
