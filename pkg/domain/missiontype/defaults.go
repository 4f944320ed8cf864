package missiontype

// Defaults returns the built-in mission types seeded into an empty
// configuration directory so a fresh install can author missions
// immediately.
func Defaults() []*Configuration {
	return []*Configuration{
		{
			Name:         "locate_and_report",
			Description:  "Locate the target and report its position.",
			InitialState: "execution",
			States: map[string]State{
				"execution": {
					Prompt:       "You are a UAV controller executing a multi-step task plan. Locate the target described by the mission instruction and report its position.",
					Tools:        []string{"next_goal"},
					Observations: []string{"current_location", "locations_to_be_visited", "past_locations", "plan"},
				},
				"conclusion_generation": {
					Prompt: "You are the UAV controller responsible for providing the final answer. Report what was found at the target.",
					Tools:  []string{"report_final_conclusion"},
				},
				"end":   {},
				"error": {},
			},
			Transitions: []Transition{
				{From: "execution", To: "conclusion_generation", Condition: "{next_goal} == 'ground'"},
				{From: "execution", To: "conclusion_generation", Condition: "{locations_to_be_visited} == []"},
				{From: "execution", To: "error", Condition: "error"},
				{From: "conclusion_generation", To: "end", Condition: "True"},
			},
		},
		{
			Name:         "locate_and_land_safely",
			Description:  "Locate the target and perform a safe landing procedure.",
			InitialState: "execution",
			States: map[string]State{
				"execution": {
					Prompt:       "You are a UAV controller executing a multi-step task plan. Locate the landing zone described by the mission instruction.",
					Tools:        []string{"next_goal"},
					Observations: []string{"current_location", "locations_to_be_visited", "past_locations", "plan"},
				},
				"landing": {
					Prompt:       "You are the UAV controller performing a landing. Verify the ground is clear before descending.",
					Tools:        []string{"land", "abort_landing"},
					Observations: []string{"current_location", "waypoint"},
				},
				"end":   {},
				"error": {},
			},
			Transitions: []Transition{
				{From: "execution", To: "landing", Condition: "{next_goal} == 'ground'"},
				{From: "execution", To: "error", Condition: "error"},
				{From: "landing", To: "end", Condition: "True"},
			},
		},
		{
			Name:         "locate_and_track",
			Description:  "Locate the target and maintain tracking.",
			InitialState: "execution",
			States: map[string]State{
				"execution": {
					Prompt:       "You are a UAV controller executing a multi-step task plan. Locate the moving target described by the mission instruction.",
					Tools:        []string{"next_goal"},
					Observations: []string{"current_location", "locations_to_be_visited", "past_locations", "plan"},
				},
				"tracking": {
					Prompt:       "You are the UAV controller tracking a moving target. Keep the target in frame and report position updates.",
					Tools:        []string{"follow_target", "report_position"},
					Observations: []string{"current_location", "waypoint"},
				},
				"conclusion_generation": {
					Prompt: "You are the UAV controller responsible for providing the final answer. Summarize the track.",
					Tools:  []string{"report_final_conclusion"},
				},
				"end":   {},
				"error": {},
			},
			Transitions: []Transition{
				{From: "execution", To: "tracking", Condition: "{next_goal} == 'target'"},
				{From: "execution", To: "conclusion_generation", Condition: "{locations_to_be_visited} == []"},
				{From: "execution", To: "error", Condition: "error"},
				{From: "tracking", To: "conclusion_generation", Condition: "{target_lost} == True"},
				{From: "tracking", To: "conclusion_generation", Condition: "{track_complete} == True"},
				{From: "conclusion_generation", To: "end", Condition: "True"},
			},
		},
	}
}
