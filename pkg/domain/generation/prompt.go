package generation

import (
	"fmt"
	"strings"

	"github.com/skyfield/missionforge/pkg/domain/missiontype"
)

const promptHeader = `**System Role:**
You are a Synthetic Data Generator for Autonomous Drone Navigation.
Generate a mission with exactly %d waypoint candidates.

**Global Navigation Rule (CRITICAL):**
1. **Subject = Building:** The subject_description for every forward image MUST describe a specific house or building facade. Do not describe just a door or a sign.
2. **House Number Anchor:** The house number must be described as being mounted on that specific building.

**Output Rules:**
1. Return purely JSON matching the requested schema.
2. Exactly ONE waypoint with is_target=true.
3. %d distractor waypoints.`

const promptFooter = `**Generation Steps:**
1. **Define the House:** Create a distinct architectural style for the target.
2. **Attach the Number:** Ensure the house number visual attributes describe how it is attached to that specific house style.
3. **Consistency:** If the instruction names a "red house", the subject_description MUST start with "A red house...".

**Generate the mission JSON now.**`

var distributionGuidance = map[LandmarkDistribution]string{
	DistributionUniform:   "Spread landmarks evenly: every waypoint carries at least one landmark.",
	DistributionClustered: "Cluster landmarks: the target waypoint and its neighbors carry most landmarks, far distractors stay sparse.",
	DistributionSingle:    "Only the target waypoint carries landmarks; distractors show plain scenery.",
}

// BuildScenePrompt assembles the meta prompt for one mission of the given
// type. The mission profile section is derived from the type's configuration
// so authored prompts and tools steer the generator the same way they steer
// the mission runtime.
func BuildScenePrompt(cfg *missiontype.Configuration, params Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, params.WaypointsPerMission, params.WaypointsPerMission-1)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "**Mission Profile: %s**\n", strings.ToUpper(cfg.Name))
	if cfg.Description != "" {
		fmt.Fprintf(&b, "- **Objective:** %s\n", cfg.Description)
	}
	if initial, ok := cfg.States[cfg.InitialState]; ok && initial.Prompt != "" {
		fmt.Fprintf(&b, "- **Controller Briefing (initial state %q):** %s\n", cfg.InitialState, initial.Prompt)
	}
	if tools := collectTools(cfg); len(tools) > 0 {
		fmt.Fprintf(&b, "- **Available Tools:** %s\n", strings.Join(tools, ", "))
	}
	fmt.Fprintf(&b, "- **Landmark Placement:** %s\n", distributionGuidance[params.LandmarkDistribution])

	b.WriteString("\n")
	b.WriteString(promptFooter)
	return b.String()
}

func collectTools(cfg *missiontype.Configuration) []string {
	seen := make(map[string]bool)
	var tools []string
	for _, name := range cfg.StateNames() {
		for _, tool := range cfg.States[name].Tools {
			if !seen[tool] {
				seen[tool] = true
				tools = append(tools, tool)
			}
		}
	}
	return tools
}
