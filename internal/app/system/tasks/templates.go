// internal/app/system/tasks/templates.go
package tasks

import "github.com/dalemusser/skillhub/internal/domain/models"

// GenerationCount is how many pending challenges one generation sweep
// creates per cadence.
const GenerationCount = 10

// Rewards are fixed per cadence; every challenge of a generation carries
// the same XP and badge.
var (
	weeklyRewards  = models.ChallengeRewards{XP: 200, Badge: "weeklyCreativeMaster"}
	monthlyRewards = models.ChallengeRewards{XP: 500, Badge: "monthlyCreativeMaster"}
)

type challengeTemplate struct {
	title        string
	description  string
	requirements []string
}

var weeklyTemplates = [GenerationCount]challengeTemplate{
	{
		title:       "Pixel Postcard",
		description: "Design a postcard-sized pixel art scene of a place you have never been.",
		requirements: []string{
			"Canvas no larger than 128x96",
			"Palette of at most 16 colors",
		},
	},
	{
		title:       "One-Minute Loop",
		description: "Compose a 60-second music loop that could sit under a game menu without wearing out its welcome.",
		requirements: []string{
			"Seamless loop point",
			"Under 70 seconds total",
		},
	},
	{
		title:       "Flash Fiction",
		description: "Write a complete story in 500 words or fewer. Beginning, middle, end.",
		requirements: []string{
			"500 words maximum",
			"Self-contained, no series setup",
		},
	},
	{
		title:       "Logo Remix",
		description: "Take a well-known logo and reimagine it for a completely different industry.",
		requirements: []string{
			"Vector or high-resolution raster",
			"Short note on the industry swap",
		},
	},
	{
		title:       "Character Turnaround",
		description: "Produce a three-view turnaround sheet for an original character.",
		requirements: []string{
			"Front, side, and back views",
			"Consistent proportions across views",
		},
	},
	{
		title:       "Chiptune Cover",
		description: "Cover any song you love using only chip-style synthesis.",
		requirements: []string{
			"Recognizable melody from the original",
			"Chip or tracker instrumentation only",
		},
	},
	{
		title:       "Speedpaint Hour",
		description: "Paint a finished landscape in a single hour and share the time-lapse.",
		requirements: []string{
			"One hour limit, honor system",
			"Time-lapse or progress shots included",
		},
	},
	{
		title:       "One-Mechanic Prototype",
		description: "Build a playable prototype around exactly one game mechanic.",
		requirements: []string{
			"Playable in a browser or downloadable build",
			"One mechanic, explored three ways",
		},
	},
	{
		title:       "Typography Poster",
		description: "Design a poster where type is the only imagery.",
		requirements: []string{
			"No photographs or illustrations",
			"Print-ready dimensions",
		},
	},
	{
		title:       "Photo Recreation",
		description: "Recreate a famous photograph with whatever you have at home.",
		requirements: []string{
			"Side-by-side with the original",
			"No digital compositing",
		},
	},
}

var monthlyTemplates = [GenerationCount]challengeTemplate{
	{
		title:       "Playable Demo",
		description: "Ship a short, polished demo of an original game. Five minutes of play that feel finished.",
		requirements: []string{
			"Title screen, play loop, and ending",
			"Original or licensed assets only",
		},
	},
	{
		title:       "Short Film",
		description: "Write, shoot, and cut a short film under five minutes.",
		requirements: []string{
			"Under five minutes including credits",
			"Original story",
		},
	},
	{
		title:       "Three-Track EP",
		description: "Compose and produce a three-track EP with a unifying theme.",
		requirements: []string{
			"Three finished tracks",
			"Cover art included",
		},
	},
	{
		title:       "Graphic Novel Chapter",
		description: "Draw a complete first chapter of a graphic novel, at least eight pages.",
		requirements: []string{
			"Eight pages minimum, lettered",
			"Consistent character designs",
		},
	},
	{
		title:       "Brand Identity",
		description: "Build a full identity for a fictional company: logo, palette, type system, and two applications.",
		requirements: []string{
			"Logo with usage variants",
			"Two real-world mockups",
		},
	},
	{
		title:       "Interactive Fiction",
		description: "Write a branching interactive story with at least three meaningfully different endings.",
		requirements: []string{
			"Three distinct endings",
			"Playable export or hosted link",
		},
	},
	{
		title:       "Environment Build",
		description: "Model and light a complete 3D environment that tells a story with no characters in it.",
		requirements: []string{
			"Three lit beauty renders",
			"Wireframe breakdown",
		},
	},
	{
		title:       "Podcast Pilot",
		description: "Produce the pilot episode of a podcast, fifteen minutes or more, edited and mixed.",
		requirements: []string{
			"Fifteen minutes minimum",
			"Intro and outro music",
		},
	},
	{
		title:       "Web App MVP",
		description: "Design and build the minimum lovable version of a web app that solves one real problem.",
		requirements: []string{
			"Deployed and reachable",
			"One core flow working end to end",
		},
	},
	{
		title:       "Animated Short",
		description: "Animate a thirty-second short with sound.",
		requirements: []string{
			"Thirty seconds minimum",
			"Synchronized sound design",
		},
	},
}

// NewChallengeBatch builds one generation's worth of pending challenges for
// the cadence from the static fallback templates.
func NewChallengeBatch(ctype models.ChallengeType) []models.Challenge {
	tpls := &weeklyTemplates
	rewards := weeklyRewards
	if ctype == models.ChallengeMonthly {
		tpls = &monthlyTemplates
		rewards = monthlyRewards
	}

	out := make([]models.Challenge, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, models.Challenge{
			Title:        t.title,
			Description:  t.description,
			Requirements: append([]string(nil), t.requirements...),
			Rewards:      rewards,
			Status:       models.ChallengePending,
			Type:         ctype,
		})
	}
	return out
}
