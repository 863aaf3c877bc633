package mcpserver

// RatingGuide explains the two review strategies and their input scales to
// LLM clients before they record reviews.
const RatingGuide = `# Rehearse Rating Guide

Every note in the vault has a review schedule. Record a review with the
` + "`" + `review_note` + "`" + ` tool right after the learner has tried to recall the note.
Two strategies exist; the server default applies when none is given.

## Strategy ` + "`" + `rating` + "`" + `

One number, ` + "`" + `difficulty_rating` + "`" + `, on a 1-5 scale:

| Rating | Meaning | Effect on the next interval |
|---|---|---|
| 1 | trivial | easy: skips ahead one step, x1.3 |
| 2 | easy | easy: skips ahead one step, x1.3 |
| 3 | normal | base interval for this repetition |
| 4 | hard | half the base interval |
| 5 | failed / very hard | half the base interval |

Base intervals by repetition: 1, 3, 7, 14, 30, 90, 180, 365 days.

## Strategy ` + "`" + `confidence` + "`" + `

| Field | Scale | Meaning |
|---|---|---|
| initial_confidence | 1-5 | how sure the learner felt before answering |
| final_confidence | 1-5 | how sure the learner feels after checking |
| was_recalled | bool | whether the answer was recalled at all |
| retrieval_attempts | >= 1 | tries before the answer came |

Not recalling a note makes it harder; recalling it with final confidence of 4
or more makes it easier. Intervals grow 1 day, 6 days, then geometrically.

## Rules

1. Never invent a rating. Ask the learner when unsure.
2. ` + "`" + `time_spent_seconds` + "`" + ` is optional and never negative.
3. Note ids are vault-relative paths ending in ` + "`" + `.md` + "`" + ` with forward slashes.
4. Reviews are permanent: the review log is append-only.
`
