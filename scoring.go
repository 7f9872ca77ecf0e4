package main

// scoreRound converts one round's vote record into per-player point deltas.
// A voter earns one point for each vote that correctly names the true author
// of an answer. Self-votes and votes against answers no longer in the round
// contribute nothing; no vote ever costs points.
func scoreRound(answers map[string]Answer, votes map[string][]Vote) map[string]int {
	deltas := make(map[string]int, len(votes))

	for voterID, cast := range votes {
		for _, vote := range cast {
			if vote.AnswerID == voterID {
				continue
			}
			if _, ok := answers[vote.AnswerID]; !ok {
				continue
			}
			if vote.GuessedPlayerID == vote.AnswerID {
				deltas[voterID]++
			}
		}
	}

	return deltas
}
