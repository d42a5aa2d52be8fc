package domain

// DeriveCardStatus computes a card's status from its generation counters:
// expected (tasks submitted), actual (videos recorded), and failed (tasks
// tracked as failed). When expected is zero no generation has been requested
// and the current status is preserved.
//
// An un-reconciled task contributes to neither actual nor failed, so a card
// stays generating until every task has resolved one way or the other.
func DeriveCardStatus(current CardStatus, expected, actual, failed int) CardStatus {
	if expected == 0 {
		return current
	}

	switch {
	case actual >= expected:
		return CardStatusCompleted
	case actual > 0 && actual+failed >= expected:
		return CardStatusPartiallyCompleted
	case actual > 0:
		return CardStatusGenerating
	case failed > 0:
		return CardStatusFailed
	default:
		return CardStatusGenerating
	}
}

// RecalculateStatus applies DeriveCardStatus to the card's own counters.
func (c *Card) RecalculateStatus() {
	c.Status = DeriveCardStatus(c.Status, len(c.TaskIDs), len(c.VideoURLs), len(c.FailedTasks))
}

// DeriveDeckStatus computes a deck's status purely from the statuses of its
// cards that have generation tasks. Cards without tasks are ignored; if no
// card has tasks the current status is preserved.
//
// Once every tasked card has settled (completed, partially completed, or
// failed), the deck is completed if any card produced at least one video and
// failed otherwise. Until then the deck is generating.
func DeriveDeckStatus(current DeckStatus, cards []*Card) DeckStatus {
	tasked := make([]*Card, 0, len(cards))
	for _, c := range cards {
		if len(c.TaskIDs) > 0 {
			tasked = append(tasked, c)
		}
	}

	if len(tasked) == 0 {
		return current
	}

	for _, c := range tasked {
		switch c.Status {
		case CardStatusCompleted, CardStatusPartiallyCompleted, CardStatusFailed:
		default:
			return DeckStatusGenerating
		}
	}

	for _, c := range tasked {
		if len(c.VideoURLs) > 0 {
			return DeckStatusCompleted
		}
	}
	return DeckStatusFailed
}

// RecalculateStatus re-derives the status of every card and then of the deck
// itself. It is safe to call repeatedly; the result depends only on current
// card state.
func (d *Deck) RecalculateStatus() {
	for _, c := range d.Cards {
		c.RecalculateStatus()
	}
	d.Status = DeriveDeckStatus(d.Status, d.Cards)
}
