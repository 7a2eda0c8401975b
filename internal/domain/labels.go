package domain

type Label string

const (
	StatusClosed     Label = "Closed"
	StatusOpen       Label = "Open"
	StatusInProgress Label = "In Progress"

	TierBronze  Label = "Bronze"
	TierSilver  Label = "Silver"
	TierGold    Label = "Gold"
	TierUnrated Label = "Unrated"
)

func (l Label) String() string { return string(l) }
